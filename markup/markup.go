// Package markup holds the small HTML building blocks shared by the
// renderer, the glossary highlighter and the navigation dispatcher: the
// navigation attributes the host listens for and markdown conversion.
package markup

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Intents a host can act on.
const (
	IntentSelectAndNavigate = "select-and-navigate"
	IntentOpenProperties    = "open-properties"
)

// Attributes carrying navigation intents.
const (
	AttrID     = "data-proteus-id"
	AttrIntent = "data-proteus-intent"
	AttrTip    = "data-tippy-content"
)

// Escape escapes text for element content and quoted attribute values.
func Escape(s string) string {
	return html.EscapeString(s)
}

// LinkAttrs returns the attributes of a navigation link to id, without
// the surrounding tag.
func LinkAttrs(id string) string {
	e := Escape(id)
	return fmt.Sprintf(`href="#%s" %s="%s" %s="%s" onclick="selectAndNavigate('%s', event)"`,
		e, AttrID, e, AttrIntent, IntentSelectAndNavigate, jsQuote(id))
}

// Link builds a navigation link to id. inner is inserted as is; class and
// extra attributes are optional.
func Link(id, class, inner string, extra ...string) string {
	var sb strings.Builder
	sb.WriteString("<a ")
	sb.WriteString(LinkAttrs(id))
	if class != "" {
		sb.WriteString(` class="`)
		sb.WriteString(Escape(class))
		sb.WriteString(`"`)
	}
	for _, attr := range extra {
		sb.WriteString(" ")
		sb.WriteString(attr)
	}
	sb.WriteString(">")
	sb.WriteString(inner)
	sb.WriteString("</a>")
	return sb.String()
}

// BlockAttrs returns the attributes that mark an element as the block of
// object id, opening its properties on double click.
func BlockAttrs(id string) string {
	e := Escape(id)
	return fmt.Sprintf(`id="%s" %s="%s" %s="%s"`, e, AttrID, e, AttrIntent, IntentOpenProperties)
}

// jsQuote makes id safe inside a single-quoted JavaScript string that is
// itself inside a double-quoted attribute.
func jsQuote(id string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return Escape(r.Replace(id))
}

var (
	mdOnce sync.Once
	md     goldmark.Markdown
)

func converter() goldmark.Markdown {
	mdOnce.Do(func() {
		md = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithXHTML()),
		)
	})
	return md
}

// Markdown converts markdown source to an HTML fragment. Raw HTML in the
// source is not passed through.
func Markdown(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := converter().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
