// Package glossary links occurrences of glossary items in rendered HTML to
// the paragraphs that define them.
//
// A glossary item is a paragraph object whose boolean is-glossary property
// is true. Its name may list several items separated by commas; each one
// is matched case-insensitively, whole word, and not next to a hyphen.
package glossary

import (
	"bytes"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/c360studio/proteus/markup"
	"github.com/c360studio/proteus/model"
)

const (
	// ParagraphClass is the class glossary items are taken from.
	ParagraphClass = "paragraph"
	// GlossaryProperty marks a paragraph as a glossary item.
	GlossaryProperty = "is-glossary"
	// TextProperty holds the item description as markdown.
	TextProperty = "text"
	// TermClass is set on highlighted links.
	TermClass = "glossary-term"
)

// Source is the read-only view the highlighter is built from.
type Source interface {
	Objects() []*model.Object
}

type entry struct {
	ids []string
	re  *regexp.Regexp
}

// Highlighter links glossary items found in HTML text.
type Highlighter struct {
	entries      map[string]*entry
	descriptions map[string]string
	terms        []string
	any          *regexp.Regexp
	logger       *slog.Logger
}

// New collects the glossary items of src. A nil logger uses slog.Default.
func New(src Source, logger *slog.Logger) *Highlighter {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Highlighter{
		entries:      make(map[string]*entry),
		descriptions: make(map[string]string),
		logger:       logger,
	}

	for _, obj := range src.Objects() {
		if !IsItem(obj) {
			continue
		}
		h.add(obj)
	}
	h.compile()
	return h
}

// IsItem reports whether obj defines glossary items.
func IsItem(obj *model.Object) bool {
	if !obj.HasClass(ParagraphClass) {
		return false
	}
	p, ok := obj.Property(GlossaryProperty)
	return ok && p.Kind == model.KindBoolean && p.Bool()
}

func (h *Highlighter) add(obj *model.Object) {
	name, _ := obj.Property(model.PropertyName)
	text, _ := obj.Property(TextProperty)

	desc, err := markup.Markdown(text.Value)
	if err != nil {
		h.logger.Warn("Glossary description not rendered", "id", obj.ID, "error", err)
		desc = markup.Escape(text.Value)
	}

	added := false
	for _, item := range strings.Split(name.Value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		e, ok := h.entries[item]
		if !ok {
			e = &entry{}
			h.entries[item] = e
		}
		e.ids = append(e.ids, obj.ID)
		added = true
	}
	if added {
		h.descriptions[obj.ID] = desc
	}
}

func (h *Highlighter) compile() {
	h.terms = h.terms[:0]
	for term := range h.entries {
		h.terms = append(h.terms, term)
	}
	// Longest first so items containing other items win.
	sort.Slice(h.terms, func(i, j int) bool {
		if len(h.terms[i]) != len(h.terms[j]) {
			return len(h.terms[i]) > len(h.terms[j])
		}
		return h.terms[i] < h.terms[j]
	})
	if len(h.terms) == 0 {
		h.any = nil
		return
	}

	quoted := make([]string, len(h.terms))
	for i, term := range h.terms {
		quoted[i] = regexp.QuoteMeta(term)
		h.entries[term].re = regexp.MustCompile(`\A(?i:` + quoted[i] + `)`)
	}
	h.any = regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// Len returns the number of distinct glossary items.
func (h *Highlighter) Len() int {
	return len(h.terms)
}

// Terms returns the glossary items, longest first.
func (h *Highlighter) Terms() []string {
	return append([]string(nil), h.terms...)
}

// Highlight links glossary items in the text nodes of fragment. Text
// inside links, scripts and styles is left alone. On any failure the input
// is returned unchanged.
func (h *Highlighter) Highlight(fragment string) string {
	if h == nil || h.any == nil || fragment == "" {
		return fragment
	}

	out, err := h.highlight(fragment)
	if err != nil {
		h.logger.Error("Glossary highlighting failed", "error", err)
		return fragment
	}
	return out
}

func (h *Highlighter) highlight(fragment string) (string, error) {
	var buf bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(fragment))

	// Depth of elements whose text must not be linked.
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return buf.String(), nil
			}
			return "", z.Err()

		case html.StartTagToken:
			if name, _ := z.TagName(); skipsText(string(name)) {
				skip++
			}
			buf.Write(z.Raw())

		case html.EndTagToken:
			if name, _ := z.TagName(); skipsText(string(name)) && skip > 0 {
				skip--
			}
			buf.Write(z.Raw())

		case html.TextToken:
			raw := z.Raw()
			if skip > 0 {
				buf.Write(raw)
				continue
			}
			text := string(z.Text())
			linked, changed := h.linkText(text)
			if changed {
				buf.WriteString(linked)
			} else {
				buf.Write(raw)
			}

		default:
			buf.Write(z.Raw())
		}
	}
}

func skipsText(tag string) bool {
	switch tag {
	case "a", "script", "style", "code", "pre":
		return true
	}
	return false
}

// linkText replaces glossary items in unescaped text and returns escaped
// HTML.
func (h *Highlighter) linkText(text string) (string, bool) {
	var sb strings.Builder
	changed := false
	last := 0
	pos := 0

	for pos < len(text) {
		loc := h.any.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]

		term, end := h.matchAt(text, start)
		if term == "" {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}

		sb.WriteString(markup.Escape(text[last:start]))
		sb.WriteString(h.link(term, text[start:end]))
		last, pos = end, end
		changed = true
	}
	if !changed {
		return text, false
	}
	sb.WriteString(markup.Escape(text[last:]))
	return sb.String(), true
}

// matchAt returns the longest item that matches at start with valid
// boundaries on both sides, and the end of the match.
func (h *Highlighter) matchAt(text string, start int) (string, int) {
	if !leftBoundary(text, start) {
		return "", 0
	}
	for _, term := range h.terms {
		loc := h.entries[term].re.FindStringIndex(text[start:])
		if loc == nil {
			continue
		}
		end := start + loc[1]
		if rightBoundary(text, end) {
			return term, end
		}
	}
	return "", 0
}

func (h *Highlighter) link(term, matched string) string {
	e := h.entries[term]

	descs := make([]string, 0, len(e.ids))
	for _, id := range e.ids {
		descs = append(descs, h.descriptions[id])
	}
	tip := markup.AttrTip + `="` + markup.Escape(strings.Join(descs, "<hr>")) + `"`

	return markup.Link(e.ids[0], TermClass, markup.Escape(matched), tip)
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func leftBoundary(text string, start int) bool {
	if start == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	next, _ := utf8.DecodeRuneInString(text[start:])
	if prev == '-' {
		return false
	}
	return !(isWord(prev) && isWord(next))
}

func rightBoundary(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:end])
	next, _ := utf8.DecodeRuneInString(text[end:])
	if next == '-' {
		return false
	}
	return !(isWord(prev) && isWord(next))
}
