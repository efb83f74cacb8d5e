package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/c360studio/proteus/config"
	"github.com/c360studio/proteus/markup"
	"github.com/c360studio/proteus/model"
)

// RenderDocument renders document docID as a complete HTML page for view.
// An empty view selects the configured default. Unknown views wrap
// config.ErrUnknownView; unknown documents wrap model.ErrObjectNotFound.
func (r *Renderer) RenderDocument(p *model.Project, docID, view string) (string, error) {
	if view == "" {
		view = r.config.Settings.DefaultView
	}
	vc, err := r.config.View(view)
	if err != nil {
		return "", err
	}

	start := time.Now()

	var page string
	err = p.View(func() error {
		doc, ok := p.Lookup(docID)
		if !ok || !doc.IsDocument() {
			return fmt.Errorf("document %s: %w", docID, model.ErrObjectNotFound)
		}

		c := r.newContext(p, vc.Glossary)
		c.RenderObject(doc)
		page = r.page(c, doc, vc, c.out.String())
		c.done(doc, start)
		return nil
	})
	if err != nil {
		return "", err
	}

	r.metrics.ObserveRender(view, time.Since(start))
	return page, nil
}

// Views returns the configured view names, sorted.
func (r *Renderer) Views() []string {
	return r.config.ViewNames()
}

func (r *Renderer) page(c *Context, doc *model.Object, vc config.ViewConfig, body string) string {
	var sb strings.Builder

	title := c.Text("document.untitled")
	if p, ok := doc.Property(model.PropertyName); ok && p.Value != "" {
		title = p.Value
	}

	sb.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&sb, "<html lang=\"%s\">\n<head>\n", markup.Escape(r.config.Settings.Language))
	sb.WriteString("<meta charset=\"utf-8\"/>\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", markup.Escape(title))
	for _, css := range vc.Stylesheets {
		fmt.Fprintf(&sb, "<link rel=\"stylesheet\" href=\"%s\"/>\n", markup.Escape(css))
	}
	for _, js := range vc.Scripts {
		fmt.Fprintf(&sb, "<script src=\"%s\"></script>\n", markup.Escape(js))
	}
	sb.WriteString("</head>\n<body>\n")

	if toc := c.toc(doc); toc != "" {
		sb.WriteString(`<nav class="toc">`)
		fmt.Fprintf(&sb, "<h2>%s</h2>", markup.Escape(c.Text("document.toc")))
		sb.WriteString(toc)
		sb.WriteString("</nav>\n")
	}

	sb.WriteString(body)
	sb.WriteString("\n</body>\n</html>\n")
	return sb.String()
}

// toc lists the sections under obj as nested ordered lists of links.
func (c *Context) toc(obj *model.Object) string {
	var sb strings.Builder
	for _, child := range obj.Children {
		if !child.HasClass(ClassSection) {
			continue
		}
		sb.WriteString("<li>")
		sb.WriteString(c.ObjectLink(child))
		sb.WriteString(c.toc(child))
		sb.WriteString("</li>")
	}
	if sb.Len() == 0 {
		return ""
	}
	return "<ol>" + sb.String() + "</ol>"
}
