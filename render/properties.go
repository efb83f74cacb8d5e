package render

import (
	"path"
	"strings"

	"github.com/c360studio/proteus/markup"
	"github.com/c360studio/proteus/model"
)

// Property names the built-in rules read.
const (
	PropertyCode         = ":Proteus-code"
	PropertyText         = "text"
	PropertyDescription  = "description"
	PropertyFile         = "file"
	PropertyColumnsClass = "columns-class"
	PropertyRowsClass    = "rows-class"
)

// PropertyHTML renders the named property of obj by kind. A missing
// property renders as the empty string.
func (c *Context) PropertyHTML(obj *model.Object, name string) string {
	p, ok := obj.Property(name)
	if !ok {
		return ""
	}
	return c.Property(p)
}

// Property renders a property value:
//   - markdown is converted to HTML and glossary highlighted
//   - enums and booleans become localized labels
//   - files become an image or a link into the assets folder
//   - urls become external links
//   - classList values become localized class names
//   - traces become navigation links to their targets
func (c *Context) Property(p model.Property) string {
	switch p.Kind {
	case model.KindMarkdown:
		return c.markdown(p.Value)

	case model.KindEnum:
		if p.Value == "" {
			return ""
		}
		return markup.Escape(c.Text(p.Value))

	case model.KindBoolean:
		if p.Bool() {
			return markup.Escape(c.Text("yes"))
		}
		return markup.Escape(c.Text("no"))

	case model.KindFile:
		return c.file(p)

	case model.KindURL:
		if p.Value == "" {
			return ""
		}
		v := markup.Escape(p.Value)
		return `<a href="` + v + `" target="_blank" rel="noopener">` + v + `</a>`

	case model.KindClassList:
		labels := make([]string, 0, len(p.List))
		for _, class := range p.List {
			labels = append(labels, markup.Escape(c.Text(class)))
		}
		return strings.Join(labels, ", ")

	case model.KindCode:
		return markup.Escape(p.Code.String())

	case model.KindTrace:
		return c.traces(p.List)

	default:
		return markup.Escape(p.Value)
	}
}

// Label returns the localized name of a property.
func (c *Context) Label(name string) string {
	return markup.Escape(c.Text(name))
}

func (c *Context) markdown(src string) string {
	out, err := markup.Markdown(src)
	if err != nil {
		c.r.logger.Warn("Markdown not rendered", "pass", c.passID, "error", err)
		return "<p>" + markup.Escape(src) + "</p>"
	}
	return c.glossary.Highlight(out)
}

func (c *Context) file(p model.Property) string {
	ref := c.r.assets.Resolve(p.Value)
	if ref == "" {
		return ""
	}
	if c.r.assets.IsImage(ref) {
		return `<img src="` + markup.Escape(ref) + `" alt="` + markup.Escape(path.Base(p.Value)) + `"/>`
	}
	return `<a href="` + markup.Escape(ref) + `" target="_blank">` + markup.Escape(path.Base(p.Value)) + `</a>`
}

// traces renders one navigation link per target. Targets that do not
// resolve are shown by id and marked dangling.
func (c *Context) traces(targets []string) string {
	if len(targets) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<ul class="traces">`)
	for _, id := range targets {
		sb.WriteString("<li>")
		if obj, ok := c.project.Lookup(id); ok {
			sb.WriteString(c.ObjectLink(obj))
		} else {
			sb.WriteString(`<span class="dangling-trace">` + markup.Escape(id) + `</span>`)
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// ObjectLink returns a navigation link to obj labelled with its code and
// name.
func (c *Context) ObjectLink(obj *model.Object) string {
	return markup.Link(obj.ID, "", markup.Escape(Title(obj)))
}

// Title is the display title of obj: its code, when set, followed by its
// name.
func Title(obj *model.Object) string {
	if p, ok := obj.Property(PropertyCode); ok {
		if code := p.Text(); code != "" {
			return code + " " + obj.Name()
		}
	}
	return obj.Name()
}

// ClassList returns the classes listed in a classList property.
func ClassList(obj *model.Object, name string) []string {
	p, ok := obj.Property(name)
	if !ok || p.Kind != model.KindClassList {
		return nil
	}
	return p.List
}
