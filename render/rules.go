package render

import (
	"github.com/c360studio/proteus/markup"
	"github.com/c360studio/proteus/model"
)

// Classes with a built-in rule.
const (
	ClassSection                  = "section"
	ClassParagraph                = "paragraph"
	ClassObjective                = "objective"
	ClassActor                    = "actor"
	ClassUseCase                  = "use-case"
	ClassUseCaseStep              = "use-case-step"
	ClassFunctionalRequirement    = "functional-requirement"
	ClassNonFunctionalRequirement = "nonfunctional-requirement"
	ClassInformationRequirement   = "information-requirement"
	ClassFigure                   = "figure"
	ClassTraceabilityMatrix       = "traceability-matrix"
)

// ChildrenRule renders the children of obj and nothing else. It is the
// default fallback for objects without a rule.
func ChildrenRule(c *Context, obj *model.Object) error {
	c.RenderChildren(obj)
	return nil
}

// OpenBlock writes the opening tag of obj's block element.
func (c *Context) OpenBlock(tag string, obj *model.Object, class string) {
	c.Writef(`<%s class="%s" %s>`, tag, markup.Escape(class), markup.BlockAttrs(obj.ID))
}

// DocumentRule renders a document title and its content.
func DocumentRule(c *Context, obj *model.Object) error {
	c.OpenBlock("article", obj, "document")
	c.Writef(`<h1 class="document-title">%s</h1>`, markup.Escape(obj.Name()))
	c.RenderChildren(obj)
	c.Write("</article>")
	return nil
}

// SectionRule renders a section heading one level below its parent and
// its children.
func SectionRule(c *Context, obj *model.Object) error {
	c.depth++
	level := min(c.depth+1, 6)

	c.OpenBlock("section", obj, ClassSection)
	c.Writef(`<h%d>%s</h%d>`, level, markup.Escape(Title(obj)), level)
	if desc := c.PropertyHTML(obj, PropertyDescription); desc != "" {
		c.Write(desc)
	}
	c.RenderChildren(obj)
	c.Write("</section>")
	return nil
}

// ParagraphRule renders the paragraph text.
func ParagraphRule(c *Context, obj *model.Object) error {
	c.OpenBlock("div", obj, ClassParagraph)
	c.Write(c.PropertyHTML(obj, PropertyText))
	c.RenderChildren(obj)
	c.Write("</div>")
	return nil
}

// CardRule renders an object as a titled table of its properties, then
// its children.
func CardRule(c *Context, obj *model.Object) error {
	c.OpenBlock("div", obj, "card "+cardClass(obj))
	c.writeCard(obj)
	c.RenderChildren(obj)
	c.Write("</div>")
	return nil
}

// UseCaseRule renders a use case card with its steps as an ordered list.
func UseCaseRule(c *Context, obj *model.Object) error {
	c.OpenBlock("div", obj, "card "+ClassUseCase)
	c.writeCard(obj)

	// Consecutive steps share one list; other children stay in place.
	inSteps := false
	for _, child := range obj.Children {
		step := child.HasClass(ClassUseCaseStep)
		if step && !inSteps {
			c.Write(`<ol class="use-case-steps">`)
		} else if !step && inSteps {
			c.Write("</ol>")
		}
		inSteps = step
		c.RenderObject(child)
	}
	if inSteps {
		c.Write("</ol>")
	}
	c.Write("</div>")
	return nil
}

// UseCaseStepRule renders a step as a list item with its description and
// traces.
func UseCaseStepRule(c *Context, obj *model.Object) error {
	c.OpenBlock("li", obj, ClassUseCaseStep)
	c.Write(c.PropertyHTML(obj, PropertyDescription))
	for _, p := range obj.Properties {
		if p.Kind == model.KindTrace {
			c.Write(c.Property(p))
		}
	}
	c.RenderChildren(obj)
	c.Write("</li>")
	return nil
}

// FigureRule renders the figure file with its name as caption.
func FigureRule(c *Context, obj *model.Object) error {
	c.OpenBlock("figure", obj, ClassFigure)
	c.Write(c.PropertyHTML(obj, PropertyFile))
	c.Writef("<figcaption>%s</figcaption>", markup.Escape(Title(obj)))
	c.Write("</figure>")
	return nil
}

// MatrixRule renders a traceability matrix whose columns and rows are the
// classes listed in the columns-class and rows-class properties.
func MatrixRule(c *Context, obj *model.Object) error {
	c.OpenBlock("div", obj, ClassTraceabilityMatrix)
	c.Writef(`<h4 class="traceability-matrix-title">%s</h4>`, markup.Escape(Title(obj)))
	c.Write(c.Matrix(ClassList(obj, PropertyColumnsClass), ClassList(obj, PropertyRowsClass)))
	c.Write("</div>")
	return nil
}

// cardClass is the most specific class of obj.
func cardClass(obj *model.Object) string {
	if len(obj.Classes) == 0 {
		return ""
	}
	return obj.Classes[0]
}

// writeCard writes the card table: the title as caption, then one row per
// property with a non-empty rendered value.
func (c *Context) writeCard(obj *model.Object) {
	c.Write(`<table class="card-table">`)
	c.Writef(`<caption><span class="card-class">%s</span> %s</caption>`,
		markup.Escape(c.Text(cardClass(obj))), markup.Escape(Title(obj)))
	c.Write("<tbody>")
	for _, p := range obj.Properties {
		if p.Name == model.PropertyName || p.Name == PropertyCode {
			continue
		}
		value := c.Property(p)
		if value == "" {
			continue
		}
		c.Writef(`<tr class="property-%s"><th>%s</th><td>%s</td></tr>`,
			markup.Escape(p.Name), c.Label(p.Name), value)
	}
	c.Write("</tbody></table>")
}
