package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/c360studio/proteus/model"
)

func named(id, name string, classes ...string) *model.Object {
	obj := model.NewObject(id, classes...)
	obj.SetProperty(model.StringProperty(model.PropertyName, name))
	return obj
}

// srsProject builds two documents:
//
//	D1 "SRS"
//	  S1 "Introduction"
//	    P1 paragraph
//	    S2 "Nested"
//	  UC1 "Login" (UC-0001)
//	    ST1 step, traces FR1
//	  UC2 "Logout"
//	D2 "Requirements"
//	  FR1 "Authenticate"
//	  FR2 "Audit", traces UC2
//	  M1 matrix: columns functional-requirement, rows use-case
func srsProject(t *testing.T) *model.Project {
	t.Helper()

	p1 := model.NewObject("P1", ClassParagraph)
	p1.SetProperty(model.MarkdownProperty(PropertyText, "The user must **log in**."))

	s1 := named("S1", "Introduction", ClassSection).
		AddChild(p1).
		AddChild(named("S2", "Nested", ClassSection))

	st1 := model.NewObject("ST1", ClassUseCaseStep)
	st1.SetProperty(model.MarkdownProperty(PropertyDescription, "Enter the password"))
	st1.SetProperty(model.TraceProperty("trace", "FR1"))

	uc1 := named("UC1", "Login", ClassUseCase, "requirement")
	uc1.SetProperty(model.CodeProperty(PropertyCode, model.Code{Prefix: "UC-", Number: "0001"}))
	uc1.SetProperty(model.EnumProperty("priority", "high", "low", "medium", "high"))
	uc1.AddChild(st1)

	d1 := named("D1", "SRS", model.ClassDocument).
		AddChild(s1).
		AddChild(uc1).
		AddChild(named("UC2", "Logout", ClassUseCase, "requirement"))

	fr2 := named("FR2", "Audit", ClassFunctionalRequirement)
	fr2.SetProperty(model.TraceProperty("trace", "UC2"))

	m1 := named("M1", "Use cases vs requirements", ClassTraceabilityMatrix)
	m1.SetProperty(model.ClassListProperty(PropertyColumnsClass, ClassFunctionalRequirement))
	m1.SetProperty(model.ClassListProperty(PropertyRowsClass, ClassUseCase))

	d2 := named("D2", "Requirements", model.ClassDocument).
		AddChild(named("FR1", "Authenticate", ClassFunctionalRequirement)).
		AddChild(fr2).
		AddChild(m1)

	p, err := model.NewProject("PRJ", d1, d2)
	require.NoError(t, err)
	return p
}

type cell struct {
	tag   string
	class string
	text  string
}

// tableRows parses fragment and returns the header and data cells of
// every table row.
func tableRows(t *testing.T, fragment string) [][]cell {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(fragment))
	require.NoError(t, err)

	var rows [][]cell
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []cell
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "th" || c.Data == "td") {
					row = append(row, cell{tag: c.Data, class: attr(c, "class"), text: textOf(c)})
				}
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return rows
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
