package export

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/c360studio/proteus/markup"
)

// Heading is one entry of a document outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`

	// ObjectID is the id of the nearest enclosing object block.
	ObjectID string `json:"object_id,omitempty"`
}

// Outline lists the headings of a rendered page in document order. The
// table of contents is skipped.
func Outline(page string) ([]Heading, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	removeByClass(doc, []string{"toc"})

	var headings []Heading
	var walk func(n *html.Node, objectID string)
	walk = func(n *html.Node, objectID string) {
		if n.Type == html.ElementNode {
			if id := attr(n, markup.AttrID); id != "" {
				objectID = id
			}
			if level := headingLevel(n.Data); level > 0 {
				headings = append(headings, Heading{
					Level:    level,
					Text:     strings.Join(strings.Fields(textContent(n)), " "),
					ObjectID: objectID,
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, objectID)
		}
	}
	walk(doc, "")
	return headings, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
