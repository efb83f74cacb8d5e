package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// Converter converts rendered pages to Markdown.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a converter producing GitHub-flavored Markdown.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	// Navigation links keep their text only.
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			if _, ok := selec.Attr("data-proteus-id"); ok {
				return md.String(content)
			}
			return nil
		},
	})

	return &Converter{converter: converter}
}

// ToMarkdown converts a rendered page or fragment to Markdown. The table
// of contents, scripts and styles are dropped.
func (c *Converter) ToMarkdown(page string) (string, error) {
	body, err := documentBody(page)
	if err != nil {
		return "", err
	}

	out, err := c.converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return cleanMarkdown(out), nil
}

// ToMarkdown converts with a default converter.
func ToMarkdown(page string) (string, error) {
	return NewConverter().ToMarkdown(page)
}

// documentBody returns the markup of the document article, or of the body
// when there is none, without navigation chrome.
func documentBody(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	removeElements(doc, []string{"script", "style", "head"})
	removeByClass(doc, []string{"toc"})

	if node := findElement(doc, "article"); node != nil {
		return renderNode(node), nil
	}
	if node := findElement(doc, "body"); node != nil {
		var sb strings.Builder
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			sb.WriteString(renderNode(c))
		}
		return sb.String(), nil
	}
	return renderNode(doc), nil
}

// findElement finds the first element with the given tag, depth first.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// removeElements removes all elements with the given tag names.
func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}
	remove(n, func(node *html.Node) bool { return tagSet[node.Data] })
}

// removeByClass removes elements that have any of the given class names.
func removeByClass(n *html.Node, classes []string) {
	classSet := make(map[string]bool, len(classes))
	for _, class := range classes {
		classSet[class] = true
	}
	remove(n, func(node *html.Node) bool {
		for _, c := range strings.Fields(attr(node, "class")) {
			if classSet[c] {
				return true
			}
		}
		return false
	})
}

func remove(n *html.Node, match func(*html.Node) bool) {
	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			toRemove = append(toRemove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// renderNode renders a node and its children back to HTML.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}

// cleanMarkdown trims trailing spaces and collapses long runs of blank
// lines.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
