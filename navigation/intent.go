// Package navigation turns the navigation affordances encoded in rendered
// markup into host actions: selecting an object, switching to the document
// that owns it after confirmation, or opening its properties.
package navigation

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/c360studio/proteus/markup"
)

// Intent is a request raised by a click in rendered markup.
type Intent struct {
	ObjectID string `json:"id"`
	Action   string `json:"intent"`
}

// ParseIntents returns the intents encoded in fragment, in document
// order. Elements missing either the id or the intent attribute are
// skipped. Parsing stops at the end of input or the first tokenizer
// error.
func ParseIntents(fragment string) []Intent {
	var intents []Intent

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return intents

		case html.StartTagToken, html.SelfClosingTagToken:
			var in Intent
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				switch string(key) {
				case markup.AttrID:
					in.ObjectID = string(val)
				case markup.AttrIntent:
					in.Action = string(val)
				}
			}
			if in.ObjectID != "" && in.Action != "" {
				intents = append(intents, in)
			}
		}
	}
}
