package model

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a property value.
type Kind string

// Property kinds, named after their XML element tags.
const (
	KindString    Kind = "stringProperty"
	KindMarkdown  Kind = "markdownProperty"
	KindEnum      Kind = "enumProperty"
	KindBoolean   Kind = "booleanProperty"
	KindDate      Kind = "dateProperty"
	KindTime      Kind = "timeProperty"
	KindInteger   Kind = "integerProperty"
	KindFloat     Kind = "floatProperty"
	KindFile      Kind = "fileProperty"
	KindURL       Kind = "urlProperty"
	KindClassList Kind = "classListProperty"
	KindCode      Kind = "codeProperty"
	KindTrace     Kind = "traceProperty"
)

// DefaultCategory is used for properties declared without a category.
const DefaultCategory = "general"

// Code is the value of a code property, e.g. UC-0001.
type Code struct {
	Prefix string
	Number string
	Suffix string
}

// String joins the code parts.
func (c Code) String() string {
	return c.Prefix + c.Number + c.Suffix
}

// Property is a typed, named value attached to an object.
type Property struct {
	Name     string
	Category string
	Kind     Kind

	// Value holds scalar values (string, markdown, enum, boolean, date,
	// time, integer, float, file, url).
	Value string

	// List holds class tags for classList and target ids for trace.
	List []string

	// Choices holds the allowed values of an enum.
	Choices []string

	Code Code

	Tooltip   string
	Required  bool
	Immutable bool
}

// KnownKind reports whether k is a property kind this package understands.
func KnownKind(k Kind) bool {
	switch k {
	case KindString, KindMarkdown, KindEnum, KindBoolean, KindDate, KindTime,
		KindInteger, KindFloat, KindFile, KindURL, KindClassList, KindCode, KindTrace:
		return true
	}
	return false
}

// Bool interprets the value of a boolean property.
func (p Property) Bool() bool {
	return strings.EqualFold(strings.TrimSpace(p.Value), "true")
}

// Text returns a plain-text form of the value.
func (p Property) Text() string {
	switch p.Kind {
	case KindClassList, KindTrace:
		return strings.Join(p.List, " ")
	case KindCode:
		return p.Code.String()
	default:
		return p.Value
	}
}

// String is used in log lines.
func (p Property) String() string {
	return fmt.Sprintf("%s(%s=%q)", p.Kind, p.Name, p.Text())
}

// StringProperty builds a string property.
func StringProperty(name, value string) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindString, Value: value}
}

// MarkdownProperty builds a markdown property.
func MarkdownProperty(name, value string) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindMarkdown, Value: value}
}

// EnumProperty builds an enum property.
func EnumProperty(name, value string, choices ...string) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindEnum, Value: value, Choices: choices}
}

// BooleanProperty builds a boolean property.
func BooleanProperty(name string, value bool) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindBoolean, Value: fmt.Sprintf("%t", value)}
}

// FileProperty builds a file property whose value is relative to the
// project assets folder.
func FileProperty(name, value string) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindFile, Value: value}
}

// URLProperty builds a url property.
func URLProperty(name, value string) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindURL, Value: value}
}

// ClassListProperty builds a classList property.
func ClassListProperty(name string, classes ...string) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindClassList, List: classes}
}

// TraceProperty builds a trace property pointing at the given targets.
func TraceProperty(name string, targets ...string) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindTrace, List: targets}
}

// CodeProperty builds a code property.
func CodeProperty(name string, code Code) Property {
	return Property{Name: name, Category: DefaultCategory, Kind: KindCode, Code: code}
}
