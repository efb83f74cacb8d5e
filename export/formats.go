// Package export writes rendered documents to disk as HTML pages,
// Markdown or a JSON outline of their headings.
package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format specifies the output format.
type Format string

const (
	// FormatHTML writes the rendered page as is.
	FormatHTML Format = "html"

	// FormatMarkdown converts the document body to GitHub-flavored Markdown.
	FormatMarkdown Format = "markdown"

	// FormatOutline writes the heading outline as JSON.
	FormatOutline Format = "outline"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatHTML: {
		Name:        FormatHTML,
		MIMEType:    "text/html",
		Extension:   ".html",
		Description: "Standalone HTML page",
	},
	FormatMarkdown: {
		Name:        FormatMarkdown,
		MIMEType:    "text/markdown",
		Extension:   ".md",
		Description: "GitHub-flavored Markdown",
	},
	FormatOutline: {
		Name:        FormatOutline,
		MIMEType:    "application/json",
		Extension:   ".outline.json",
		Description: "Heading outline with object ids",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat parses a format name, case-insensitively. "md" is accepted
// for Markdown.
func ParseFormat(s string) (Format, error) {
	name := Format(strings.ToLower(strings.TrimSpace(s)))
	if name == "md" {
		name = FormatMarkdown
	}
	if _, ok := FormatRegistry[name]; !ok {
		return "", fmt.Errorf("unsupported export format %q (supported: %s)", s, strings.Join(formatNames(), ", "))
	}
	return name, nil
}

// SupportedFormats returns the supported formats, sorted.
func SupportedFormats() []Format {
	names := formatNames()
	formats := make([]Format, len(names))
	for i, n := range names {
		formats[i] = Format(n)
	}
	return formats
}

func formatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
