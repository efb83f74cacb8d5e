package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/proteus/assets"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head><title>SRS</title><script src="resources/js/navigation.js"></script></head>
<body>
<nav class="toc"><h2>Table of Contents</h2><ol><li><a href="#S1" data-proteus-id="S1">Intro</a></li></ol></nav>
<article class="document" id="D1" data-proteus-id="D1" data-proteus-intent="open-properties">
<h1 class="document-title">SRS</h1>
<section class="section" id="S1" data-proteus-id="S1" data-proteus-intent="open-properties">
<h2>Intro</h2>
<p>Hello <strong>world</strong>, see <a href="#FR1" data-proteus-id="FR1" data-proteus-intent="select-and-navigate">Authenticate</a>
and <a href="https://example.org">the site</a>.</p>
<table><thead><tr><th>Req</th><th>Status</th></tr></thead><tbody><tr><td>FR1</td><td>✔</td></tr></tbody></table>
</section>
</article>
</body>
</html>`

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "html", want: FormatHTML},
		{in: "Markdown", want: FormatMarkdown},
		{in: "md", want: FormatMarkdown},
		{in: " outline ", want: FormatOutline},
		{in: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []Format{FormatHTML, FormatMarkdown, FormatOutline}, SupportedFormats())
}

func TestToMarkdown(t *testing.T) {
	out, err := ToMarkdown(samplePage)
	require.NoError(t, err)

	assert.Contains(t, out, "# SRS")
	assert.Contains(t, out, "## Intro")
	assert.Contains(t, out, "Hello **world**, see Authenticate")
	assert.Contains(t, out, "[the site](https://example.org)")
	assert.Contains(t, out, "| Req | Status |")
	assert.NotContains(t, out, "Table of Contents")
	assert.NotContains(t, out, "#FR1")
	assert.NotContains(t, out, "navigation.js")
}

func TestOutline(t *testing.T) {
	headings, err := Outline(samplePage)
	require.NoError(t, err)

	assert.Equal(t, []Heading{
		{Level: 1, Text: "SRS", ObjectID: "D1"},
		{Level: 2, Text: "Intro", ObjectID: "S1"},
	}, headings)
}

func TestExporter_Export(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(nil)

	paths, err := e.Export(filepath.Join(dir, "out"), "srs", samplePage, FormatHTML, FormatMarkdown, FormatOutline)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	assert.Equal(t, filepath.Join(dir, "out", "srs.html"), paths[0])
	assert.Equal(t, filepath.Join(dir, "out", "srs.md"), paths[1])
	assert.Equal(t, filepath.Join(dir, "out", "srs.outline.json"), paths[2])

	html, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, samplePage, string(html))

	data, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	var headings []Heading
	require.NoError(t, json.Unmarshal(data, &headings))
	assert.Len(t, headings, 2)

	_, err = e.Export(dir, "x", samplePage, Format("pdf"))
	assert.Error(t, err)
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "page.html")
	require.NoError(t, WriteHTML(path, "<p>x</p>"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(data))
}

func TestExporter_CopyAssets(t *testing.T) {
	project := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, "assets", "img"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "assets", "img", "logo.png"), []byte("png"), 0644))

	n, err := NewExporter(nil).CopyAssets(project, out, assets.NewResolver(""))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(out, "assets", "img", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}
