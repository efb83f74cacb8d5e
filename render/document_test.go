package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/proteus/config"
	"github.com/c360studio/proteus/model"
)

func TestRenderDocument(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	page, err := r.RenderDocument(p, "D1", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>\n<html lang=\"en\">"))
	assert.Contains(t, page, "<title>SRS</title>")
	assert.Contains(t, page, `<link rel="stylesheet" href="resources/css/document.css"/>`)
	assert.Contains(t, page, `<script src="resources/js/navigation.js"></script>`)
	assert.Contains(t, page, `<nav class="toc"><h2>Table of Contents</h2><ol><li><a href="#S1"`)
	assert.Contains(t, page, `>Introduction</a><ol><li><a href="#S2"`)
	assert.Contains(t, page, `<article class="document" id="D1"`)
	assert.True(t, strings.HasSuffix(page, "</body>\n</html>\n"))
}

func TestRenderDocument_Views(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	assert.Equal(t, []string{"default", "plain"}, r.Views())

	page, err := r.RenderDocument(p, "D1", "plain")
	require.NoError(t, err)
	assert.Contains(t, page, "resources/css/plain.css")
	assert.NotContains(t, page, "<script")

	_, err = r.RenderDocument(p, "D1", "fancy")
	assert.ErrorIs(t, err, config.ErrUnknownView)
}

func TestRenderDocument_NotADocument(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	_, err := r.RenderDocument(p, "S1", "")
	assert.ErrorIs(t, err, model.ErrObjectNotFound)

	_, err = r.RenderDocument(p, "nope", "")
	assert.ErrorIs(t, err, model.ErrObjectNotFound)
}

func TestRenderDocument_NoSections(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	page, err := r.RenderDocument(p, "D2", "")
	require.NoError(t, err)
	assert.NotContains(t, page, `<nav class="toc">`)
	assert.Contains(t, page, "traceability-matrix-table")
}

func TestRenderDocument_Untitled(t *testing.T) {
	doc := model.NewObject("D", model.ClassDocument)
	p, err := model.NewProject("P", doc)
	require.NoError(t, err)

	page, err := NewRenderer(nil).RenderDocument(p, "D", "")
	require.NoError(t, err)
	assert.Contains(t, page, "<title>Untitled document</title>")
}
