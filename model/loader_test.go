package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeProject(t *testing.T, objects map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, ProjectFileName), `<?xml version="1.0" encoding="utf-8"?>
<project id="proj">
  <properties>
    <stringProperty name=":Proteus-name" category="general">Library</stringProperty>
  </properties>
  <documents>
    <document id="doc"/>
  </documents>
</project>`)

	for id, content := range objects {
		writeFile(t, filepath.Join(dir, ObjectsDir, id+".xml"), content)
	}
	return dir
}

func TestLoadProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"doc": `<object id="doc" classes=":Proteus-document" acceptedChildren=":Proteus-any">
  <properties>
    <stringProperty name=":Proteus-name">SRS</stringProperty>
  </properties>
  <children>
    <child id="uc"/>
    <child id="gone"/>
    <child id="fr"/>
  </children>
</object>`,
		"uc": `<object id="uc" classes="requirement use-case" acceptedChildren="use-case-step">
  <properties>
    <stringProperty name=":Proteus-name">Borrow book</stringProperty>
    <markdownProperty name="description"><![CDATA[A *member* borrows a book.]]></markdownProperty>
    <enumProperty name="priority" choices="low medium high">high</enumProperty>
    <codeProperty name="code"><prefix>UC-</prefix><number>0001</number><suffix></suffix></codeProperty>
    <mysteryProperty name="x">?</mysteryProperty>
  </properties>
  <children>
    <child id="step"/>
  </children>
</object>`,
		"step": `<object id="step" classes="use-case-step" acceptedChildren="">
  <properties>
    <traceProperty name="trace">
      <trace target="fr"/>
      <trace>deleted</trace>
    </traceProperty>
  </properties>
  <children/>
</object>`,
		"fr": `<object id="fr" classes="requirement functional-requirement" acceptedChildren="">
  <properties>
    <classListProperty name="classes"><class>actor</class><class>use-case</class></classListProperty>
    <booleanProperty name="is-glossary">true</booleanProperty>
  </properties>
  <children/>
</object>`,
	})

	p, err := LoadProject(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "proj", p.ID())
	assert.Equal(t, "Library", p.Name())
	assert.Equal(t, dir, p.Dir())
	require.Len(t, p.Documents(), 1)

	doc := p.Documents()[0]
	require.Len(t, doc.Children, 2, "missing child file is skipped")
	assert.Equal(t, "uc", doc.Children[0].ID)
	assert.Equal(t, "fr", doc.Children[1].ID)

	uc, ok := p.Lookup("uc")
	require.True(t, ok)
	assert.Equal(t, []string{"use-case", "requirement"}, uc.Classes, "most specific first")
	assert.Len(t, uc.Properties, 4, "unknown property type is ignored")

	desc, ok := uc.Property("description")
	require.True(t, ok)
	assert.Equal(t, KindMarkdown, desc.Kind)
	assert.Equal(t, "A *member* borrows a book.", desc.Value)

	prio, _ := uc.Property("priority")
	assert.Equal(t, []string{"low", "medium", "high"}, prio.Choices)
	assert.Equal(t, "high", prio.Value)

	code, _ := uc.Property("code")
	assert.Equal(t, "UC-0001", code.Text())

	step, ok := p.Lookup("step")
	require.True(t, ok)
	assert.Equal(t, []string{"fr", "deleted"}, step.Traces())
	assert.Equal(t, "uc", step.Parent.ID)

	fr, _ := p.Lookup("fr")
	classes, _ := fr.Property("classes")
	assert.Equal(t, []string{"actor", "use-case"}, classes.List)
	glossary, _ := fr.Property("is-glossary")
	assert.True(t, glossary.Bool())
}

func TestLoadProject_SkipsUnacceptedChildren(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"doc": `<object id="doc" classes=":Proteus-document" acceptedChildren=":Proteus-any">
  <children>
    <child id="uc"/>
    <child id="loose-step"/>
  </children>
</object>`,
		"uc": `<object id="uc" classes="use-case" acceptedChildren="use-case-step">
  <children>
    <child id="step"/>
    <child id="note"/>
  </children>
</object>`,
		"step": `<object id="step" classes="use-case-step" acceptedChildren="" strictParent="true"><children/></object>`,
		"note": `<object id="note" classes="paragraph" acceptedChildren=""><children><child id="deep"/></children></object>`,
		"deep": `<object id="deep" classes="paragraph" acceptedChildren=""><children/></object>`,
		"loose-step": `<object id="loose-step" classes="use-case-step" acceptedChildren="" strictParent="true"><children/></object>`,
	})

	p, err := LoadProject(dir, nil)
	require.NoError(t, err)

	doc := p.Documents()[0]
	require.Len(t, doc.Children, 1, "strict child is not placed under :Proteus-any")
	assert.Equal(t, "uc", doc.Children[0].ID)

	uc := doc.Children[0]
	require.Len(t, uc.Children, 1)
	assert.Equal(t, "step", uc.Children[0].ID)

	for _, id := range []string{"note", "deep", "loose-step"} {
		_, ok := p.Lookup(id)
		assert.False(t, ok, "%s should not be loaded", id)
	}
	assert.Equal(t, 3, p.Len())
}

func TestLoadProject_MissingProjectFile(t *testing.T) {
	_, err := LoadProject(t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadProject_WrongRootElement(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectFileName), `<object id="x"/>`)

	_, err := LoadProject(dir, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProject))
}

func TestLoadProject_IDMismatch(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"doc": `<object id="other" classes=":Proteus-document"><children/></object>`,
	})

	_, err := LoadProject(dir, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProject))
}
