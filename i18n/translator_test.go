package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslator_BuiltinDictionaries(t *testing.T) {
	tr := New("es", nil)

	assert.Equal(t, []string{"en", "es"}, tr.Languages())
	assert.Equal(t, "Índice", tr.Text("document.toc"))
	assert.Equal(t, "Sí", tr.Text("yes"))

	tr.SetLanguage("en")
	assert.Equal(t, "Table of Contents", tr.Text("document.toc"))
}

func TestTranslator_FallsBack(t *testing.T) {
	tr := New("es", nil)

	// Present only in the default language.
	assert.Equal(t, "–", tr.Text("render.empty"))

	// Missing everywhere: the key itself.
	assert.Equal(t, "no.such.key", tr.Text("no.such.key"))

	// Unknown language behaves like an empty dictionary.
	tr.SetLanguage("fr")
	assert.Equal(t, "Table of Contents", tr.Text("document.toc"))
}

func TestTranslator_Placeholders(t *testing.T) {
	tr := New("en", nil)

	got := tr.Text("document.navigation.request.text", "Login", "SRS")
	assert.Equal(t, `Object "Login" belongs to document "SRS". Do you want to open it?`, got)

	got = tr.Text("traceability-matrix.warning.columns", "nonexistent-class")
	assert.Contains(t, got, "nonexistent-class")
}

func TestTranslator_LoadOverrides(t *testing.T) {
	tr := New("en", nil)

	require.NoError(t, tr.Load("en", []byte(`document.toc: "Contents"`)))
	assert.Equal(t, "Contents", tr.Text("document.toc"))

	err := tr.Load("en", []byte("not: [valid"))
	assert.Error(t, err)
}

func TestTranslator_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plugins"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yaml"), []byte(`document.toc: "Inhalt"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugins", "de.yml"), []byte(`use-case: "Anwendungsfall"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	tr := New("de", nil)
	n, err := tr.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "Inhalt", tr.Text("document.toc"))
	assert.Equal(t, "Anwendungsfall", tr.Text("use-case"))
	assert.Contains(t, tr.Languages(), "de")
}
