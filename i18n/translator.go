// Package i18n provides the key to localized string lookup the renderer
// uses for fixed labels. Dictionaries are flat YAML maps, one file per
// language named <language>.yaml. Lookups never fail: a missing key falls
// back to the default language and then to the key itself.
package i18n

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when a key is missing in the current language.
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var builtin embed.FS

// Translator looks up localized strings.
type Translator struct {
	mu           sync.RWMutex
	language     string
	fallback     string
	dictionaries map[string]map[string]string
	logger       *slog.Logger
}

// New creates a translator for language with the built-in dictionaries
// loaded.
func New(language string, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	if language == "" {
		language = DefaultLanguage
	}

	t := &Translator{
		language:     language,
		fallback:     DefaultLanguage,
		dictionaries: make(map[string]map[string]string),
		logger:       logger,
	}

	entries, err := builtin.ReadDir("locales")
	if err != nil {
		logger.Error("Failed to read built-in dictionaries", "error", err)
		return t
	}
	for _, e := range entries {
		data, err := builtin.ReadFile("locales/" + e.Name())
		if err != nil {
			logger.Error("Failed to read built-in dictionary", "file", e.Name(), "error", err)
			continue
		}
		if err := t.Load(languageOf(e.Name()), data); err != nil {
			logger.Error("Failed to load built-in dictionary", "file", e.Name(), "error", err)
		}
	}
	return t
}

// Load merges a YAML dictionary into language. Later loads override
// earlier keys.
func (t *Translator) Load(language string, data []byte) error {
	var entries map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s dictionary: %w", language, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	dict, ok := t.dictionaries[language]
	if !ok {
		dict = make(map[string]string, len(entries))
		t.dictionaries[language] = dict
	}
	for k, v := range entries {
		dict[k] = v
	}
	return nil
}

// LoadDir merges every *.yaml dictionary found under dir, recursively.
// Returns the number of files loaded.
func (t *Translator) LoadDir(dir string) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{yaml,yml}")
	if err != nil {
		return 0, fmt.Errorf("glob dictionaries in %s: %w", dir, err)
	}
	sort.Strings(matches)

	loaded := 0
	for _, m := range matches {
		path := filepath.Join(dir, m)
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("read dictionary: %w", err)
		}
		if err := t.Load(languageOf(m), data); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		t.logger.Debug("Loaded dictionary", "path", path)
		loaded++
	}
	return loaded, nil
}

// SetLanguage changes the current language.
func (t *Translator) SetLanguage(language string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.language = language
}

// Language returns the current language.
func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.language
}

// Languages returns the languages with a loaded dictionary, sorted.
func (t *Translator) Languages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	langs := make([]string, 0, len(t.dictionaries))
	for l := range t.dictionaries {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Text returns the string for key in the current language, falling back
// to the default language and then to key. Positional placeholders {0},
// {1}, ... are replaced with args.
func (t *Translator) Text(key string, args ...any) string {
	t.mu.RLock()
	text, ok := t.dictionaries[t.language][key]
	if !ok {
		text, ok = t.dictionaries[t.fallback][key]
	}
	t.mu.RUnlock()

	if !ok {
		t.logger.Debug("Missing translation", "key", key, "language", t.Language())
		text = key
	}
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, 2*len(args))
	for i, a := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", fmt.Sprint(a))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// languageOf derives the language from a dictionary file name.
func languageOf(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
