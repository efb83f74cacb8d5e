// Package config provides configuration loading and management for the
// PROTEUS renderer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownView is returned when a view name is not configured.
var ErrUnknownView = errors.New("unknown view")

// Config represents the complete renderer configuration
type Config struct {
	Settings SettingsConfig        `yaml:"settings"`
	Views    map[string]ViewConfig `yaml:"views"`
	Paths    PathsConfig           `yaml:"paths"`
	Matrix   MatrixConfig          `yaml:"matrix"`
	Watch    WatchConfig           `yaml:"watch"`
	Server   ServerConfig          `yaml:"server"`
}

// SettingsConfig holds user settings
type SettingsConfig struct {
	// Language selects the dictionary used for labels (default: en)
	Language string `yaml:"language"`
	// DefaultView is the view used when none is requested
	DefaultView string `yaml:"default_view"`
}

// ViewConfig describes one way of presenting a document
type ViewConfig struct {
	// Stylesheets are emitted as <link rel="stylesheet"> in the page head
	Stylesheets []string `yaml:"stylesheets"`
	// Scripts are emitted as <script src> in the page head
	Scripts []string `yaml:"scripts"`
	// Glossary enables glossary term highlighting in markdown text
	Glossary bool `yaml:"glossary"`
}

// PathsConfig configures directories
type PathsConfig struct {
	// I18NDir holds extra dictionaries merged over the built-in ones
	I18NDir string `yaml:"i18n_dir"`
	// AssetsDir is the project-relative folder file properties point into
	AssetsDir string `yaml:"assets_dir"`
}

// MatrixConfig configures traceability matrix cells
type MatrixConfig struct {
	// TraceMarker is the cell content for a traced pair
	TraceMarker string `yaml:"trace_marker"`
	// Placeholder is the cell content for an untraced pair
	Placeholder string `yaml:"placeholder"`
}

// WatchConfig configures project reloading
type WatchConfig struct {
	// Debounce is how long to wait for more changes before reloading
	Debounce time.Duration `yaml:"debounce"`
}

// ServerConfig configures the preview server
type ServerConfig struct {
	// Addr is the HTTP listen address
	Addr string `yaml:"addr"`
	// NATSURL enables publishing navigation events when set
	NATSURL string `yaml:"nats_url"`
	// NavigationSubject is the NATS subject for navigation events
	NavigationSubject string `yaml:"navigation_subject"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			Language:    "en",
			DefaultView: "default",
		},
		Views: map[string]ViewConfig{
			"default": {
				Stylesheets: []string{"resources/css/document.css"},
				Scripts:     []string{"resources/js/navigation.js"},
				Glossary:    true,
			},
			"plain": {
				Stylesheets: []string{"resources/css/plain.css"},
			},
		},
		Paths: PathsConfig{
			AssetsDir: "assets",
		},
		Matrix: MatrixConfig{
			TraceMarker: "✔",
			Placeholder: "–",
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8484",
			NavigationSubject: "proteus.navigation",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Settings.Language == "" {
		return fmt.Errorf("settings.language is required")
	}
	if len(c.Views) == 0 {
		return fmt.Errorf("at least one view is required")
	}
	if _, ok := c.Views[c.Settings.DefaultView]; !ok {
		return fmt.Errorf("settings.default_view %q: %w", c.Settings.DefaultView, ErrUnknownView)
	}
	if c.Paths.AssetsDir == "" {
		return fmt.Errorf("paths.assets_dir is required")
	}
	if filepath.IsAbs(c.Paths.AssetsDir) {
		return fmt.Errorf("paths.assets_dir must be relative to the project")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// View returns the named view; an empty name selects the default view.
func (c *Config) View(name string) (ViewConfig, error) {
	if name == "" {
		name = c.Settings.DefaultView
	}
	v, ok := c.Views[name]
	if !ok {
		return ViewConfig{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return v, nil
}

// ViewNames returns the configured view names, sorted.
func (c *Config) ViewNames() []string {
	names := make([]string, 0, len(c.Views))
	for name := range c.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Settings
	if other.Settings.Language != "" {
		c.Settings.Language = other.Settings.Language
	}
	if other.Settings.DefaultView != "" {
		c.Settings.DefaultView = other.Settings.DefaultView
	}

	// Views replace by name
	if len(other.Views) > 0 {
		if c.Views == nil {
			c.Views = make(map[string]ViewConfig, len(other.Views))
		}
		for name, v := range other.Views {
			c.Views[name] = v
		}
	}

	// Paths
	if other.Paths.I18NDir != "" {
		c.Paths.I18NDir = other.Paths.I18NDir
	}
	if other.Paths.AssetsDir != "" {
		c.Paths.AssetsDir = other.Paths.AssetsDir
	}

	// Matrix
	if other.Matrix.TraceMarker != "" {
		c.Matrix.TraceMarker = other.Matrix.TraceMarker
	}
	if other.Matrix.Placeholder != "" {
		c.Matrix.Placeholder = other.Matrix.Placeholder
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.NATSURL != "" {
		c.Server.NATSURL = other.Server.NATSURL
	}
	if other.Server.NavigationSubject != "" {
		c.Server.NavigationSubject = other.Server.NavigationSubject
	}
}
