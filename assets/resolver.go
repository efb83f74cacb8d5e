// Package assets maps file property values to references inside the
// project's assets folder. References are emitted, never fetched.
package assets

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDir is the project-relative assets folder.
const DefaultDir = "assets"

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".bmp":  true,
}

// Resolver turns file property values into asset references.
type Resolver struct {
	dir string
}

// NewResolver creates a resolver for the given project-relative folder.
func NewResolver(dir string) *Resolver {
	if dir == "" {
		dir = DefaultDir
	}
	return &Resolver{dir: filepath.ToSlash(dir)}
}

// Dir returns the assets folder, relative to the project.
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve returns the reference for value: absolute URLs and rooted paths
// are returned unchanged, anything else is placed under the assets folder.
// Parent segments cannot climb out of the folder. Existence is not checked.
func (r *Resolver) Resolve(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if IsAbsolute(value) {
		return value
	}
	return path.Join(r.dir, path.Clean("/"+filepath.ToSlash(value)))
}

// IsImage reports whether value names an image by its extension.
func (r *Resolver) IsImage(value string) bool {
	if u, err := url.Parse(value); err == nil && u.Scheme != "" {
		value = u.Path
	}
	return imageExtensions[strings.ToLower(path.Ext(value))]
}

// List returns the files under the assets folder of projectDir, as
// references relative to the project. A missing folder yields no files.
func (r *Resolver) List(projectDir string) ([]string, error) {
	root := filepath.Join(projectDir, filepath.FromSlash(r.dir))
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list assets in %s: %w", root, err)
	}
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, path.Join(r.dir, m))
	}
	return refs, nil
}

// IsAbsolute reports whether value is a URL with a scheme or a rooted path.
func IsAbsolute(value string) bool {
	if strings.HasPrefix(value, "/") || strings.HasPrefix(value, "#") {
		return true
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	// A single letter scheme is a Windows drive, not a URL.
	return len(u.Scheme) > 1
}
