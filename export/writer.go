package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360studio/proteus/assets"
)

// WriteHTML writes markup to path, creating parent directories.
func WriteHTML(path, markup string) error {
	return writeFile(path, []byte(markup))
}

// Exporter writes rendered documents in one or more formats.
type Exporter struct {
	converter *Converter
	logger    *slog.Logger
}

// NewExporter creates an exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{converter: NewConverter(), logger: logger}
}

// Export writes page as <outDir>/<name><ext> for each format and returns
// the written paths in format order.
func (e *Exporter) Export(outDir, name, page string, formats ...Format) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		info, ok := GetFormatInfo(f)
		if !ok {
			return paths, fmt.Errorf("unsupported export format %q", f)
		}

		data, err := e.encode(f, page)
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", f, err)
		}

		path := filepath.Join(outDir, name+info.Extension)
		if err := writeFile(path, data); err != nil {
			return paths, err
		}
		e.logger.Debug("Exported document", "format", f, "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func (e *Exporter) encode(f Format, page string) ([]byte, error) {
	switch f {
	case FormatHTML:
		return []byte(page), nil
	case FormatMarkdown:
		out, err := e.converter.ToMarkdown(page)
		if err != nil {
			return nil, err
		}
		return []byte(out + "\n"), nil
	case FormatOutline:
		headings, err := Outline(page)
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(headings, "", "  ")
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// CopyAssets copies the project's assets folder next to exported HTML so
// asset references keep resolving. Returns the number of files copied.
func (e *Exporter) CopyAssets(projectDir, outDir string, resolver *assets.Resolver) (int, error) {
	refs, err := resolver.List(projectDir)
	if err != nil {
		return 0, err
	}
	for i, ref := range refs {
		src := filepath.Join(projectDir, filepath.FromSlash(ref))
		dst := filepath.Join(outDir, filepath.FromSlash(ref))
		if err := copyFile(src, dst); err != nil {
			return i, err
		}
	}
	if len(refs) > 0 {
		e.logger.Debug("Copied assets", "count", len(refs), "dir", outDir)
	}
	return len(refs), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy asset: %w", err)
	}
	return out.Close()
}
