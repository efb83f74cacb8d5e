// Package watch reloads a project when its files change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/proteus/model"
)

// Patterns of project files whose changes trigger a reload, relative to
// the project directory.
var Patterns = []string{
	model.ProjectFileName,
	model.ObjectsDir + "/**/*.xml",
}

// WatcherConfig configures the project watcher
type WatcherConfig struct {
	// ProjectDir is the directory holding proteus.xml
	ProjectDir string

	// DebounceDelay is how long to wait for more changes before reloading
	DebounceDelay time.Duration

	// OnReload is called after a successful reload, with the project
	// already swapped. Optional.
	OnReload func(ctx context.Context, p *model.Project)

	// Logger for logging events
	Logger *slog.Logger
}

// ReloadEvent reports one reload attempt
type ReloadEvent struct {
	// Paths are the changed files, relative to the project directory
	Paths []string

	// Objects is the object count of the reloaded project
	Objects int

	// Error if loading failed; the previous snapshot is kept
	Error error
}

// Watcher watches a project directory and swaps reloaded snapshots into
// a live project
type Watcher struct {
	config  WatcherConfig
	project *model.Project
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before reloading
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Content hashes, to ignore events that did not change a file
	hashMu sync.Mutex
	hashes map[string]string

	events chan ReloadEvent
	once   sync.Once
}

// NewWatcher creates a watcher that reloads into project
func NewWatcher(project *model.Project, config WatcherConfig) (*Watcher, error) {
	if config.ProjectDir == "" {
		config.ProjectDir = project.Dir()
	}
	if config.ProjectDir == "" {
		return nil, errors.New("project directory is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		project: project,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan ReloadEvent, 16),
	}, nil
}

// Events returns the channel of reload events
func (w *Watcher) Events() <-chan ReloadEvent {
	return w.events
}

// Start begins watching. Processing stops when ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	root := w.config.ProjectDir
	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	w.addObjectsDir()
	w.seedHashes()

	go w.processEvents(ctx)

	w.logger.Info("Project watcher started",
		"dir", root,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) addObjectsDir() {
	dir := filepath.Join(w.config.ProjectDir, model.ObjectsDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("Failed to watch directory", "path", dir, "error", err)
		return
	}
	w.logger.Debug("Watching directory", "path", dir)
}

// seedHashes records the current content of every watched file.
func (w *Watcher) seedHashes() {
	fsys := os.DirFS(w.config.ProjectDir)
	for _, pattern := range Patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			continue
		}
		for _, rel := range matches {
			if hash, err := hashFile(filepath.Join(w.config.ProjectDir, filepath.FromSlash(rel))); err == nil {
				w.setHash(rel, hash)
			}
		}
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.config.ProjectDir, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	// The objects folder may be created after the watcher started.
	if rel == model.ObjectsDir && event.Has(fsnotify.Create) {
		w.addObjectsDir()
		return
	}
	if !Matches(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Project file change detected", "path", rel, "op", event.Op.String())
}

// Matches reports whether a project-relative path is a watched file.
func Matches(rel string) bool {
	for _, pattern := range Patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed []string
	for rel, op := range toProcess {
		path := filepath.Join(w.config.ProjectDir, filepath.FromSlash(rel))

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			w.deleteHash(rel)
			changed = append(changed, rel)
			continue
		}

		hash, err := hashFile(path)
		if err != nil {
			w.deleteHash(rel)
			changed = append(changed, rel)
			continue
		}
		if old, ok := w.getHash(rel); ok && old == hash {
			continue
		}
		w.setHash(rel, hash)
		changed = append(changed, rel)
	}
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	w.reload(ctx, changed)
}

// reload loads the project from disk and swaps it in. A failed load
// keeps the current snapshot.
func (w *Watcher) reload(ctx context.Context, changed []string) {
	event := ReloadEvent{Paths: changed}

	next, err := model.LoadProject(w.config.ProjectDir, w.logger)
	if err != nil {
		w.logger.Error("Project reload failed, keeping previous snapshot",
			"dir", w.config.ProjectDir, "error", err)
		event.Error = err
		w.sendEvent(event)
		return
	}

	w.project.Replace(next)
	event.Objects = next.Len()
	w.logger.Info("Project reloaded", "changed", len(changed), "objects", event.Objects)

	if w.config.OnReload != nil {
		w.config.OnReload(ctx, w.project)
	}
	w.sendEvent(event)
}

func (w *Watcher) sendEvent(event ReloadEvent) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("Event channel full, dropping reload event", "paths", event.Paths)
	}
}

func (w *Watcher) getHash(rel string) (string, bool) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	h, ok := w.hashes[rel]
	return h, ok
}

func (w *Watcher) setHash(rel, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[rel] = hash
}

func (w *Watcher) deleteHash(rel string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	delete(w.hashes, rel)
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
