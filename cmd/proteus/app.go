package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/proteus/assets"
	"github.com/c360studio/proteus/config"
	"github.com/c360studio/proteus/i18n"
	"github.com/c360studio/proteus/metrics"
	"github.com/c360studio/proteus/model"
	"github.com/c360studio/proteus/navigation"
	"github.com/c360studio/proteus/render"
	"github.com/c360studio/proteus/watch"
)

// App wires a loaded project to the rendering stack.
type App struct {
	cfg        *config.Config
	project    *model.Project
	translator *i18n.Translator
	assets     *assets.Resolver
	registry   *prometheus.Registry
	renderer   *render.Renderer
	logger     *slog.Logger
}

// NewApp loads configuration and the project in projectDir.
func NewApp(projectDir, configPath string, logger *slog.Logger) (*App, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat project path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	cfg, err := config.NewLoader(logger).WithStartDir(absDir).Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	translator := i18n.New(cfg.Settings.Language, logger)
	if dir := cfg.Paths.I18NDir; dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(absDir, dir)
		}
		n, err := translator.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("load dictionaries: %w", err)
		}
		logger.Debug("Loaded dictionaries", "dir", dir, "count", n)
	}

	project, err := model.LoadProject(absDir, logger)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	resolver := assets.NewResolver(cfg.Paths.AssetsDir)

	renderer := render.NewRenderer(nil,
		render.WithConfig(cfg),
		render.WithTranslator(translator),
		render.WithAssets(resolver),
		render.WithMetrics(m),
		render.WithLogger(logger),
	)

	return &App{
		cfg:        cfg,
		project:    project,
		translator: translator,
		assets:     resolver,
		registry:   reg,
		renderer:   renderer,
		logger:     logger,
	}, nil
}

// Dir returns the project directory.
func (a *App) Dir() string {
	return a.project.Dir()
}

// Publisher connects the configured NATS publisher. It returns nil when
// no NATS url is configured.
func (a *App) Publisher() (*navigation.NATSPublisher, error) {
	if a.cfg.Server.NATSURL == "" {
		return nil, nil
	}
	return navigation.ConnectNATS(a.cfg.Server.NATSURL, a.cfg.Server.NavigationSubject, a.logger)
}

// Watch reloads the project on file changes until ctx is done. onReload
// runs after each successful reload.
func (a *App) Watch(ctx context.Context, onReload func(ctx context.Context, p *model.Project)) (*watch.Watcher, error) {
	w, err := watch.NewWatcher(a.project, watch.WatcherConfig{
		ProjectDir:    a.Dir(),
		DebounceDelay: a.cfg.Watch.Debounce,
		OnReload:      onReload,
		Logger:        a.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}
