// Package main provides the proteus binary entry point.
// Proteus renders PROTEUS requirement projects to HTML documents with
// traceability matrices and in-document navigation.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/proteus/export"
	"github.com/c360studio/proteus/model"
	"github.com/c360studio/proteus/navigation"
	"github.com/c360studio/proteus/server"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "proteus"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	projectPath string
	configPath  string
	logLevel    string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Render PROTEUS requirement projects",
		Long: `Proteus renders PROTEUS requirement projects to HTML.

It provides:
- Document pages with table of contents and glossary highlighting
- Traceability matrices between any two class sets
- Export to HTML, Markdown and outline JSON
- A preview server with live reload and navigation events`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.projectPath, "project", "p", ".", "Project directory (holding proteus.xml)")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		documentsCmd(&flags),
		renderCmd(&flags),
		fragmentCmd(&flags),
		matrixCmd(&flags),
		viewsCmd(&flags),
		exportCmd(&flags),
		watchCmd(&flags),
		serveCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// newLogger configures logging on stderr.
func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func (f *globalFlags) app(cmd *cobra.Command) (*App, error) {
	logger := newLogger(f.logLevel, cmd.ErrOrStderr())
	return NewApp(f.projectPath, f.configPath, logger)
}

func documentsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List the project's documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return app.project.View(func() error {
				for _, doc := range app.project.Documents() {
					fmt.Fprintf(out, "%s\t%s\n", doc.ID, doc.Name())
				}
				return nil
			})
		},
	}
}

func renderCmd(flags *globalFlags) *cobra.Command {
	var view, outPath string

	cmd := &cobra.Command{
		Use:   "render <document-id>",
		Short: "Render a document as a complete HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}
			page, err := app.renderer.RenderDocument(app.project, args[0], view)
			if err != nil {
				return err
			}
			if outPath != "" {
				return export.WriteHTML(outPath, page)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), page)
			return err
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "View name (default from settings)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func fragmentCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fragment <object-id>",
		Short: "Render one object subtree as an HTML fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}
			fragment, err := app.renderer.Render(app.project, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), fragment)
			return err
		},
	}
}

func matrixCmd(flags *globalFlags) *cobra.Command {
	var cols, rows string

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Render a traceability matrix between two class sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}
			out := app.renderer.BuildMatrix(app.project, server.SplitTokens(cols), server.SplitTokens(rows))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVar(&cols, "cols", "", "Column classes, comma separated")
	cmd.Flags().StringVar(&rows, "rows", "", "Row classes, comma separated")
	return cmd
}

func viewsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the configured views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}
			for _, name := range app.renderer.Views() {
				marker := " "
				if name == app.cfg.Settings.DefaultView {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var (
		view       string
		outDir     string
		formats    []string
		copyAssets bool
	)

	cmd := &cobra.Command{
		Use:   "export <document-id>",
		Short: "Export a document to files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}

			parsed := make([]export.Format, 0, len(formats))
			for _, f := range formats {
				format, err := export.ParseFormat(f)
				if err != nil {
					return err
				}
				parsed = append(parsed, format)
			}

			page, err := app.renderer.RenderDocument(app.project, args[0], view)
			if err != nil {
				return err
			}

			exporter := export.NewExporter(app.logger)
			paths, err := exporter.Export(outDir, args[0], page, parsed...)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}

			if copyAssets {
				n, err := exporter.CopyAssets(app.Dir(), outDir, app.assets)
				if err != nil {
					return fmt.Errorf("copy assets: %w", err)
				}
				app.logger.Info("Copied assets", "count", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "View name (default from settings)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "dist", "Output directory")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{string(export.FormatHTML)}, "Formats: html, markdown, outline")
	cmd.Flags().BoolVar(&copyAssets, "assets", false, "Copy the project's assets folder")
	return cmd
}

func watchCmd(flags *globalFlags) *cobra.Command {
	var view, outPath string

	cmd := &cobra.Command{
		Use:   "watch <document-id>",
		Short: "Re-render a document whenever the project changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = args[0] + ".html"
			}

			write := func() {
				page, err := app.renderer.RenderDocument(app.project, args[0], view)
				if err != nil {
					app.logger.Error("Render failed", "document", args[0], "error", err)
					return
				}
				if err := export.WriteHTML(outPath, page); err != nil {
					app.logger.Error("Write failed", "path", outPath, "error", err)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			}
			write()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			w, err := app.Watch(ctx, func(context.Context, *model.Project) { write() })
			if err != nil {
				return err
			}
			defer w.Stop()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "View name (default from settings)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default <document-id>.html)")
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr    string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered documents over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := flags.app(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.cfg.Server.Addr
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			opts := []navigation.Option{
				navigation.WithTranslator(app.translator),
				navigation.WithLogger(app.logger),
			}
			publisher, err := app.Publisher()
			if err != nil {
				// Navigation still works locally.
				app.logger.Warn("NATS unavailable, navigation events disabled", "error", err)
			} else if publisher != nil {
				defer publisher.Close()
				opts = append(opts, navigation.WithPublisher(publisher))
			}

			var (
				state *navigation.State
				name  string
			)
			_ = app.project.View(func() error {
				name = app.project.Name()
				docs := app.project.Documents()
				if len(docs) > 0 {
					state = navigation.NewState(docs[0].ID)
				} else {
					state = navigation.NewState("")
				}
				return nil
			})
			dispatcher := navigation.NewDispatcher(app.project, state, opts...)

			if !noWatch {
				w, err := app.Watch(ctx, nil)
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			srv := server.New(app.project, app.renderer, dispatcher, app.registry, app.logger)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", name, addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the project on changes")
	return cmd
}
