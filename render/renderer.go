// Package render turns a project's object tree into HTML.
//
// A render pass holds the project's read lock, builds one query index for
// the pass and dispatches every object to the rule registered for its most
// specific class. Rules are isolated from each other: a rule that fails or
// panics is replaced by an error placeholder and its siblings still render.
package render

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/proteus/assets"
	"github.com/c360studio/proteus/config"
	"github.com/c360studio/proteus/glossary"
	"github.com/c360studio/proteus/i18n"
	"github.com/c360studio/proteus/markup"
	"github.com/c360studio/proteus/metrics"
	"github.com/c360studio/proteus/model"
	"github.com/c360studio/proteus/query"
)

// FragmentView labels fragment renders in metrics.
const FragmentView = "fragment"

// Translator looks up localized labels. Missing keys return the key.
type Translator interface {
	Text(key string, args ...any) string
}

// Renderer renders projects to HTML. It keeps no per-project state, so one
// Renderer can serve any number of projects.
type Renderer struct {
	registry   *Registry
	translator Translator
	assets     *assets.Resolver
	config     *config.Config
	metrics    *metrics.Metrics
	logger     *slog.Logger
	glossary   bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTranslator sets the label translator.
func WithTranslator(t Translator) Option {
	return func(r *Renderer) {
		r.translator = t
	}
}

// WithAssets sets the asset resolver for file properties.
func WithAssets(a *assets.Resolver) Option {
	return func(r *Renderer) {
		r.assets = a
	}
}

// WithConfig sets the configuration providing views and matrix cells.
func WithConfig(cfg *config.Config) Option {
	return func(r *Renderer) {
		r.config = cfg
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithGlossary enables glossary highlighting for fragment renders.
// Document renders follow the view's setting.
func WithGlossary(enabled bool) Option {
	return func(r *Renderer) {
		r.glossary = enabled
	}
}

// NewRenderer creates a renderer dispatching through registry. A nil
// registry uses DefaultRegistry.
func NewRenderer(registry *Registry, opts ...Option) *Renderer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	r := &Renderer{
		registry: registry,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.config == nil {
		r.config = config.DefaultConfig()
	}
	if r.translator == nil {
		r.translator = i18n.New(r.config.Settings.Language, r.logger)
	}
	if r.assets == nil {
		r.assets = assets.NewResolver(r.config.Paths.AssetsDir)
	}
	return r
}

// Registry returns the renderer's rule registry.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// Render renders the subtree rooted at rootID. The only error is an
// unknown root, wrapping model.ErrObjectNotFound; content problems are
// rendered as inline warnings or error placeholders.
func (r *Renderer) Render(p *model.Project, rootID string) (string, error) {
	start := time.Now()

	var out string
	err := p.View(func() error {
		root, ok := p.Lookup(rootID)
		if !ok {
			return fmt.Errorf("render %s: %w", rootID, model.ErrObjectNotFound)
		}
		c := r.newContext(p, r.glossary)
		c.RenderObject(root)
		out = c.out.String()
		c.done(root, start)
		return nil
	})
	if err != nil {
		return "", err
	}

	r.metrics.ObserveRender(FragmentView, time.Since(start))
	return out, nil
}

func (r *Renderer) newContext(p *model.Project, withGlossary bool) *Context {
	c := &Context{
		r:       r,
		project: p,
		index:   query.NewIndex(p),
		passID:  uuid.New().String(),
		out:     &strings.Builder{},
	}
	if withGlossary {
		c.glossary = glossary.New(p, r.logger)
	}
	r.logger.Debug("Render pass started", "pass", c.passID, "project", p.ID())
	return c
}

// Context is the state of one render pass. Rules write markup into it and
// use it to recurse, look up labels and query the project.
type Context struct {
	r        *Renderer
	project  *model.Project
	index    *query.Index
	glossary *glossary.Highlighter
	passID   string

	out *strings.Builder

	// depth is the section nesting level, used for heading levels.
	depth int

	failures int
}

// Project returns the project being rendered.
func (c *Context) Project() *model.Project { return c.project }

// Index returns the pass's query index.
func (c *Context) Index() *query.Index { return c.index }

// Depth returns the current section nesting level.
func (c *Context) Depth() int { return c.depth }

// Write appends raw markup.
func (c *Context) Write(s string) {
	c.out.WriteString(s)
}

// Writef appends formatted raw markup.
func (c *Context) Writef(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Text returns the localized label for key.
func (c *Context) Text(key string, args ...any) string {
	return c.r.translator.Text(key, args...)
}

// RenderObject dispatches obj to its rule. The rule's output is kept only
// if it succeeds; otherwise an error placeholder takes its place.
func (c *Context) RenderObject(obj *model.Object) {
	class, rule, _ := c.r.registry.Lookup(obj.Classes)

	parent, depth := c.out, c.depth
	buf := &strings.Builder{}
	c.out = buf

	err := invoke(rule, c, obj)

	c.out, c.depth = parent, depth
	if err != nil {
		c.failures++
		c.r.logger.Warn("Rule failed",
			"pass", c.passID, "id", obj.ID, "class", class, "error", err)
		c.r.metrics.RuleFailed(class)
		c.writeError(obj)
		return
	}
	c.out.WriteString(buf.String())
}

// RenderChildren renders the children of obj in order.
func (c *Context) RenderChildren(obj *model.Object) {
	for _, child := range obj.Children {
		c.RenderObject(child)
	}
}

func invoke(rule Rule, c *Context, obj *model.Object) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return rule(c, obj)
}

func (c *Context) writeError(obj *model.Object) {
	c.Writef(`<div class="render-error" %s="%s">%s</div>`,
		markup.AttrID, markup.Escape(obj.ID), markup.Escape(c.Text("render.error")))
}

func (c *Context) done(root *model.Object, start time.Time) {
	c.r.logger.Debug("Render pass finished",
		"pass", c.passID,
		"root", root.ID,
		"failures", c.failures,
		"duration", time.Since(start))
}
