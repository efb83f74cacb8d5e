package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/proteus/config"
	"github.com/c360studio/proteus/glossary"
	"github.com/c360studio/proteus/metrics"
	"github.com/c360studio/proteus/model"
)

func testConfig() *config.Config {
	return config.DefaultConfig()
}

func TestRender_UnknownRoot(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	for _, id := range []string{"missing", "PRJ", ""} {
		t.Run(id, func(t *testing.T) {
			out, err := r.Render(p, id)
			assert.ErrorIs(t, err, model.ErrObjectNotFound)
			assert.Empty(t, out)
		})
	}
}

func TestRender_ChildOrder(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	out, err := r.Render(p, "D1")
	require.NoError(t, err)

	order := []string{`id="D1"`, `id="S1"`, `id="P1"`, `id="S2"`, `id="UC1"`, `id="ST1"`, `id="UC2"`}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %s", marker)
		assert.Greater(t, idx, last, "%s out of order", marker)
		last = idx
	}
}

func TestRender_UseCaseInterleavedChildren(t *testing.T) {
	uc := named("UC", "Return book", ClassUseCase).
		AddChild(named("A1", "Scan book", ClassUseCaseStep)).
		AddChild(model.NewObject("N1", ClassParagraph)).
		AddChild(named("A2", "Confirm", ClassUseCaseStep))
	p, err := model.NewProject("PRJ", named("D", "SRS", model.ClassDocument).AddChild(uc))
	require.NoError(t, err)

	out, err := NewRenderer(nil).Render(p, "UC")
	require.NoError(t, err)

	a1 := strings.Index(out, `id="A1"`)
	n1 := strings.Index(out, `id="N1"`)
	a2 := strings.Index(out, `id="A2"`)
	require.True(t, a1 >= 0 && n1 >= 0 && a2 >= 0, out)
	assert.Less(t, a1, n1)
	assert.Less(t, n1, a2)

	assert.Equal(t, 2, strings.Count(out, `<ol class="use-case-steps">`))
	assert.Equal(t, 2, strings.Count(out, "</ol>"))
	assert.Less(t, strings.Index(out, "</ol>"), n1, "paragraph sits outside the step list")
}

func TestRender_Idempotent(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil, WithGlossary(true))

	first, err := r.Render(p, "D1")
	require.NoError(t, err)
	second, err := r.Render(p, "D1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	page1, err := r.RenderDocument(p, "D2", "")
	require.NoError(t, err)
	page2, err := r.RenderDocument(p, "D2", "")
	require.NoError(t, err)
	assert.Equal(t, page1, page2)
}

func TestRender_Sections(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	out, err := r.Render(p, "S1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out,
		`<section class="section" id="S1" data-proteus-id="S1" data-proteus-intent="open-properties"><h2>Introduction</h2>`))
	assert.Contains(t, out, "<h3>Nested</h3>")
	assert.Contains(t, out, "<p>The user must <strong>log in</strong>.</p>")
	assert.NotContains(t, out, "glossary-term")
}

func TestRender_UseCase(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	out, err := r.Render(p, "UC1")
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="card use-case" id="UC1"`)
	assert.Contains(t, out, `<caption><span class="card-class">Use case</span> UC-0001 Login</caption>`)
	assert.Contains(t, out, `<tr class="property-priority"><th>Priority</th><td>High</td></tr>`)
	assert.Contains(t, out, `<ol class="use-case-steps"><li class="use-case-step" id="ST1"`)
	assert.Contains(t, out, "<p>Enter the password</p>")
	assert.Contains(t, out,
		`<ul class="traces"><li><a href="#FR1" data-proteus-id="FR1" data-proteus-intent="select-and-navigate" onclick="selectAndNavigate('FR1', event)">Authenticate</a></li></ul>`)
}

func TestRender_MatrixInDocument(t *testing.T) {
	p := srsProject(t)
	r := NewRenderer(nil)

	out, err := r.Render(p, "M1")
	require.NoError(t, err)

	assert.Contains(t, out, `<h4 class="traceability-matrix-title">Use cases vs requirements</h4>`)
	rows := tableRows(t, out)
	require.Len(t, rows, 3)
	assert.Equal(t, "trace", rows[1][1].class)
}

func TestRender_Dispatch(t *testing.T) {
	para := model.NewObject("X1", "custom-note", ClassParagraph)
	para.SetProperty(model.MarkdownProperty(PropertyText, "inherited"))

	child := model.NewObject("X3", ClassParagraph)
	child.SetProperty(model.MarkdownProperty(PropertyText, "inside unknown"))
	unknown := model.NewObject("X2", "never-registered").AddChild(child)

	doc := named("DX", "Dispatch", model.ClassDocument).AddChild(para).AddChild(unknown)
	p, err := model.NewProject("PX", doc)
	require.NoError(t, err)

	r := NewRenderer(nil)

	out, err := r.Render(p, "X1")
	require.NoError(t, err)
	assert.Equal(t,
		`<div class="paragraph" id="X1" data-proteus-id="X1" data-proteus-intent="open-properties"><p>inherited</p></div>`,
		out)

	// The fallback renders the children only.
	out, err = r.Render(p, "X2")
	require.NoError(t, err)
	assert.Equal(t,
		`<div class="paragraph" id="X3" data-proteus-id="X3" data-proteus-intent="open-properties"><p>inside unknown</p></div>`,
		out)
}

func TestRender_RuleIsolation(t *testing.T) {
	text := func(id, s string) *model.Object {
		obj := model.NewObject(id, ClassParagraph)
		obj.SetProperty(model.MarkdownProperty(PropertyText, s))
		return obj
	}

	section := named("S", "Body", ClassSection).
		AddChild(text("A", "before")).
		AddChild(model.NewObject("BOOM", "boom")).
		AddChild(text("B", "between")).
		AddChild(model.NewObject("BAD", "broken").AddChild(text("C", "lost"))).
		AddChild(text("D", "after"))
	doc := named("DI", "Isolation", model.ClassDocument).AddChild(section)

	p, err := model.NewProject("PI", doc)
	require.NoError(t, err)

	registry := DefaultRegistry()
	registry.Register("boom", func(c *Context, obj *model.Object) error {
		c.Write("<p>partial</p>")
		panic("rule exploded")
	})
	registry.Register("broken", func(c *Context, obj *model.Object) error {
		c.RenderChildren(obj)
		return errors.New("missing data")
	})

	reg := prometheus.NewRegistry()
	r := NewRenderer(registry, WithMetrics(metrics.New(reg)))

	out, err := r.Render(p, "DI")
	require.NoError(t, err)

	for _, want := range []string{"<p>before</p>", "<p>between</p>", "<p>after</p>", "<h2>Body</h2>"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "partial")
	assert.NotContains(t, out, "lost")
	assert.Contains(t, out, `<div class="render-error" data-proteus-id="BOOM">This element could not be rendered</div>`)
	assert.Contains(t, out, `<div class="render-error" data-proteus-id="BAD">This element could not be rendered</div>`)
	assert.Less(t, strings.Index(out, "between"), strings.Index(out, `data-proteus-id="BAD"`))

	expected := `
# HELP proteus_rule_failures_total Rule invocations replaced by an error placeholder, by class.
# TYPE proteus_rule_failures_total counter
proteus_rule_failures_total{class="boom"} 1
proteus_rule_failures_total{class="broken"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "proteus_rule_failures_total"))
}

func TestRender_Properties(t *testing.T) {
	obj := named("O1", "Everything", ClassObjective)
	obj.SetProperty(model.BooleanProperty("stable", true))
	obj.SetProperty(model.FileProperty(PropertyFile, "diagram.png"))
	obj.SetProperty(model.FileProperty("attachment", "docs/manual.pdf"))
	obj.SetProperty(model.URLProperty("url", "https://example.org/?a=1&b=2"))
	obj.SetProperty(model.ClassListProperty("kinds", ClassActor, ClassUseCase))
	obj.SetProperty(model.TraceProperty("trace", "missing-target"))
	obj.SetProperty(model.StringProperty("comments", "<b>raw</b>"))
	obj.SetProperty(model.EnumProperty("stability", ""))

	p, err := model.NewProject("PP", named("DP", "Props", model.ClassDocument).AddChild(obj))
	require.NoError(t, err)

	out, err := NewRenderer(nil).Render(p, "O1")
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="card objective" id="O1"`)
	assert.Contains(t, out, "<th>stable</th><td>Yes</td>")
	assert.Contains(t, out, `<img src="assets/diagram.png" alt="diagram.png"/>`)
	assert.Contains(t, out, `<a href="assets/docs/manual.pdf" target="_blank">manual.pdf</a>`)
	assert.Contains(t, out, `<a href="https://example.org/?a=1&amp;b=2" target="_blank" rel="noopener">`)
	assert.Contains(t, out, "<td>Actor, Use case</td>")
	assert.Contains(t, out, `<span class="dangling-trace">missing-target</span>`)
	assert.Contains(t, out, "<td>&lt;b&gt;raw&lt;/b&gt;</td>")
	assert.NotContains(t, out, "property-stability")
}

func TestRender_Glossary(t *testing.T) {
	p := srsProject(t)

	item := model.NewObject("G1", ClassParagraph)
	item.SetProperty(model.StringProperty(model.PropertyName, "user"))
	item.SetProperty(model.MarkdownProperty(PropertyText, "A person using the system"))
	item.SetProperty(model.BooleanProperty(glossary.GlossaryProperty, true))
	doc := named("DG", "Glossary", model.ClassDocument).AddChild(item)

	d1, _ := p.Lookup("D1")
	d2, _ := p.Lookup("D2")
	gp, err := model.NewProject("PRJ", d1, d2, doc)
	require.NoError(t, err)

	out, err := NewRenderer(nil, WithGlossary(true)).Render(gp, "P1")
	require.NoError(t, err)
	assert.Contains(t, out, `class="glossary-term"`)
	assert.Contains(t, out, `href="#G1"`)

	out, err = NewRenderer(nil).Render(gp, "P1")
	require.NoError(t, err)
	assert.NotContains(t, out, "glossary-term")
}

func TestRegistry_Lookup(t *testing.T) {
	fallback := func(c *Context, obj *model.Object) error { return nil }
	r := NewRegistry(fallback)
	r.Register("generic", ParagraphRule)
	r.Register("specific", SectionRule)

	class, _, ok := r.Lookup([]string{"specific", "generic"})
	assert.True(t, ok)
	assert.Equal(t, "specific", class)

	class, _, ok = r.Lookup([]string{"unknown", "generic"})
	assert.True(t, ok)
	assert.Equal(t, "generic", class)

	class, rule, ok := r.Lookup([]string{"unknown"})
	assert.False(t, ok)
	assert.Equal(t, FallbackClass, class)
	assert.NotNil(t, rule)

	_, _, ok = r.Lookup(nil)
	assert.False(t, ok)

	assert.Equal(t, []string{"generic", "specific"}, r.Classes())
}

func TestDefaultRegistry(t *testing.T) {
	classes := DefaultRegistry().Classes()
	for _, want := range []string{
		model.ClassDocument, ClassSection, ClassParagraph, ClassUseCase,
		ClassUseCaseStep, ClassFigure, ClassTraceabilityMatrix, ClassActor,
	} {
		assert.Contains(t, classes, want)
	}
}
