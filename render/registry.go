package render

import (
	"sort"
	"sync"

	"github.com/c360studio/proteus/model"
)

// Rule renders one object into the context's current buffer. Rules that
// want children rendered call c.RenderChildren themselves.
type Rule func(c *Context, obj *model.Object) error

// FallbackClass labels objects no registered rule matched.
const FallbackClass = "*"

// Registry maps class tags to rules. Dispatch walks an object's classes
// most specific first and uses the first registered rule; objects without
// one get the fallback rule.
// Thread-safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]Rule
	fallback Rule
}

// NewRegistry creates an empty registry. A nil fallback renders children
// only.
func NewRegistry(fallback Rule) *Registry {
	if fallback == nil {
		fallback = ChildrenRule
	}
	return &Registry{
		rules:    make(map[string]Rule),
		fallback: fallback,
	}
}

// Register sets the rule for class, replacing any previous one.
func (r *Registry) Register(class string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[class] = rule
}

// Lookup returns the class and rule used for an object with the given
// classes. When no class has a rule it returns FallbackClass, the fallback
// rule and false.
func (r *Registry) Lookup(classes []string) (string, Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, class := range classes {
		if rule, ok := r.rules[class]; ok {
			return class, rule, true
		}
	}
	return FallbackClass, r.fallback, false
}

// Classes returns the classes with a registered rule, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	classes := make([]string, 0, len(r.rules))
	for class := range r.rules {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// DefaultRegistry returns a registry with the built-in rules for the
// standard document classes.
func DefaultRegistry() *Registry {
	r := NewRegistry(ChildrenRule)

	r.Register(model.ClassDocument, DocumentRule)
	r.Register(ClassSection, SectionRule)
	r.Register(ClassParagraph, ParagraphRule)
	r.Register(ClassUseCase, UseCaseRule)
	r.Register(ClassUseCaseStep, UseCaseStepRule)
	r.Register(ClassFigure, FigureRule)
	r.Register(ClassTraceabilityMatrix, MatrixRule)

	for _, class := range []string{
		ClassObjective,
		ClassActor,
		ClassFunctionalRequirement,
		ClassNonFunctionalRequirement,
		ClassInformationRequirement,
	} {
		r.Register(class, CardRule)
	}
	return r
}
