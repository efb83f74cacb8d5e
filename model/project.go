package model

import (
	"fmt"
	"sync"
)

// Project owns an ordered set of documents and indexes every object by id.
//
// Readers (render passes) hold the read lock through View for the whole
// pass; Replace swaps in a freshly loaded snapshot under the write lock.
type Project struct {
	mu sync.RWMutex

	id         string
	dir        string
	properties []Property
	documents  []*Object
	index      map[string]*Object
}

// NewProject assembles a project from document roots. Every document must
// carry the document class and every id must be unique across the project.
func NewProject(id string, documents ...*Object) (*Project, error) {
	p := &Project{id: id}
	if err := p.setDocuments(documents); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) setDocuments(documents []*Object) error {
	index := make(map[string]*Object)
	index[p.id] = nil

	for _, doc := range documents {
		if !doc.IsDocument() {
			return fmt.Errorf("%w: %s is not a document (classes %v)", ErrInvalidProject, doc.ID, doc.Classes)
		}
		doc.Parent = nil

		stack := []*Object{doc}
		for len(stack) > 0 {
			obj := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if _, dup := index[obj.ID]; dup {
				return fmt.Errorf("%w: duplicate id %q", ErrInvalidProject, obj.ID)
			}
			index[obj.ID] = obj

			for _, child := range obj.Children {
				child.Parent = obj
				stack = append(stack, child)
			}
		}
	}

	delete(index, p.id)
	p.documents = documents
	p.index = index
	return nil
}

// ID returns the project id.
func (p *Project) ID() string { return p.id }

// Dir returns the directory the project was loaded from, if any.
func (p *Project) Dir() string { return p.dir }

// Name returns the project's :Proteus-name, or its id.
func (p *Project) Name() string {
	if prop, ok := p.Property(PropertyName); ok && prop.Value != "" {
		return prop.Value
	}
	return p.id
}

// SetProperty adds or replaces a project-level property.
func (p *Project) SetProperty(prop Property) {
	for i := range p.properties {
		if p.properties[i].Name == prop.Name {
			p.properties[i] = prop
			return
		}
	}
	p.properties = append(p.properties, prop)
}

// Property returns a project-level property.
func (p *Project) Property(name string) (Property, bool) {
	for _, prop := range p.properties {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// Documents returns the documents in project order.
func (p *Project) Documents() []*Object {
	return p.documents
}

// Lookup resolves an object id. The project id itself is not an object.
func (p *Project) Lookup(id string) (*Object, bool) {
	obj := p.index[id]
	return obj, obj != nil
}

// Len returns the number of objects in the project.
func (p *Project) Len() int {
	return len(p.index)
}

// Objects returns every object in document order, depth-first with
// parents before children.
func (p *Project) Objects() []*Object {
	out := make([]*Object, 0, len(p.index))
	for _, doc := range p.documents {
		out = AppendSubtree(out, doc)
	}
	return out
}

// AppendSubtree appends root and its descendants to dst in pre-order.
func AppendSubtree(dst []*Object, root *Object) []*Object {
	stack := []*Object{root}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dst = append(dst, obj)

		// Push in reverse so the first child is visited first.
		for i := len(obj.Children) - 1; i >= 0; i-- {
			stack = append(stack, obj.Children[i])
		}
	}
	return dst
}

// View runs fn while holding the project's read lock. No object may be
// added, removed or mutated while fn runs.
func (p *Project) View(fn func() error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fn()
}

// Replace swaps the content of p with next, typically a project reloaded
// from disk. In-progress views finish on the old snapshot first.
func (p *Project) Replace(next *Project) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.id = next.id
	p.dir = next.dir
	p.properties = next.properties
	p.documents = next.documents
	p.index = next.index
}
