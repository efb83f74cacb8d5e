// Package model provides the read-only object tree the renderer walks:
// objects with class tags, typed properties and ordered children, grouped
// into documents owned by a project.
package model

// Well-known class tags and property names.
const (
	// ClassDocument marks the root object of a document.
	ClassDocument = ":Proteus-document"

	// ClassAny is accepted by parents that take any non-strict child.
	ClassAny = ":Proteus-any"

	// PropertyName is the display name property every object carries.
	PropertyName = ":Proteus-name"
)

// Object is a node in a project's document tree.
type Object struct {
	ID string

	// Classes is ordered most specific first.
	Classes []string

	// AcceptedChildren lists the class tags this object accepts as children.
	AcceptedChildren []string

	// StrictParent objects only go under parents that name their class.
	StrictParent bool

	Properties []Property
	Children   []*Object

	// Parent is nil for documents.
	Parent *Object
}

// NewObject creates an object with the given classes, most specific first.
func NewObject(id string, classes ...string) *Object {
	return &Object{
		ID:      id,
		Classes: append([]string(nil), classes...),
	}
}

// AddChild appends child and sets its parent.
func (o *Object) AddChild(child *Object) *Object {
	child.Parent = o
	o.Children = append(o.Children, child)
	return o
}

// SetProperty adds p or replaces the property with the same name,
// keeping its position.
func (o *Object) SetProperty(p Property) *Object {
	for i := range o.Properties {
		if o.Properties[i].Name == p.Name {
			o.Properties[i] = p
			return o
		}
	}
	o.Properties = append(o.Properties, p)
	return o
}

// Property returns the property with the given name.
func (o *Object) Property(name string) (Property, bool) {
	for _, p := range o.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Name returns the :Proteus-name property value, or the id when unset.
func (o *Object) Name() string {
	if p, ok := o.Property(PropertyName); ok && p.Value != "" {
		return p.Value
	}
	return o.ID
}

// HasClass reports whether the object carries the class tag.
func (o *Object) HasClass(class string) bool {
	for _, c := range o.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// IsDocument reports whether the object is a document root.
func (o *Object) IsDocument() bool {
	return o.HasClass(ClassDocument)
}

// Document returns the document that owns o, walking up the parents.
// Returns nil for a detached object.
func (o *Object) Document() *Object {
	for cur := o; cur != nil; cur = cur.Parent {
		if cur.IsDocument() {
			return cur
		}
	}
	return nil
}

// Traces returns the target ids of every trace property on o, in property
// order. Duplicates are kept.
func (o *Object) Traces() []string {
	var targets []string
	for _, p := range o.Properties {
		if p.Kind == KindTrace {
			targets = append(targets, p.List...)
		}
	}
	return targets
}

// AcceptsChild reports whether child may be added under o: its most
// specific class is accepted explicitly, or o accepts :Proteus-any and the
// child is not strict about its parent.
func (o *Object) AcceptsChild(child *Object) bool {
	if len(child.Classes) == 0 {
		return false
	}
	for _, accepted := range o.AcceptedChildren {
		if accepted == child.Classes[0] {
			return true
		}
		if accepted == ClassAny && !child.StrictParent {
			return true
		}
	}
	return false
}
