// Package query answers the cross-object questions a render pass asks:
// which objects carry a set of classes, and whether one object's subtree
// traces to another's.
//
// An Index is built for one render pass over a project the caller holds
// read-locked. It memoizes subtree aggregates by root id, so it must not
// outlive the snapshot it was built from.
package query

import (
	"github.com/c360studio/proteus/model"
)

// Project is the read-only view an Index needs.
type Project interface {
	Objects() []*model.Object
	Lookup(id string) (*model.Object, bool)
}

// Index resolves class sets and dependencies over one project snapshot.
type Index struct {
	project Project

	// objects in document order, computed on first Resolve.
	objects []*model.Object

	// subtreeIDs[root] is the set of ids in root's subtree, root included.
	subtreeIDs map[string]map[string]struct{}

	// subtreeTargets[root] is the set of trace targets held anywhere in
	// root's subtree.
	subtreeTargets map[string]map[string]struct{}
}

// NewIndex creates an index over p.
func NewIndex(p Project) *Index {
	return &Index{
		project:        p,
		subtreeIDs:     make(map[string]map[string]struct{}),
		subtreeTargets: make(map[string]map[string]struct{}),
	}
}

// Resolve returns every object whose classes intersect tokens, in document
// order (depth-first, parents before children), without duplicates. An
// empty token set matches nothing.
func (ix *Index) Resolve(tokens []string) []*model.Object {
	if len(tokens) == 0 {
		return []*model.Object{}
	}

	wanted := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			wanted[t] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return []*model.Object{}
	}

	if ix.objects == nil {
		ix.objects = ix.project.Objects()
	}

	out := []*model.Object{}
	for _, obj := range ix.objects {
		for _, c := range obj.Classes {
			if _, ok := wanted[c]; ok {
				out = append(out, obj)
				break
			}
		}
	}
	return out
}

// HasDependency reports whether any object in the subtree of sourceID
// (itself included) traces to any object in the subtree of targetID
// (itself included). Only the forward direction is considered. Unknown ids
// yield false.
func (ix *Index) HasDependency(sourceID, targetID string) bool {
	targets, ok := ix.targetsOf(sourceID)
	if !ok || len(targets) == 0 {
		return false
	}
	ids, ok := ix.idsOf(targetID)
	if !ok {
		return false
	}

	// Iterate the smaller set.
	small, large := targets, ids
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if _, hit := large[id]; hit {
			return true
		}
	}
	return false
}

// Dependencies returns the ids among candidates that sourceID depends on,
// in candidate order.
func (ix *Index) Dependencies(sourceID string, candidates []*model.Object) []string {
	var out []string
	for _, c := range candidates {
		if ix.HasDependency(sourceID, c.ID) {
			out = append(out, c.ID)
		}
	}
	return out
}

func (ix *Index) idsOf(rootID string) (map[string]struct{}, bool) {
	if ids, ok := ix.subtreeIDs[rootID]; ok {
		return ids, true
	}
	root, ok := ix.project.Lookup(rootID)
	if !ok || root == nil {
		return nil, false
	}

	ids := make(map[string]struct{})
	walk(root, func(obj *model.Object) {
		ids[obj.ID] = struct{}{}
	})
	ix.subtreeIDs[rootID] = ids
	return ids, true
}

func (ix *Index) targetsOf(rootID string) (map[string]struct{}, bool) {
	if targets, ok := ix.subtreeTargets[rootID]; ok {
		return targets, true
	}
	root, ok := ix.project.Lookup(rootID)
	if !ok || root == nil {
		return nil, false
	}

	targets := make(map[string]struct{})
	walk(root, func(obj *model.Object) {
		for _, t := range obj.Traces() {
			targets[t] = struct{}{}
		}
	})
	ix.subtreeTargets[rootID] = targets
	return targets, true
}

// walk visits root and its descendants with an explicit stack.
func walk(root *model.Object, visit func(*model.Object)) {
	stack := []*model.Object{root}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(obj)
		stack = append(stack, obj.Children...)
	}
}
