package model

import "errors"

// Common model errors.
var (
	// ErrObjectNotFound is returned when an id does not resolve to an object.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidProject is returned when a project cannot be assembled,
	// e.g. duplicate ids or a document without the document class.
	ErrInvalidProject = errors.New("invalid project")
)
