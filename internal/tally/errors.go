package tally

import (
	"errors"
	"fmt"
)

// ErrSealed is returned when a tally is modified after it was serialized.
var ErrSealed = errors.New("tally is sealed after serialization")

// ValidationError reports an entity that violates a model invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DuplicateIDError is returned when a mesh or tally id is registered twice.
type DuplicateIDError struct {
	Kind string // "mesh" or "tally"
	ID   int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %d", e.Kind, e.ID)
}

// DanglingMeshReferenceError is returned when a tally is registered with a
// mesh filter whose mesh is not in the specification.
type DanglingMeshReferenceError struct {
	TallyID int
	MeshID  int
}

func (e *DanglingMeshReferenceError) Error() string {
	return fmt.Sprintf("tally %d: mesh filter references unregistered mesh %d", e.TallyID, e.MeshID)
}

// UnresolvedReferenceError is returned by serialization when a filter or mesh
// referenced from a tally cannot be resolved.
type UnresolvedReferenceError struct {
	TallyID int
	Ref     string // e.g. "mesh 3", "filter[1]"
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("tally %d: unresolved reference to %s", e.TallyID, e.Ref)
}

// IsDuplicateID reports whether err is a DuplicateIDError.
func IsDuplicateID(err error) bool {
	var de *DuplicateIDError
	return errors.As(err, &de)
}

// IsDanglingMeshReference reports whether err is a DanglingMeshReferenceError.
func IsDanglingMeshReference(err error) bool {
	var de *DanglingMeshReferenceError
	return errors.As(err, &de)
}

// IsUnresolvedReference reports whether err is an UnresolvedReferenceError.
func IsUnresolvedReference(err error) bool {
	var ue *UnresolvedReferenceError
	return errors.As(err, &ue)
}
