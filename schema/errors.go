package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema is matched by every schema construction error.
var ErrInvalidSchema = errors.New("schema: invalid schema")

// DuplicateTypeError is returned when two types share a name or a type tag.
type DuplicateTypeError struct {
	Name string
	Tag  string
}

// Error implements the error interface.
func (e *DuplicateTypeError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("schema: type %q reuses type tag %q", e.Name, e.Tag)
	}
	return fmt.Sprintf("schema: duplicate type %q", e.Name)
}

// Is reports whether the target matches ErrInvalidSchema.
func (e *DuplicateTypeError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// TypeError describes an invalid entity type.
type TypeError struct {
	Type    string
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("schema: type %q: %s", e.Type, e.Message)
}

// Is reports whether the target matches ErrInvalidSchema.
func (e *TypeError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// AssociationError describes an invalid association declaration.
type AssociationError struct {
	Type        string
	Association string
	Message     string
}

// Error implements the error interface.
func (e *AssociationError) Error() string {
	var b strings.Builder
	b.WriteString("schema: association ")
	b.WriteString(e.Type)
	if e.Type != "" && e.Association != "" {
		b.WriteString(".")
	}
	b.WriteString(e.Association)
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is reports whether the target matches ErrInvalidSchema.
func (e *AssociationError) Is(target error) bool {
	return target == ErrInvalidSchema
}
