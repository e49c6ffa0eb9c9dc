package domain

import (
	"errors"
	"fmt"
)

// ErrProcedureNotFound is returned when a path has no registry entry or the entry has no handler.
var ErrProcedureNotFound = errors.New("procedure not found")

// ErrUnresolvedRef is returned when an OutputRef cannot be resolved against completed stages.
var ErrUnresolvedRef = errors.New("unresolved reference")

// ErrInvalidPath is returned when a procedure path has no segments.
var ErrInvalidPath = errors.New("invalid procedure path")

// ErrInvalidMarker is returned for malformed $proc or $ref objects.
var ErrInvalidMarker = errors.New("invalid reference marker")

// NotFound builds an ErrProcedureNotFound error naming the dotted path.
func NotFound(path ProcedurePath) error {
	return fmt.Errorf("%w: %s", ErrProcedureNotFound, path.String())
}

// Unresolved builds an ErrUnresolvedRef error for ref with the given reason.
func Unresolved(ref string, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrUnresolvedRef, ref, reason)
}
