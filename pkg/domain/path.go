package domain

import (
	"fmt"
	"strings"
)

// ProcedurePath identifies a procedure.
// The first segment is the service name; the remaining segments, joined by ".",
// form the operation name.
type ProcedurePath []string

// NewPath builds a ProcedurePath from the given segments.
// The segments are copied, so later changes to the caller's slice are not observed.
func NewPath(segments ...string) ProcedurePath {
	return ProcedurePath(segments).Clone()
}

// ParsePath splits a dotted path ("dag.traverse") into its segments.
func ParsePath(dotted string) ProcedurePath {
	if dotted == "" {
		return ProcedurePath{}
	}
	return ProcedurePath(strings.Split(dotted, "."))
}

// Service returns the first segment, or "" for an empty path.
func (p ProcedurePath) Service() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Operation returns the remaining segments joined by ".".
func (p ProcedurePath) Operation() string {
	if len(p) < 2 {
		return ""
	}
	return strings.Join(p[1:], ".")
}

// String returns the dotted form of the path.
func (p ProcedurePath) String() string {
	return strings.Join(p, ".")
}

// Clone returns an independent copy of the path.
func (p ProcedurePath) Clone() ProcedurePath {
	if p == nil {
		return nil
	}
	out := make(ProcedurePath, len(p))
	copy(out, p)
	return out
}

// Equal reports whether both paths have the same segments.
func (p ProcedurePath) Equal(other ProcedurePath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Validate checks that the path has at least one segment and that no segment
// is empty or contains ".", so the dotted form maps back to the same segments.
func (p ProcedurePath) Validate() error {
	if len(p) == 0 {
		return ErrInvalidPath
	}
	for i, seg := range p {
		if seg == "" || strings.Contains(seg, ".") {
			return fmt.Errorf("%w: segment %d is %q", ErrInvalidPath, i, seg)
		}
	}
	return nil
}
