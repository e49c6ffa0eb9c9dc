package dsl

import "github.com/aretw0/procflow/pkg/domain"

// Builder describes one procedure reference.
// It is an immutable value: every method returns a new Builder with one field
// replaced, so a Builder can be shared and extended freely.
type Builder[I any] struct {
	path  domain.ProcedurePath
	input I
	name  string
	when  domain.When
}

// Proc returns a builder bound to path with an empty object as input.
func Proc(path ...string) Builder[any] {
	return Builder[any]{
		path:  domain.NewPath(path...),
		input: map[string]any{},
	}
}

// ProcOf returns a builder whose input is statically typed as I.
// The input starts as the zero value of I.
func ProcOf[I any](path ...string) Builder[I] {
	return Builder[I]{path: domain.NewPath(path...)}
}

// WithInput replaces the input and narrows the builder to the type of v.
func WithInput[I, J any](b Builder[I], v J) Builder[J] {
	return Builder[J]{
		path:  b.path,
		input: v,
		name:  b.name,
		when:  b.when,
	}
}

// Input replaces the input payload. It never merges with the previous value.
func (b Builder[I]) Input(v I) Builder[I] {
	b.input = v
	return b
}

// Name sets the stage identifier used as $name and as the head of OutputRef paths.
// Uniqueness is not checked here.
func (b Builder[I]) Name(name string) Builder[I] {
	b.name = name
	return b
}

// When sets the $when directive. The builder does not interpret it.
func (b Builder[I]) When(when domain.When) Builder[I] {
	b.when = when
	return b
}

// Path returns a copy of the procedure path.
func (b Builder[I]) Path() domain.ProcedurePath {
	return b.path.Clone()
}

// Ref returns the reference described by the builder.
// Each call returns a new value with its own copy of the path; the input is
// passed through as is.
func (b Builder[I]) Ref() domain.ProcedureRef {
	return domain.ProcedureRef{
		Proc:  b.path.Clone(),
		Input: b.input,
		Name:  b.name,
		When:  b.when,
	}
}

// Ref wraps path verbatim into an OutputRef.
func Ref(path string) domain.OutputRef {
	return domain.OutputRef{Ref: path}
}

// Last returns a reference to the most recently completed stage,
// optionally followed by property segments.
func Last(segments ...string) domain.OutputRef {
	return Ref(domain.Selector{Kind: domain.SelectLast, Path: segments}.String())
}
