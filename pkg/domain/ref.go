package domain

// When is an execution-timing directive attached to a ProcedureRef.
// Besides the reserved tokens, any other value names an execution context
// understood by the surrounding procedure.
type When string

const (
	// WhenImmediate runs the reference as soon as the client reaches it.
	// This is also the behavior of a reference without a directive.
	WhenImmediate When = "$immediate"
	// WhenNever marks a reference as inert data. The client never runs it.
	WhenNever When = "$never"
	// WhenParent hands the reference to the enclosing procedure, which decides
	// if and when to run it.
	WhenParent When = "$parent"
)

// IsReserved reports whether w is one of the reserved tokens.
func (w When) IsReserved() bool {
	switch w {
	case WhenImmediate, WhenNever, WhenParent:
		return true
	}
	return false
}

// IsDeferred reports whether the client must leave the reference to the
// enclosing procedure instead of running it while resolving input.
func (w When) IsDeferred() bool {
	return w != "" && w != WhenImmediate && w != WhenNever
}

// OutputRef points at the output of a stage that already ran.
// Ref is a dotted address: "<stage>.<property...>" or "$last[.<property...>]".
// It is not validated until resolution.
type OutputRef struct {
	Ref string `json:"$ref" yaml:"$ref" mapstructure:"$ref"`
}

// ProcedureRef is the serializable unit of work.
// Input may contain nested OutputRef and ProcedureRef values.
type ProcedureRef struct {
	Proc  ProcedurePath `json:"$proc" yaml:"$proc" mapstructure:"$proc"`
	Input any           `json:"input" yaml:"input" mapstructure:"input"`
	Name  string        `json:"$name,omitempty" yaml:"$name,omitempty" mapstructure:"$name"`
	When  When          `json:"$when,omitempty" yaml:"$when,omitempty" mapstructure:"$when"`
}

// Label returns the stage name if set, otherwise the dotted procedure path.
func (r ProcedureRef) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Proc.String()
}
