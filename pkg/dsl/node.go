package dsl

import "github.com/aretw0/procflow/pkg/domain"

// Paths of the builtin graph procedures.
var (
	TraversePath    = domain.NewPath("dag", "traverse")
	ConditionalPath = domain.NewPath("client", "conditional")
)

// Stage is anything that can appear in a traversal: a builder, a reference or a plain value.
type Stage interface{}

// Traverse builds a dag.traverse reference visiting stages in order.
// Builders are converted to references; other values are kept as they are.
func Traverse(stages ...Stage) Builder[any] {
	visit := make([]any, 0, len(stages))
	for _, s := range stages {
		visit = append(visit, toValue(s))
	}
	return WithInput(Proc(TraversePath...), any(map[string]any{"visit": visit}))
}

// Conditional builds a client.conditional reference.
// Branch builders without a directive are marked $parent, so only the selected branch runs.
func Conditional(cond any, then, otherwise Stage) Builder[any] {
	input := map[string]any{
		"if":   toValue(cond),
		"then": branch(then),
		"else": branch(otherwise),
	}
	return WithInput(Proc(ConditionalPath...), any(input))
}

func branch(s Stage) any {
	v := toValue(s)
	if ref, ok := v.(domain.ProcedureRef); ok && ref.When == "" {
		ref.When = domain.WhenParent
		return ref
	}
	return v
}

type reffer interface {
	Ref() domain.ProcedureRef
}

func toValue(s Stage) any {
	if r, ok := s.(reffer); ok {
		return r.Ref()
	}
	return s
}
