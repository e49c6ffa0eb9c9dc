package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/procflow/pkg/domain"
)

// Kind classifies an Issue.
type Kind string

const (
	KindDuplicateName    Kind = "duplicate-name"
	KindUnknownStage     Kind = "unknown-stage"
	KindForwardRef       Kind = "forward-ref"
	KindLastBeforeStage  Kind = "last-before-stage"
	KindUnknownProcedure Kind = "unknown-procedure"
	KindInvalidPath      Kind = "invalid-path"
)

// Issue is one problem found in a call graph.
type Issue struct {
	Kind    Kind
	Stage   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
}

// Lookup reports whether a procedure with a handler exists at path.
type Lookup func(path domain.ProcedurePath) bool

// ValidateGraph checks ref and returns an error listing every issue found.
func ValidateGraph(ref domain.ProcedureRef, lookup Lookup) error {
	issues := Check(ref, lookup)
	if len(issues) == 0 {
		return nil
	}
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(issues), strings.Join(lines, "\n- "))
}

// Check walks ref in execution order and reports every issue.
// Immediate references are visited before their parent completes; references
// deferred to a parent are assumed to run in declaration order while the parent runs.
// A nil lookup skips the procedure existence check.
func Check(ref domain.ProcedureRef, lookup Lookup) []Issue {
	w := &walker{
		lookup:    lookup,
		declared:  make(map[string]int),
		completed: make(map[string]bool),
	}
	w.declare(ref)

	names := make([]string, 0, len(w.declared))
	for name, n := range w.declared {
		if n > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.report(KindDuplicateName, name, "stage %q is declared %d times; later references see the last one", name, w.declared[name])
	}

	w.stage(ref)
	return w.issues
}

type walker struct {
	lookup    Lookup
	declared  map[string]int
	completed map[string]bool
	hasLast   bool
	issues    []Issue
}

func (w *walker) report(kind Kind, stage, format string, args ...any) {
	w.issues = append(w.issues, Issue{Kind: kind, Stage: stage, Message: fmt.Sprintf(format, args...)})
}

func (w *walker) declare(ref domain.ProcedureRef) {
	if ref.Name != "" {
		w.declared[ref.Name]++
	}
	eachRef(ref.Input, func(child domain.ProcedureRef) { w.declare(child) })
}

func (w *walker) stage(ref domain.ProcedureRef) {
	if ref.When == domain.WhenNever {
		return
	}

	if len(ref.Proc) == 0 || ref.Proc[0] == "" {
		w.report(KindInvalidPath, ref.Name, "stage %q has an empty procedure path", ref.Label())
	} else if w.lookup != nil && !w.lookup(ref.Proc) {
		w.report(KindUnknownProcedure, ref.Name, "procedure not found: %s", ref.Proc)
	}

	var deferred []domain.ProcedureRef
	w.input(ref.Input, &deferred)
	for _, child := range deferred {
		w.stage(child)
	}

	if ref.Name != "" {
		w.completed[ref.Name] = true
	}
	w.hasLast = true
}

func (w *walker) input(v any, deferred *[]domain.ProcedureRef) {
	switch x := v.(type) {
	case domain.OutputRef:
		w.output(x)
	case *domain.OutputRef:
		if x != nil {
			w.output(*x)
		}
	case domain.ProcedureRef:
		w.child(x, deferred)
	case *domain.ProcedureRef:
		if x != nil {
			w.child(*x, deferred)
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.input(x[k], deferred)
		}
	case []any:
		for _, item := range x {
			w.input(item, deferred)
		}
	case []domain.ProcedureRef:
		for _, item := range x {
			w.child(item, deferred)
		}
	case []domain.OutputRef:
		for _, item := range x {
			w.output(item)
		}
	}
}

func (w *walker) child(ref domain.ProcedureRef, deferred *[]domain.ProcedureRef) {
	switch {
	case ref.When == domain.WhenNever:
	case ref.When.IsDeferred():
		*deferred = append(*deferred, ref)
	default:
		w.stage(ref)
	}
}

func (w *walker) output(ref domain.OutputRef) {
	sel := ref.Selector()
	if sel.Kind == domain.SelectLast {
		if !w.hasLast {
			w.report(KindLastBeforeStage, "", "%q is used before any stage completes", ref.Ref)
		}
		return
	}
	if w.completed[sel.Stage] {
		return
	}
	if w.declared[sel.Stage] > 0 {
		w.report(KindForwardRef, sel.Stage, "%q refers to stage %q before it runs", ref.Ref, sel.Stage)
		return
	}
	w.report(KindUnknownStage, sel.Stage, "%q refers to unknown stage %q", ref.Ref, sel.Stage)
}

func eachRef(v any, fn func(domain.ProcedureRef)) {
	switch x := v.(type) {
	case domain.ProcedureRef:
		fn(x)
	case *domain.ProcedureRef:
		if x != nil {
			fn(*x)
		}
	case map[string]any:
		for _, item := range x {
			eachRef(item, fn)
		}
	case []any:
		for _, item := range x {
			eachRef(item, fn)
		}
	case []domain.ProcedureRef:
		for _, item := range x {
			fn(item)
		}
	}
}
