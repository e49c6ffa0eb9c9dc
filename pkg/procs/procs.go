package procs

import (
	"context"
	"fmt"
	"reflect"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/registry"
)

// Paths of the builtin procedures.
var (
	EchoPath        = domain.NewPath("echo")
	TraversePath    = domain.NewPath("dag", "traverse")
	ConditionalPath = domain.NewPath("client", "conditional")
)

// Register installs the builtin procedures into reg.
func Register(reg *registry.Registry) error {
	builtins := []struct {
		path domain.ProcedurePath
		h    registry.Handler
		desc string
	}{
		{EchoPath, Echo, "Returns its input unchanged."},
		{TraversePath, Traverse, "Visits each entry of `visit` in order and returns the list of outputs.\n\nDeferred references are executed; `$never` references are skipped."},
		{ConditionalPath, Conditional, "Evaluates `if` and returns the `then` or `else` branch.\n\nA branch marked `$parent` only runs when selected."},
	}
	for _, b := range builtins {
		if err := reg.Register(b.path, b.h, registry.WithDescription(b.desc)); err != nil {
			return err
		}
	}
	return nil
}

// Echo returns its input.
func Echo(ctx context.Context, input any, call *registry.CallContext) (any, error) {
	return input, nil
}

// Traverse implements dag.traverse.
// Input: {"visit": [...]}. Entries reach the handler already resolved, except
// references deferred to it, which run here in declaration order.
func Traverse(ctx context.Context, input any, call *registry.CallContext) (any, error) {
	obj, ok := input.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("dag.traverse: input must be an object, got %T", input)
	}
	visit, ok := obj["visit"].([]any)
	if !ok {
		if obj["visit"] == nil {
			return []any{}, nil
		}
		return nil, fmt.Errorf("dag.traverse: visit must be a list, got %T", obj["visit"])
	}

	out := make([]any, 0, len(visit))
	for _, item := range visit {
		ref, isRef := item.(domain.ProcedureRef)
		if !isRef {
			out = append(out, item)
			continue
		}
		if ref.When == domain.WhenNever {
			continue
		}
		v, err := call.Execute(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Conditional implements client.conditional.
// Input: {"if": cond, "then": a, "else": b}.
func Conditional(ctx context.Context, input any, call *registry.CallContext) (any, error) {
	obj, ok := input.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("client.conditional: input must be an object, got %T", input)
	}

	key := "else"
	if Truthy(obj["if"]) {
		key = "then"
	}

	ref, isRef := obj[key].(domain.ProcedureRef)
	if !isRef {
		return obj[key], nil
	}
	if ref.When == domain.WhenNever {
		return nil, nil
	}
	return call.Execute(ctx, ref)
}

// Truthy reports whether v counts as true: nil, false, zero numbers, empty
// strings and empty collections are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
