package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/procflow/pkg/domain"
)

var (
	outputRefType = reflect.TypeOf(domain.OutputRef{})
	procRefType   = reflect.TypeOf(domain.ProcedureRef{})
)

// resolve returns a copy of v with output references replaced by their values
// and immediate procedure references replaced by their outputs.
// Containers are copied, never modified. Map entries are visited in key order.
// Any other value that holds references (structs, typed maps and slices,
// pointers) is first converted to its JSON object form; values without
// references are passed through with their original type.
func (e *execution) resolve(ctx context.Context, v any) (any, error) {
	switch x := v.(type) {
	case domain.OutputRef:
		return e.lookup(x)
	case *domain.OutputRef:
		if x == nil {
			return nil, nil
		}
		return e.lookup(*x)
	case domain.ProcedureRef:
		return e.resolveProc(ctx, x)
	case *domain.ProcedureRef:
		if x == nil {
			return nil, nil
		}
		return e.resolveProc(ctx, *x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for _, k := range sortedKeys(x) {
			r, err := e.resolve(ctx, x[k])
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			r, err := e.resolve(ctx, item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case []domain.ProcedureRef:
		out := make([]any, len(x))
		for i, item := range x {
			r, err := e.resolveProc(ctx, item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case []domain.OutputRef:
		out := make([]any, len(x))
		for i, item := range x {
			r, err := e.lookup(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}
	if !containsRef(v) {
		return v, nil
	}
	generic, err := toGeneric(v)
	if err != nil {
		return nil, err
	}
	return e.resolve(ctx, generic)
}

// toGeneric converts v to maps, slices and typed references through its
// JSON encoding, so struct fields are keyed by their json names.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T input: %w", v, err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %T input: %w", v, err)
	}
	return domain.Lift(raw)
}

// containsRef reports whether v holds an OutputRef or ProcedureRef anywhere
// in its exported structure.
func containsRef(v any) bool {
	found := false
	eachRef(reflect.ValueOf(v), nil, func(reflect.Value) bool {
		found = true
		return false
	})
	return found
}

// eachRef calls fn for every OutputRef or ProcedureRef reachable from rv,
// without descending into the references themselves. It stops when fn
// returns false. Pointers already on the current path are skipped.
func eachRef(rv reflect.Value, seen map[uintptr]bool, fn func(reflect.Value) bool) bool {
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return eachRef(rv.Elem(), seen, fn)
	case reflect.Pointer:
		if rv.IsNil() || seen[rv.Pointer()] {
			return true
		}
		if seen == nil {
			seen = make(map[uintptr]bool)
		}
		seen[rv.Pointer()] = true
		defer delete(seen, rv.Pointer())
		return eachRef(rv.Elem(), seen, fn)
	case reflect.Struct:
		if rv.Type() == outputRefType || rv.Type() == procRefType {
			return fn(rv)
		}
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if !eachRef(rv.Field(i), seen, fn) {
				return false
			}
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			if !eachRef(rv.MapIndex(k), seen, fn) {
				return false
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !eachRef(rv.Index(i), seen, fn) {
				return false
			}
		}
	}
	return true
}

// resolveProc runs immediate references. $never and deferred references are
// returned untouched for the enclosing handler.
func (e *execution) resolveProc(ctx context.Context, ref domain.ProcedureRef) (any, error) {
	if ref.When == domain.WhenNever || ref.When.IsDeferred() {
		return ref, nil
	}
	return e.run(ctx, ref)
}

// declare records every $name found in ref and its input.
func (e *execution) declare(ref domain.ProcedureRef) {
	if ref.Name != "" {
		e.declared[ref.Name] = struct{}{}
	}
	walkRefs(ref.Input, e.declare)
}

func walkRefs(v any, fn func(domain.ProcedureRef)) {
	eachRef(reflect.ValueOf(v), nil, func(rv reflect.Value) bool {
		if ref, ok := rv.Interface().(domain.ProcedureRef); ok {
			fn(ref)
		}
		return true
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
