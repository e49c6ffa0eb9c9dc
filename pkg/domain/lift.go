package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Lift converts a generic decoded value into its typed form: objects carrying
// $proc become ProcedureRef and objects carrying $ref become OutputRef.
// Maps decoded from YAML with non-string keys are normalized to map[string]any.
func Lift(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		if _, ok := x["$proc"]; ok {
			return liftProc(x)
		}
		if _, ok := x["$ref"]; ok {
			return liftOutput(x)
		}
		out := make(map[string]any, len(x))
		for k, item := range x {
			lifted, err := Lift(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = lifted
		}
		return out, nil
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[fmt.Sprint(k)] = item
		}
		return Lift(m)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			lifted, err := Lift(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = lifted
		}
		return out, nil
	}
	return v, nil
}

func liftOutput(m map[string]any) (OutputRef, error) {
	s, ok := m["$ref"].(string)
	if !ok || len(m) != 1 {
		return OutputRef{}, fmt.Errorf("%w: $ref must be the only key and a string", ErrInvalidMarker)
	}
	return OutputRef{Ref: s}, nil
}

type rawRef struct {
	Proc  any    `mapstructure:"$proc"`
	Input any    `mapstructure:"input"`
	Name  string `mapstructure:"$name"`
	When  string `mapstructure:"$when"`
}

func liftProc(m map[string]any) (ProcedureRef, error) {
	var raw rawRef
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &raw,
	})
	if err != nil {
		return ProcedureRef{}, err
	}
	if err := dec.Decode(m); err != nil {
		return ProcedureRef{}, fmt.Errorf("%w: %v", ErrInvalidMarker, err)
	}

	path, err := markerPath(raw.Proc)
	if err != nil {
		return ProcedureRef{}, err
	}

	// An absent input means an empty object; an explicit null stays nil.
	input := raw.Input
	if _, ok := m["input"]; !ok {
		input = map[string]any{}
	}
	lifted, err := Lift(input)
	if err != nil {
		return ProcedureRef{}, fmt.Errorf("%s input: %w", path, err)
	}

	return ProcedureRef{
		Proc:  path,
		Input: lifted,
		Name:  raw.Name,
		When:  When(raw.When),
	}, nil
}

// markerPath accepts a list of segments or a dotted string.
func markerPath(v any) (ProcedurePath, error) {
	var path ProcedurePath
	switch x := v.(type) {
	case string:
		path = ParsePath(x)
	case []any:
		for _, seg := range x {
			s, ok := seg.(string)
			if !ok {
				return nil, fmt.Errorf("%w: $proc segments must be strings, got %T", ErrInvalidMarker, seg)
			}
			path = append(path, s)
		}
	case []string:
		path = append(path, x...)
	default:
		return nil, fmt.Errorf("%w: $proc must be a list of strings, got %T", ErrInvalidMarker, v)
	}
	if len(path) == 0 || path[0] == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMarker, ErrInvalidPath)
	}
	return path, nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// UnmarshalJSON decodes the wire form of a reference, lifting nested $proc
// and $ref objects found in its input.
func (r *ProcedureRef) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	ref, err := liftProc(m)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (r *ProcedureRef) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return err
	}
	ref, err := liftProc(m)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// UnmarshalJSON decodes {"$ref": "..."} and rejects any other shape.
func (o *OutputRef) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	ref, err := liftOutput(m)
	if err != nil {
		return err
	}
	*o = ref
	return nil
}
