package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// LastToken is the selector head that addresses the most recently completed stage.
const LastToken = "$last"

// SelectorKind tags the head of a parsed OutputRef.
type SelectorKind int

const (
	// SelectStage addresses a named stage.
	SelectStage SelectorKind = iota
	// SelectLast addresses the most recently completed stage.
	SelectLast
)

// Selector is the parsed form of an OutputRef address.
type Selector struct {
	Kind  SelectorKind
	Stage string
	Path  []string
}

// ParseSelector splits a dotted reference into its head and property path.
// It never fails: an empty or unknown head is reported when the selector is resolved.
func ParseSelector(ref string) Selector {
	parts := strings.Split(ref, ".")
	head, rest := parts[0], parts[1:]
	if len(rest) == 0 {
		rest = nil
	}
	if head == LastToken {
		return Selector{Kind: SelectLast, Path: rest}
	}
	return Selector{Kind: SelectStage, Stage: head, Path: rest}
}

// Selector parses the reference address.
func (r OutputRef) Selector() Selector {
	return ParseSelector(r.Ref)
}

func (s Selector) String() string {
	head := s.Stage
	if s.Kind == SelectLast {
		head = LastToken
	}
	if len(s.Path) == 0 {
		return head
	}
	return head + "." + strings.Join(s.Path, ".")
}

// Dig walks path through value.
// Segments index string-keyed maps, struct fields (by json tag) and slices (decimal index).
func Dig(value any, path []string) (any, error) {
	cur := value
	for i, seg := range path {
		next, ok := step(cur, seg)
		if !ok {
			return nil, fmt.Errorf("property %q not found", strings.Join(path[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}

func step(cur any, seg string) (any, bool) {
	switch v := cur.(type) {
	case nil:
		return nil, false
	case map[string]any:
		next, ok := v[seg]
		return next, ok
	case []any:
		idx, ok := index(seg, len(v))
		if !ok {
			return nil, false
		}
		return v[idx], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		keyType := rv.Type().Key()
		if keyType.Kind() != reflect.String {
			return nil, false
		}
		next := rv.MapIndex(reflect.ValueOf(seg).Convert(keyType))
		if !next.IsValid() {
			return nil, false
		}
		return next.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, ok := index(seg, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.Struct:
		fields, err := structFields(rv.Interface())
		if err != nil {
			return nil, false
		}
		next, ok := fields[seg]
		return next, ok
	}
	return nil, false
}

func structFields(v any) (map[string]any, error) {
	fields := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &fields,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, err
	}
	return fields, nil
}

func index(seg string, n int) (int, bool) {
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}
