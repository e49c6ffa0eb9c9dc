package registry

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Typed adapts a strongly typed function into a Handler.
// The resolved input is decoded into I using json field tags; scalar values are
// converted loosely (e.g. "42" into an int field).
func Typed[I, O any](fn func(ctx context.Context, in I, call *CallContext) (O, error)) Handler {
	return func(ctx context.Context, input any, call *CallContext) (any, error) {
		var in I
		if err := Decode(input, &in); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
		return fn(ctx, in, call)
	}
}

// Decode converts a loosely typed value (as produced by resolution or JSON
// decoding) into out.
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
