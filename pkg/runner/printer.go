package runner

import (
	"encoding/json"
	"fmt"
	"io"
)

// Printer writes a resolved value.
type Printer interface {
	Print(v any) error
}

// JSONPrinter pretty-prints values as JSON with a two-space indent.
type JSONPrinter struct {
	w io.Writer
}

// NewJSONPrinter creates a JSONPrinter writing to w.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{w: w}
}

func (p *JSONPrinter) Print(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// TextPrinter writes the default string representation of values.
type TextPrinter struct {
	w io.Writer
}

// NewTextPrinter creates a TextPrinter writing to w.
func NewTextPrinter(w io.Writer) *TextPrinter {
	return &TextPrinter{w: w}
}

func (p *TextPrinter) Print(v any) error {
	_, err := fmt.Fprintln(p.w, v)
	return err
}

// NewPrinter returns the printer for format.
func NewPrinter(format Format, w io.Writer) (Printer, error) {
	switch format {
	case "", FormatJSON:
		return NewJSONPrinter(w), nil
	case FormatText:
		return NewTextPrinter(w), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
}
