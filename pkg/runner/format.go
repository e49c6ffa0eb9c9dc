package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects how a result is printed.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat parses a format name. The empty string selects FormatJSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q (want json or text)", ErrUnknownFormat, s)
}

func (f Format) String() string {
	return string(f)
}

// Set implements pflag.Value so a Format can be bound to a CLI flag.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}
