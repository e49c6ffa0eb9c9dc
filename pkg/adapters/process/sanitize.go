package process

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxArgSize bounds a single PROCFLOW_ARG_* value (64KB).
	DefaultMaxArgSize = 64 * 1024
	// EnvMaxArgSize is the environment variable to override the default.
	EnvMaxArgSize = "PROCFLOW_MAX_ARG_SIZE"
)

var (
	ErrArgTooLarge = errors.New("argument exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("argument contains invalid UTF-8 sequences")
)

// sanitizeValue enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
func sanitizeValue(value string) (string, error) {
	limit := maxArgSize()
	if len(value) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrArgTooLarge, len(value), limit)
	}
	if !utf8.ValidString(value) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range value {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return value, nil
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// envKey turns an input key into the suffix of a PROCFLOW_ARG_ variable.
func envKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, key)
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxArgSize() int {
	if val := os.Getenv(EnvMaxArgSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxArgSize
}
