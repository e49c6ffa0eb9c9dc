package tui

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or fallback when w is not a terminal.
func Width(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// Styler colors CLI messages. Colors are dropped when the writer is not a terminal.
type Styler struct {
	out *termenv.Output
}

// NewStyler creates a Styler for w.
func NewStyler(w io.Writer) *Styler {
	profile := termenv.Ascii
	if IsTerminal(w) {
		profile = termenv.EnvColorProfile()
	}
	return &Styler{out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

// Success renders s in green.
func (s *Styler) Success(text string) string {
	return s.out.String(text).Foreground(s.out.Color("#22c55e")).String()
}

// Error renders s in bold red.
func (s *Styler) Error(text string) string {
	return s.out.String(text).Foreground(s.out.Color("#ef4444")).Bold().String()
}

// Path renders a procedure path.
func (s *Styler) Path(text string) string {
	return s.out.String(text).Foreground(s.out.Color("#a78bfa")).Bold().String()
}

// Faint renders secondary text.
func (s *Styler) Faint(text string) string {
	return s.out.String(text).Faint().String()
}
