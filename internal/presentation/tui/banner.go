package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the procflow banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`                        __  _`, "#818cf8"},
		{`   ___  _______  ______/ _|| | ___ __      __`, "#a78bfa"},
		{`  | _ \| '_/ _ \/ _|___| |_| |/ _ \\ \ /\ / /`, "#c084fc"},
		{`  |  _/|_| \___/\__|   |  _| | (_) |\ V  V /`, "#e879f9"},
		{`  |_|                  |_| |_|\___/  \_/\_/`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
