package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/procflow/internal/compiler"
	"github.com/aretw0/procflow/internal/presentation/graph"
	"github.com/aretw0/procflow/internal/presentation/tui"
	"github.com/aretw0/procflow/internal/validator"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/registry"
)

// ListOptions configures the list command.
type ListOptions struct {
	ProceduresFile string
	// Long renders each description as Markdown below its path.
	Long bool
}

// List writes the registered procedures to w, one per line.
func List(w io.Writer, opts ListOptions) error {
	reg, err := NewRegistry(opts.ProceduresFile, createLogger(false))
	if err != nil {
		return err
	}

	style := tui.NewStyler(w)
	var render func(string) (string, error)
	if opts.Long {
		render = tui.NewRenderer(tui.Width(w, 80))
	}

	for _, p := range reg.List() {
		line := style.Path(p.Path.String())
		if p.Handler == nil {
			line += " " + style.Faint("(metadata only)")
		}
		if !opts.Long {
			if summary := firstLine(p.Description); summary != "" {
				line += "  " + style.Faint(summary)
			}
			fmt.Fprintln(w, line)
			continue
		}

		fmt.Fprintln(w, line)
		if p.Description == "" {
			continue
		}
		out, err := render(p.Description)
		if err != nil {
			return fmt.Errorf("render %s: %w", p.Path, err)
		}
		fmt.Fprint(w, out)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Graph writes the Mermaid diagram of the graph document at file.
func Graph(w io.Writer, file string) error {
	ref, err := compiler.NewParser().ParseFile(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}
	fmt.Fprint(w, graph.GenerateMermaid(ref, nil))
	return nil
}

// Validate checks the graph document at file against the registry built from
// proceduresFile, without executing anything.
func Validate(file, proceduresFile string) error {
	ref, err := compiler.NewParser().ParseFile(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}
	reg, err := NewRegistry(proceduresFile, createLogger(false))
	if err != nil {
		return err
	}
	return validator.ValidateGraph(ref, lookupIn(reg))
}

func lookupIn(src registry.Source) validator.Lookup {
	return func(path domain.ProcedurePath) bool {
		p, ok := src.Lookup(path)
		return ok && p.Handler != nil
	}
}
