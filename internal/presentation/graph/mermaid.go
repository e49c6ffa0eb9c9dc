package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/procflow/pkg/domain"
)

// GraphOverlay contains execution data to visualize on the graph.
// Stages are matched by label ($name, or the dotted path when unnamed).
type GraphOverlay struct {
	Completed []string
	Failed    string
}

var (
	traversePath    = domain.NewPath("dag", "traverse")
	conditionalPath = domain.NewPath("client", "conditional")
)

// GenerateMermaid produces a Mermaid flowchart of a call graph.
// It applies semantic styling:
// - dag.traverse: [[Subroutine]]
// - client.conditional: {Rhombus}
// - Default: [Rectangle]
// Solid edges link a stage to the references in its input (labelled with the
// $when directive when set); dotted edges show data flowing through $ref.
func GenerateMermaid(root domain.ProcedureRef, overlay *GraphOverlay) string {
	b := &builder{names: make(map[string]string), labels: make(map[string][]string)}
	b.stage(root, "")

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, line := range b.lines {
		sb.WriteString("    " + line + "\n")
	}

	if len(b.inert) > 0 {
		sb.WriteString("\n    classDef inert stroke-dasharray: 5 5,color:#888;\n")
		for _, id := range b.inert {
			sb.WriteString(fmt.Sprintf("    class %s inert;\n", id))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, label := range overlay.Completed {
			for _, id := range b.labels[label] {
				if !seen[id] {
					seen[id] = true
					sb.WriteString(fmt.Sprintf("    class %s completed;\n", id))
				}
			}
		}
		for _, id := range b.labels[overlay.Failed] {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", id))
		}
	}

	return sb.String()
}

type builder struct {
	n      int
	lines  []string
	inert  []string
	names  map[string]string
	labels map[string][]string
	last   string
}

// stage emits ref and its children in execution order and returns its node id.
func (b *builder) stage(ref domain.ProcedureRef, parent string) string {
	id := fmt.Sprintf("s%d", b.n)
	b.n++

	label := ref.Label()
	b.labels[label] = append(b.labels[label], id)
	opener, closer := "[", "]"
	switch {
	case ref.Proc.Equal(traversePath):
		opener, closer = "[[", "]]"
	case ref.Proc.Equal(conditionalPath):
		opener, closer = "{", "}"
	}
	text := escape(label)
	if ref.Name != "" {
		text = fmt.Sprintf("%s <br/> %s", escape(ref.Name), escape(ref.Proc.String()))
	}
	b.lines = append(b.lines, fmt.Sprintf("%s%s\"%s\"%s", id, opener, text, closer))

	if parent != "" {
		if ref.When != "" {
			b.lines = append(b.lines, fmt.Sprintf("%s -- \"%s\" --> %s", parent, escape(string(ref.When)), id))
		} else {
			b.lines = append(b.lines, fmt.Sprintf("%s --> %s", parent, id))
		}
	}

	if ref.When == domain.WhenNever {
		b.inert = append(b.inert, id)
		return id
	}

	var deferred []domain.ProcedureRef
	b.input(ref.Input, id, &deferred)
	for _, child := range deferred {
		b.stage(child, id)
	}

	if ref.Name != "" {
		b.names[ref.Name] = id
	}
	b.last = id
	return id
}

func (b *builder) input(v any, id string, deferred *[]domain.ProcedureRef) {
	switch x := v.(type) {
	case domain.OutputRef:
		b.ref(x, id)
	case *domain.OutputRef:
		if x != nil {
			b.ref(*x, id)
		}
	case domain.ProcedureRef:
		b.child(x, id, deferred)
	case *domain.ProcedureRef:
		if x != nil {
			b.child(*x, id, deferred)
		}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.input(x[k], id, deferred)
		}
	case []any:
		for _, item := range x {
			b.input(item, id, deferred)
		}
	case []domain.ProcedureRef:
		for _, item := range x {
			b.child(item, id, deferred)
		}
	case []domain.OutputRef:
		for _, item := range x {
			b.ref(item, id)
		}
	}
}

func (b *builder) child(ref domain.ProcedureRef, parent string, deferred *[]domain.ProcedureRef) {
	if ref.When.IsDeferred() {
		*deferred = append(*deferred, ref)
		return
	}
	b.stage(ref, parent)
}

func (b *builder) ref(ref domain.OutputRef, id string) {
	sel := ref.Selector()
	src := b.last
	if sel.Kind == domain.SelectStage {
		src = b.names[sel.Stage]
	}
	if src == "" {
		b.lines = append(b.lines, fmt.Sprintf("%%%% unresolved: %s", ref.Ref))
		return
	}
	b.lines = append(b.lines, fmt.Sprintf("%s -. \"%s\" .-> %s", src, escape(ref.Ref), id))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
