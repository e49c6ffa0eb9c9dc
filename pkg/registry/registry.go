package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/procflow/pkg/domain"
)

// Handler defines the signature for a procedure implementation.
// It receives the resolved input and a call context scoped to the current invocation.
type Handler func(ctx context.Context, input any, call *CallContext) (any, error)

// Procedure is one registry entry.
// A nil Handler marks a metadata-only entry that cannot be called.
type Procedure struct {
	Path        domain.ProcedurePath `json:"path"`
	Description string               `json:"description,omitempty"`
	Handler     Handler              `json:"-"`
}

// Source is the read-only view of a registry consumed by Install and CallContext.
type Source interface {
	List() []Procedure
	Lookup(path domain.ProcedurePath) (Procedure, bool)
}

// Option configures a Procedure at registration time.
type Option func(*Procedure)

// WithDescription attaches a human readable description (Markdown allowed).
func WithDescription(desc string) Option {
	return func(p *Procedure) {
		p.Description = desc
	}
}

// Registry manages the available procedures.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]Procedure
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		procs: make(map[string]Procedure),
	}
}

// Register adds a procedure with a handler.
// If a procedure with the same path exists, it is overwritten.
func (r *Registry) Register(path domain.ProcedurePath, h Handler, opts ...Option) error {
	if h == nil {
		return fmt.Errorf("register %s: nil handler", path)
	}
	p := Procedure{Path: path, Handler: h}
	for _, opt := range opts {
		opt(&p)
	}
	return r.Define(p)
}

// Define adds a procedure as is, with or without a handler.
// Segments must be non-empty and free of ".".
func (r *Registry) Define(p Procedure) error {
	if err := p.Path.Validate(); err != nil {
		return err
	}
	p.Path = p.Path.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[key(p.Path)] = p
	return nil
}

// key joins segments with NUL, so ["a.b"] and ["a", "b"] never share an entry.
func key(path domain.ProcedurePath) string {
	return strings.Join(path, "\x00")
}

// Lookup returns the procedure registered at path.
func (r *Registry) Lookup(path domain.ProcedurePath) (Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[key(path)]
	return p, ok
}

// List returns every procedure sorted by dotted path.
func (r *Registry) List() []Procedure {
	r.mu.RLock()
	out := make([]Procedure, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path.String() < out[j].Path.String()
	})
	return out
}

// Len returns the number of registered procedures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.procs)
}
