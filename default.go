package procflow

import (
	"context"
	"sync"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/procs"
	"github.com/aretw0/procflow/pkg/registry"
)

var (
	defaultRegistry = sync.OnceValue(func() *registry.Registry {
		reg := registry.New()
		if err := procs.Register(reg); err != nil {
			panic(err)
		}
		return reg
	})
	defaultDriver = sync.OnceValue(func() *Driver {
		return New(defaultRegistry())
	})
)

// DefaultRegistry returns the process-wide registry used by Register and Run.
// It starts with the builtin procedures (echo, dag.traverse, client.conditional).
func DefaultRegistry() *registry.Registry {
	return defaultRegistry()
}

// Register adds a handler to the default registry.
func Register(path domain.ProcedurePath, h registry.Handler, opts ...registry.Option) error {
	return DefaultRegistry().Register(path, h, opts...)
}

// Define adds a procedure, possibly without handler, to the default registry.
func Define(p registry.Procedure) error {
	return DefaultRegistry().Define(p)
}

// Run executes ref against the default registry.
func Run(ctx context.Context, ref domain.ProcedureRef, opts ...RunOption) (any, error) {
	return defaultDriver().Run(ctx, ref, opts...)
}
