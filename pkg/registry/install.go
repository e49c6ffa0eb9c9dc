package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/procflow/pkg/ports"
)

// Install registers every procedure of src that carries a handler as a method
// on t, and returns how many were installed.
// Procedures without a handler are skipped, so calling them fails with
// domain.ErrProcedureNotFound.
func Install(src Source, t ports.Transport) (int, error) {
	installed := 0
	for _, p := range src.List() {
		if p.Handler == nil {
			continue
		}
		method, err := ports.MethodFor(p.Path)
		if err != nil {
			return installed, fmt.Errorf("install %s: %w", p.Path, err)
		}
		if err := t.Register(method, wrap(src, p)); err != nil {
			return installed, fmt.Errorf("install %s: %w", method, err)
		}
		installed++
	}
	return installed, nil
}

func wrap(src Source, p Procedure) ports.MethodHandler {
	return func(ctx context.Context, req *ports.Request) (any, error) {
		call := NewCallContext(src, p.Path, req.Metadata, req.Executor)
		return p.Handler(ctx, req.Input, call)
	}
}
