package registry

import (
	"context"
	"errors"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/ports"
)

// ErrNoExecutor is returned by CallContext.Execute when the invocation did not
// originate from a graph walk.
var ErrNoExecutor = errors.New("no executor bound to call context")

// CallContext is handed to every handler invocation.
// It is only valid until the handler returns.
type CallContext struct {
	// Path of the procedure being invoked.
	Path domain.ProcedurePath
	// Metadata of the invocation (see domain.Key* constants).
	Metadata map[string]string

	source   Source
	executor ports.Executor
}

// NewCallContext builds a call context bound to src.
// executor may be nil, in which case Execute fails with ErrNoExecutor.
func NewCallContext(src Source, path domain.ProcedurePath, md map[string]string, executor ports.Executor) *CallContext {
	return &CallContext{
		Path:     path,
		Metadata: md,
		source:   src,
		executor: executor,
	}
}

// Call invokes another procedure of the same registry by path.
// The callee receives a context with the same capabilities and metadata.
func (c *CallContext) Call(ctx context.Context, path domain.ProcedurePath, input any) (any, error) {
	p, ok := c.source.Lookup(path)
	if !ok || p.Handler == nil {
		return nil, domain.NotFound(path)
	}
	return p.Handler(ctx, input, NewCallContext(c.source, path, c.Metadata, c.executor))
}

// Execute runs ref in the resolution scope of the current graph walk.
// It is how procedures such as dag.traverse run references whose $when
// directive deferred them to the enclosing procedure.
func (c *CallContext) Execute(ctx context.Context, ref domain.ProcedureRef) (any, error) {
	if c.executor == nil {
		return nil, ErrNoExecutor
	}
	return c.executor.Execute(ctx, ref)
}

// InvocationID returns the invocation id from the metadata, if any.
func (c *CallContext) InvocationID() string {
	return c.Metadata[domain.KeyInvocationID]
}
