package ports

import (
	"context"

	"github.com/aretw0/procflow/pkg/domain"
)

// Method identifies an installed transport method.
type Method struct {
	Service   string
	Operation string
}

// MethodFor derives the method identity of a procedure path: the first segment
// is the service, the remaining segments joined by "." are the operation.
func MethodFor(path domain.ProcedurePath) (Method, error) {
	if len(path) == 0 || path[0] == "" {
		return Method{}, domain.ErrInvalidPath
	}
	return Method{Service: path.Service(), Operation: path.Operation()}, nil
}

func (m Method) String() string {
	if m.Operation == "" {
		return m.Service
	}
	return m.Service + "." + m.Operation
}

// Request is one invocation dispatched through a Transport.
type Request struct {
	Method Method
	Path   domain.ProcedurePath
	// Input is the payload after output references were resolved.
	Input any
	// Metadata carries invocation metadata (see domain.Key* constants).
	Metadata map[string]string
	// Executor runs deferred references in the resolution scope of the caller.
	// It may be nil when the request does not originate from a graph walk.
	Executor Executor
}

// MethodHandler serves one transport method.
type MethodHandler func(ctx context.Context, req *Request) (any, error)

// Middleware wraps a MethodHandler with cross-cutting behavior.
type Middleware func(method Method, next MethodHandler) MethodHandler

// Transport dispatches resolved calls to their handlers.
type Transport interface {
	// Register installs handler under method, replacing any previous handler.
	Register(method Method, handler MethodHandler) error

	// Invoke dispatches req to the handler registered for req.Method.
	// Returns an error wrapping domain.ErrProcedureNotFound if nothing is registered.
	Invoke(ctx context.Context, req *Request) (any, error)
}

// Executor runs a procedure reference, resolving its output references
// against the stages completed so far.
type Executor interface {
	Execute(ctx context.Context, ref domain.ProcedureRef) (any, error)
}
