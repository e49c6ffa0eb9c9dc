package local

import (
	"context"
	"sync"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/ports"
)

// Transport implements ports.Transport by calling handlers in the caller's goroutine.
// Safe for concurrent use.
type Transport struct {
	mu         sync.RWMutex
	handlers   map[ports.Method]ports.MethodHandler
	middleware []ports.Middleware
}

// Option configures a Transport.
type Option func(*Transport)

// WithMiddleware wraps every registered handler.
// The first middleware given is the outermost.
func WithMiddleware(mw ...ports.Middleware) Option {
	return func(t *Transport) {
		t.middleware = append(t.middleware, mw...)
	}
}

// New creates an empty in-process transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		handlers: make(map[ports.Method]ports.MethodHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register installs handler under method, replacing any previous handler.
func (t *Transport) Register(method ports.Method, handler ports.MethodHandler) error {
	for i := len(t.middleware) - 1; i >= 0; i-- {
		handler = t.middleware[i](method, handler)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[method] = handler
	return nil
}

// Invoke dispatches req to its handler.
func (t *Transport) Invoke(ctx context.Context, req *ports.Request) (any, error) {
	t.mu.RLock()
	h, ok := t.handlers[req.Method]
	t.mu.RUnlock()

	if !ok {
		path := req.Path
		if len(path) == 0 {
			path = domain.ParsePath(req.Method.String())
		}
		return nil, domain.NotFound(path)
	}
	return h(ctx, req)
}

// Methods returns the number of installed methods.
func (t *Transport) Methods() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}
