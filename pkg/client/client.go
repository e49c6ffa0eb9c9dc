package client

import (
	"context"
	"log/slog"

	"github.com/aretw0/procflow/internal/logging"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/ports"
)

// Client walks call graphs over a transport.
// A Client holds no per-graph state and is safe for concurrent use; every
// Execute call gets its own resolution scope.
type Client struct {
	transport ports.Transport
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	newID     func() string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHooks adds lifecycle hooks. Calling it more than once chains the hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithIDGenerator overrides how invocation ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		c.newID = fn
	}
}

// New creates a client bound to t.
func New(t ports.Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		logger:    logging.NewNop(),
		newID:     newInvocationID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs ref and returns its output.
// Output references inside the graph are resolved against the stages completed
// so far in this call. Errors from handlers are returned unchanged.
func (c *Client) Execute(ctx context.Context, ref domain.ProcedureRef) (any, error) {
	return newExecution(c).Execute(ctx, ref)
}
