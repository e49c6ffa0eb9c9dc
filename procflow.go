package procflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/procflow/internal/logging"
	"github.com/aretw0/procflow/pkg/adapters/local"
	"github.com/aretw0/procflow/pkg/client"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/ports"
	"github.com/aretw0/procflow/pkg/registry"
	"github.com/aretw0/procflow/pkg/runner"
)

// Driver runs call graphs against a procedure registry.
// Each Run installs the registry on a fresh transport, so handlers registered
// between runs are always visible. Safe for concurrent use.
type Driver struct {
	source     registry.Source
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	middleware []ports.Middleware
	stdout     io.Writer
	newPrinter func(runner.Format, io.Writer) (runner.Printer, error)

	initOnce sync.Once
}

// Option defines a functional option for configuring the Driver.
type Option func(*Driver)

// WithLogger sets a custom structured logger for the driver and its client.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithHooks registers observability hooks. Multiple calls chain the hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Driver) {
		d.hooks = d.hooks.Merge(hooks)
	}
}

// WithMiddleware wraps every installed transport method.
func WithMiddleware(mw ...ports.Middleware) Option {
	return func(d *Driver) {
		d.middleware = append(d.middleware, mw...)
	}
}

// WithStdout sets the default destination of printed results (default: os.Stdout).
func WithStdout(w io.Writer) Option {
	return func(d *Driver) {
		d.stdout = w
	}
}

// New creates a driver over src.
// The builtin procedures are not added implicitly; see procs.Register.
func New(src registry.Source, opts ...Option) *Driver {
	d := &Driver{source: src}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// init resolves the collaborators left unset by options. It runs on the first Run.
func (d *Driver) init() {
	if d.logger == nil {
		d.logger = logging.NewNop()
	}
	if d.stdout == nil {
		d.stdout = os.Stdout
	}
	if d.newPrinter == nil {
		d.newPrinter = runner.NewPrinter
	}
}

// RunOption configures a single Run.
type RunOption func(*runConfig)

type runConfig struct {
	print  bool
	format runner.Format
	out    io.Writer
}

// WithPrint toggles printing of the result (default true).
func WithPrint(enabled bool) RunOption {
	return func(c *runConfig) {
		c.print = enabled
	}
}

// WithFormat selects the print format (default runner.FormatJSON).
func WithFormat(format runner.Format) RunOption {
	return func(c *runConfig) {
		c.format = format
	}
}

// WithOutput prints this run's result to w instead of the driver's stdout.
func WithOutput(w io.Writer) RunOption {
	return func(c *runConfig) {
		c.out = w
	}
}

// Run executes ref and returns its resolved value.
// When printing is enabled the value is also written in the selected format.
// Execution errors are returned exactly as produced by the graph.
func (d *Driver) Run(ctx context.Context, ref domain.ProcedureRef, opts ...RunOption) (any, error) {
	d.initOnce.Do(d.init)

	cfg := runConfig{print: true, format: runner.FormatJSON, out: d.stdout}
	for _, opt := range opts {
		opt(&cfg)
	}

	transport := local.New(local.WithMiddleware(d.middleware...))
	n, err := registry.Install(d.source, transport)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("transport ready", "methods", n, "root", ref.Proc.String())

	c := client.New(transport, client.WithLogger(d.logger), client.WithHooks(d.hooks))
	result, err := c.Execute(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !cfg.print {
		return result, nil
	}
	p, err := d.newPrinter(cfg.format, cfg.out)
	if err != nil {
		return result, err
	}
	if err := p.Print(result); err != nil {
		return result, fmt.Errorf("print result: %w", err)
	}
	return result, nil
}
