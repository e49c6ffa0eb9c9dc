package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/procflow"
	httpAdapter "github.com/aretw0/procflow/pkg/adapters/http"
	"github.com/aretw0/procflow/pkg/adapters/mcp"
	"github.com/aretw0/procflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	Port           string
	ProceduresFile string
	Debug          bool
	Stdout         io.Writer
}

// NewHTTPHandler builds the HTTP front door with metrics and event streaming enabled.
func NewHTTPHandler(opts ServeOptions) (http.Handler, error) {
	logger := createLogger(opts.Debug)
	reg, err := NewRegistry(opts.ProceduresFile, logger)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(promReg)
	if err != nil {
		return nil, err
	}
	streams := httpAdapter.NewStreamManager(logger)

	driver := newDriver(reg, logger,
		procflow.WithMiddleware(metrics.Middleware()),
		procflow.WithHooks(metrics.Hooks()),
		procflow.WithHooks(streams.Hooks()),
	)
	return httpAdapter.NewHandler(driver, reg,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithGatherer(promReg),
		httpAdapter.WithStreams(streams),
	)
}

// Serve runs the HTTP server until SIGINT or SIGTERM.
func Serve(opts ServeOptions) error {
	handler, err := NewHTTPHandler(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Stdout, "Starting procflow server on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		printSystemMessage(opts.Stdout, "Shutting down (signal: %v)", ctx.Signal())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	}
}

// MCPOptions configures the mcp command.
type MCPOptions struct {
	Transport      string
	Port           int
	ProceduresFile string
	Debug          bool
}

// ServeMCP runs the MCP server on the selected transport.
func ServeMCP(opts MCPOptions) error {
	logger := createLogger(opts.Debug)
	reg, err := NewRegistry(opts.ProceduresFile, logger)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(newDriver(reg, logger), reg, mcp.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting procflow MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		ctx := NewSignalContext(context.Background())
		defer ctx.Cancel()
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", opts.Transport)
	}
}
