package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/procflow"
	"github.com/aretw0/procflow/internal/compiler"
	"github.com/aretw0/procflow/internal/presentation/graph"
	"github.com/aretw0/procflow/internal/presentation/tui"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/runner"
)

// RunOptions configures the run command.
type RunOptions struct {
	File           string
	ProceduresFile string
	Format         runner.Format
	Quiet          bool
	Debug          bool
	// Trace prints a Mermaid diagram of the graph annotated with the stages
	// that completed or failed.
	Trace bool

	Stdout io.Writer
	Stderr io.Writer
}

func (o *RunOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Format == "" {
		o.Format = runner.FormatJSON
	}
}

// Execute parses the graph document, runs it and prints the result.
func Execute(opts RunOptions) error {
	opts.defaults()
	logger := createLogger(opts.Debug)

	ref, err := compiler.NewParser().ParseFile(opts.File)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.File, err)
	}

	reg, err := NewRegistry(opts.ProceduresFile, logger)
	if err != nil {
		return err
	}

	overlay := &graph.GraphOverlay{}
	driver := newDriver(reg, logger, procflow.WithHooks(traceHooks(overlay)))

	ctx := NewSignalContext(context.Background())
	defer ctx.Cancel()

	_, err = driver.Run(ctx, ref,
		procflow.WithPrint(!opts.Quiet),
		procflow.WithFormat(opts.Format),
		procflow.WithOutput(opts.Stdout),
	)

	if opts.Trace {
		fmt.Fprint(opts.Stderr, graph.GenerateMermaid(ref, overlay))
	}
	if err != nil {
		if sig := ctx.Signal(); sig != nil && !opts.Quiet {
			printSystemMessage(opts.Stderr, "Interrupted (%v).", sig)
		} else if !opts.Quiet {
			printSystemMessage(opts.Stderr, "%s", tui.NewStyler(opts.Stderr).Error(err.Error()))
		}
	}
	return handleExecutionError(err)
}

// traceHooks records completed and failed stage labels into overlay.
// Stages run on a single goroutine, so no locking is needed.
func traceHooks(overlay *graph.GraphOverlay) domain.LifecycleHooks {
	label := func(e *domain.StageEvent) string {
		if e.Stage != "" {
			return e.Stage
		}
		return e.Path.String()
	}
	return domain.LifecycleHooks{
		OnStageComplete: func(ctx context.Context, e *domain.StageEvent) {
			overlay.Completed = append(overlay.Completed, label(e))
		},
		OnStageFail: func(ctx context.Context, e *domain.StageEvent) {
			if overlay.Failed == "" {
				overlay.Failed = label(e)
			}
		},
	}
}
