package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/procflow"
	"github.com/aretw0/procflow/pkg/adapters/process"
	"github.com/aretw0/procflow/pkg/procs"
	"github.com/aretw0/procflow/pkg/registry"
)

// DefaultProceduresFile is read when no --procedures flag is given. It may be absent.
const DefaultProceduresFile = "procflow.yaml"

// NewRegistry builds a registry holding the builtin procedures and the script
// procedures declared in proceduresFile. Commands run from the file's directory.
func NewRegistry(proceduresFile string, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.New()
	if err := procs.Register(reg); err != nil {
		return nil, err
	}
	if proceduresFile == "" {
		return reg, nil
	}

	cfgs, err := process.LoadProcedures(proceduresFile)
	if err != nil {
		return nil, err
	}
	runner := process.NewRunner(
		process.WithBaseDir(filepath.Dir(proceduresFile)),
		process.WithLogger(logger),
	)
	if err := process.Register(reg, runner, cfgs); err != nil {
		return nil, fmt.Errorf("register procedures: %w", err)
	}
	logger.Debug("Procedures loaded", "file", proceduresFile, "count", len(cfgs))
	return reg, nil
}

// newDriver wires a driver with debug hooks on top of opts.
func newDriver(reg *registry.Registry, logger *slog.Logger, opts ...procflow.Option) *procflow.Driver {
	base := []procflow.Option{
		procflow.WithLogger(logger),
		procflow.WithHooks(createDebugHooks(logger)),
	}
	return procflow.New(reg, append(base, opts...)...)
}
