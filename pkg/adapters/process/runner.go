package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/procflow/internal/logging"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/registry"
)

// EnvPrefix prefixes the environment variables carrying input fields.
const EnvPrefix = "PROCFLOW_ARG_"

// ErrExecution is returned when a command exits unsuccessfully.
var ErrExecution = errors.New("execution failed")

// Runner executes the commands of configured procedures.
// Only commands listed in a ProcedureConfig can run (allow-listing).
type Runner struct {
	baseDir string
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler returns a registry handler running cfg.Command.
//
// Input fields are never passed as command flags. Each top-level key of an
// object input is exported as PROCFLOW_ARG_<KEY> (objects and lists as JSON),
// and the whole input is written to stdin as JSON. Stdout holding a JSON object
// or array becomes a structured result; anything else is returned as trimmed text.
func (r *Runner) Handler(cfg ProcedureConfig) registry.Handler {
	return func(ctx context.Context, input any, call *registry.CallContext) (any, error) {
		env, err := inputEnv(input)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		stdin, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("%s: encode input: %w", cfg.Path, err)
		}

		cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
		cmd.Dir = r.baseDir
		cmd.Env = cmd.Environ()
		for k, v := range cfg.Environment {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		cmd.Env = append(cmd.Env, env...)
		if call != nil {
			if id := call.InvocationID(); id != "" {
				cmd.Env = append(cmd.Env, "PROCFLOW_INVOCATION_ID="+id)
			}
		}
		cmd.Stdin = bytes.NewReader(stdin)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		r.logger.Debug("running process", "path", cfg.Path, "command", cfg.Command)
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v. Stderr: %s", ErrExecution, cfg.Path, err, strings.TrimSpace(stderr.String()))
		}

		return parseOutput(stdout.String()), nil
	}
}

// Register adds every configured procedure to reg.
func Register(reg *registry.Registry, r *Runner, cfgs []ProcedureConfig) error {
	for _, cfg := range cfgs {
		path := domain.ParsePath(cfg.Path)
		if err := reg.Register(path, r.Handler(cfg), registry.WithDescription(cfg.Description)); err != nil {
			return fmt.Errorf("register %s: %w", cfg.Path, err)
		}
	}
	return nil
}

func inputEnv(input any) ([]string, error) {
	obj, ok := input.(map[string]any)
	if !ok {
		return nil, nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		var val string
		switch v := obj[k].(type) {
		case nil:
		case string:
			val = v
		case int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				val = fmt.Sprintf("%v", v)
			} else {
				val = string(data)
			}
		}

		clean, err := sanitizeValue(val)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", k, err)
		}
		env = append(env, EnvPrefix+envKey(k)+"="+clean)
	}
	return env, nil
}

func parseOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
