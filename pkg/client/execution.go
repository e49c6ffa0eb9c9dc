package client

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/ports"
	"github.com/google/uuid"
)

func newInvocationID() string {
	return uuid.NewString()
}

// execution is the resolution scope of one top-level Execute call.
// It implements ports.Executor so handlers can run deferred references in it.
type execution struct {
	client *Client

	stages   map[string]any
	declared map[string]struct{}
	last     any
	hasLast  bool

	// current is the invocation id of the handler being run, if any.
	current string
}

func newExecution(c *Client) *execution {
	return &execution{
		client:   c,
		stages:   make(map[string]any),
		declared: make(map[string]struct{}),
	}
}

// Execute runs ref in this scope. References built by a handler at runtime
// are scanned for stage names before they run.
func (e *execution) Execute(ctx context.Context, ref domain.ProcedureRef) (any, error) {
	e.declare(ref)
	return e.run(ctx, ref)
}

func (e *execution) run(ctx context.Context, ref domain.ProcedureRef) (any, error) {
	if ref.When == domain.WhenNever {
		return nil, nil
	}

	method, err := ports.MethodFor(ref.Proc)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", ref.Label(), err)
	}

	input, err := e.resolve(ctx, ref.Input)
	if err != nil {
		return nil, err
	}

	parent := e.current
	id := e.client.newID()
	md := map[string]string{domain.KeyInvocationID: id}
	if parent != "" {
		md[domain.KeyParent] = parent
	}
	if ref.Name != "" {
		md[domain.KeyStage] = ref.Name
	}
	if ref.When != "" {
		md[domain.KeyWhen] = string(ref.When)
	}

	logger := e.client.logger.With(domain.KeyInvocationID, id, "path", ref.Proc.String())
	if ref.Name != "" {
		logger = logger.With(domain.KeyStage, ref.Name)
	}

	hooks := e.client.hooks
	start := time.Now()
	event := &domain.StageEvent{
		Timestamp:    start,
		Type:         domain.EventStageStart,
		InvocationID: id,
		Stage:        ref.Name,
		Path:         ref.Proc,
	}
	if hooks.OnStageStart != nil {
		hooks.OnStageStart(ctx, event)
	}
	logger.Debug("stage started")

	e.current = id
	out, err := e.client.transport.Invoke(ctx, &ports.Request{
		Method:   method,
		Path:     ref.Proc,
		Input:    input,
		Metadata: md,
		Executor: e,
	})
	e.current = parent

	end := *event
	end.Timestamp = time.Now()
	end.Duration = end.Timestamp.Sub(start)
	if err != nil {
		end.Type = domain.EventStageFail
		end.Err = err
		if hooks.OnStageFail != nil {
			hooks.OnStageFail(ctx, &end)
		}
		logger.Debug("stage failed", "err", err, "duration", end.Duration)
		return nil, err
	}

	end.Type = domain.EventStageComplete
	if hooks.OnStageComplete != nil {
		hooks.OnStageComplete(ctx, &end)
	}
	logger.Debug("stage completed", "duration", end.Duration)

	e.record(ref.Name, out)
	return out, nil
}

func (e *execution) record(name string, out any) {
	if name != "" {
		if _, dup := e.stages[name]; dup {
			e.client.logger.Warn("duplicate stage name, later references see the newest output", domain.KeyStage, name)
		}
		e.stages[name] = out
	}
	e.last = out
	e.hasLast = true
}

func (e *execution) lookup(ref domain.OutputRef) (any, error) {
	sel := ref.Selector()

	var base any
	switch sel.Kind {
	case domain.SelectLast:
		if !e.hasLast {
			return nil, domain.Unresolved(ref.Ref, "no stage has completed yet")
		}
		base = e.last
	default:
		if sel.Stage == "" {
			return nil, domain.Unresolved(ref.Ref, "empty stage name")
		}
		out, ok := e.stages[sel.Stage]
		if !ok {
			if _, declared := e.declared[sel.Stage]; declared {
				return nil, domain.Unresolved(ref.Ref, fmt.Sprintf("stage %q has not executed yet", sel.Stage))
			}
			return nil, domain.Unresolved(ref.Ref, fmt.Sprintf("unknown stage %q", sel.Stage))
		}
		base = out
	}

	v, err := domain.Dig(base, sel.Path)
	if err != nil {
		return nil, domain.Unresolved(ref.Ref, err.Error())
	}
	return v, nil
}
