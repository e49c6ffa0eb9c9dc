package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageStart    EventType = "stage_start"
	EventStageComplete EventType = "stage_complete"
	EventStageFail     EventType = "stage_fail"
)

// StageEvent describes one stage of a call graph execution.
type StageEvent struct {
	Timestamp    time.Time     `json:"timestamp"`
	Type         EventType     `json:"type"`
	InvocationID string        `json:"invocation_id"`
	Stage        string        `json:"stage,omitempty"`
	Path         ProcedurePath `json:"path"`
	Duration     time.Duration `json:"duration,omitempty"`
	Err          error         `json:"-"`
}

// LifecycleHooks defines callbacks for execution observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnStageStart    func(context.Context, *StageEvent)
	OnStageComplete func(context.Context, *StageEvent)
	OnStageFail     func(context.Context, *StageEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageStart:    chain(h.OnStageStart, other.OnStageStart),
		OnStageComplete: chain(h.OnStageComplete, other.OnStageComplete),
		OnStageFail:     chain(h.OnStageFail, other.OnStageFail),
	}
}

func chain(a, b func(context.Context, *StageEvent)) func(context.Context, *StageEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *StageEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
