package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/procflow/pkg/domain"
)

// LogHooks logs every stage transition at Info level (failures at Warn).
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	attrs := func(e *domain.StageEvent) []any {
		args := []any{domain.KeyInvocationID, e.InvocationID, "path", e.Path.String()}
		if e.Stage != "" {
			args = append(args, domain.KeyStage, e.Stage)
		}
		if e.Duration > 0 {
			args = append(args, "duration", e.Duration)
		}
		return args
	}

	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "stage_start", attrs(e)...)
		},
		OnStageComplete: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "stage_complete", attrs(e)...)
		},
		OnStageFail: func(ctx context.Context, e *domain.StageEvent) {
			logger.WarnContext(ctx, "stage_fail", append(attrs(e), "err", e.Err)...)
		},
	}
}
