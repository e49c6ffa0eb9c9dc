package observability

import (
	"context"
	"time"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for call graph execution.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stages   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "procflow",
				Name:      "calls_total",
				Help:      "Total transport method invocations.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "procflow",
				Name:      "call_duration_seconds",
				Help:      "Duration of transport method invocations in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		stages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "procflow",
				Name:      "stages_total",
				Help:      "Total call graph stages by outcome.",
			},
			[]string{"status"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.calls, m.duration, m.stages} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware records call counts and durations per transport method.
func (m *Metrics) Middleware() ports.Middleware {
	return func(method ports.Method, next ports.MethodHandler) ports.MethodHandler {
		name := method.String()
		return func(ctx context.Context, req *ports.Request) (any, error) {
			start := time.Now()
			out, err := next(ctx, req)
			m.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())

			status := "ok"
			if err != nil {
				status = "error"
			}
			m.calls.WithLabelValues(name, status).Inc()
			return out, err
		}
	}
}

// Hooks counts stage outcomes.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			m.stages.WithLabelValues("started").Inc()
		},
		OnStageComplete: func(ctx context.Context, e *domain.StageEvent) {
			m.stages.WithLabelValues("completed").Inc()
		},
		OnStageFail: func(ctx context.Context, e *domain.StageEvent) {
			m.stages.WithLabelValues("failed").Inc()
		},
	}
}
