/*
Package observability provides monitoring for procflow executions.

Metrics exposes Prometheus collectors fed by a transport middleware (per method
call counts and latency) and by lifecycle hooks (stage outcomes). LogHooks turns
the same lifecycle events into structured log lines.

	m, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	driver := procflow.New(reg,
		procflow.WithMiddleware(m.Middleware()),
		procflow.WithHooks(m.Hooks()),
	)
*/
package observability
