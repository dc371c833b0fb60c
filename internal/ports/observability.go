package ports

import "context"

// Metric names recorded by the workflow runner.
const (
	MetricRunsTotal         = "peakflow_workflow_runs_total"
	MetricRunDuration       = "peakflow_workflow_run_duration_seconds"
	MetricRunsRejected      = "peakflow_workflow_submissions_rejected_total"
	MetricActiveRuns        = "peakflow_workflow_active_runs"
	MetricEntitiesProcessed = "peakflow_entities_processed_total"
)

// MetricsCollector records quantitative observability signals. The interface
// is generic so adapters can back onto Prometheus or anything else. Label
// sets for one metric name must always use the same keys.
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) IncCounter(context.Context, string, map[string]string)                {}
func (NopMetrics) SetGauge(context.Context, string, float64, map[string]string)         {}
func (NopMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}
