package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/peakflow/internal/ports"
)

func TestPrometheusCounterByLabels(t *testing.T) {
	t.Parallel()

	p := NewPrometheus(nil)
	ctx := context.Background()
	p.IncCounter(ctx, ports.MetricRunsTotal, map[string]string{"status": "success"})
	p.IncCounter(ctx, ports.MetricRunsTotal, map[string]string{"status": "success"})
	p.IncCounter(ctx, ports.MetricRunsTotal, map[string]string{"status": "failure"})

	vec := p.counters[ports.MetricRunsTotal]
	require.NotNil(t, vec)
	require.Equal(t, 2.0, testutil.ToFloat64(vec.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("failure")))
}

func TestPrometheusGaugeAndHistogram(t *testing.T) {
	t.Parallel()

	p := NewPrometheus(nil)
	ctx := context.Background()
	p.SetGauge(ctx, ports.MetricActiveRuns, 1, nil)
	p.SetGauge(ctx, ports.MetricActiveRuns, 0, nil)
	p.ObserveHistogram(ctx, ports.MetricRunDuration, 0.25, nil)

	require.Equal(t, 0.0, testutil.ToFloat64(p.gauges[ports.MetricActiveRuns]))
	count, err := testutil.GatherAndCount(p.Registry(), ports.MetricRunDuration)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestPrometheusInconsistentLabelsDropped(t *testing.T) {
	t.Parallel()

	p := NewPrometheus(nil)
	ctx := context.Background()
	p.IncCounter(ctx, ports.MetricEntitiesProcessed, map[string]string{"kind": "segment", "status": "success"})
	require.NotPanics(t, func() {
		p.IncCounter(ctx, ports.MetricEntitiesProcessed, map[string]string{"kind": "segment"})
	})
	require.Equal(t, 1, testutil.CollectAndCount(p.counters[ports.MetricEntitiesProcessed]))
}

func TestPrometheusNameClashAcrossTypes(t *testing.T) {
	t.Parallel()

	p := NewPrometheus(nil)
	ctx := context.Background()
	p.IncCounter(ctx, "peakflow_clash", nil)
	p.SetGauge(ctx, "peakflow_clash", 3, nil)

	require.NotContains(t, p.gauges, "peakflow_clash")
}

func TestPrometheusHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	p := NewPrometheus(nil)
	p.IncCounter(context.Background(), ports.MetricRunsRejected, nil)

	server := httptest.NewServer(p.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.True(t, strings.Contains(text, ports.MetricRunsRejected+" 1"), text)
	require.Contains(t, text, "# HELP "+ports.MetricRunsRejected)
}
