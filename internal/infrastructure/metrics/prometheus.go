package metrics

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexisbeaulieu97/peakflow/internal/logger"
	"github.com/alexisbeaulieu97/peakflow/internal/ports"
)

// Prometheus implements ports.MetricsCollector on a private registry. Vectors
// are created on first use; the label keys seen then are fixed for the name.
type Prometheus struct {
	registry *prometheus.Registry
	logger   *logger.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

var _ ports.MetricsCollector = (*Prometheus)(nil)

// NewPrometheus creates a collector with its own registry.
func NewPrometheus(log *logger.Logger) *Prometheus {
	if log == nil {
		log = logger.Nop()
	}
	return &Prometheus{
		registry:   prometheus.NewRegistry(),
		logger:     log.With("component", "metrics"),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) IncCounter(_ context.Context, name string, labels map[string]string) {
	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help(name)}, labelKeys(labels))
		if !p.register(name, vec) {
			p.mu.Unlock()
			return
		}
		p.counters[name] = vec
	}
	p.mu.Unlock()

	counter, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		p.reject(name, err)
		return
	}
	counter.Inc()
}

func (p *Prometheus) SetGauge(_ context.Context, name string, value float64, labels map[string]string) {
	p.mu.Lock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help(name)}, labelKeys(labels))
		if !p.register(name, vec) {
			p.mu.Unlock()
			return
		}
		p.gauges[name] = vec
	}
	p.mu.Unlock()

	gauge, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		p.reject(name, err)
		return
	}
	gauge.Set(value)
}

func (p *Prometheus) ObserveHistogram(_ context.Context, name string, value float64, labels map[string]string) {
	p.mu.Lock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    help(name),
			Buckets: prometheus.DefBuckets,
		}, labelKeys(labels))
		if !p.register(name, vec) {
			p.mu.Unlock()
			return
		}
		p.histograms[name] = vec
	}
	p.mu.Unlock()

	observer, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		p.reject(name, err)
		return
	}
	observer.Observe(value)
}

// register must be called with p.mu held.
func (p *Prometheus) register(name string, c prometheus.Collector) bool {
	if err := p.registry.Register(c); err != nil {
		p.reject(name, err)
		return false
	}
	return true
}

func (p *Prometheus) reject(name string, err error) {
	p.logger.With("metric", name).Error(err, "metric observation dropped")
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var helpText = map[string]string{
	ports.MetricRunsTotal:         "Completed workflow runs by status.",
	ports.MetricRunDuration:       "Wall time of workflow runs in seconds.",
	ports.MetricRunsRejected:      "Workflow submissions rejected because a run was in flight.",
	ports.MetricActiveRuns:        "Number of workflow runs currently executing.",
	ports.MetricEntitiesProcessed: "Entities processed by kind and status.",
}

func help(name string) string {
	if text, ok := helpText[name]; ok {
		return text
	}
	return name
}
