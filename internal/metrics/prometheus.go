package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultBuckets covers durations from 10µs to about 40s in nanoseconds.
var defaultBuckets = prometheus.ExponentialBuckets(10_000, 4, 12)

// PrometheusSink exposes metrics on its own registry. Collectors are created
// on first use; counters get the conventional _total suffix.
type PrometheusSink struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry
	factory   promauto.Factory

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

var _ Sink = (*PrometheusSink)(nil)

// PrometheusOption configures a PrometheusSink.
type PrometheusOption func(*PrometheusSink)

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) PrometheusOption {
	return func(s *PrometheusSink) {
		s.buckets = buckets
	}
}

// WithRuntimeCollectors also registers the Go runtime and process collectors.
func WithRuntimeCollectors() PrometheusOption {
	return func(s *PrometheusSink) {
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewPrometheusSink returns a sink whose metrics are prefixed by namespace.
func NewPrometheusSink(namespace string, opts ...PrometheusOption) *PrometheusSink {
	registry := prometheus.NewRegistry()
	s := &PrometheusSink{
		namespace:  namespace,
		buckets:    defaultBuckets,
		registry:   registry,
		factory:    promauto.With(registry),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler serves the sink's registry in the Prometheus text format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Registry returns the registry the sink writes to.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

func (s *PrometheusSink) Initialize(context.Context) error { return nil }
func (s *PrometheusSink) Flush(context.Context) error      { return nil }
func (s *PrometheusSink) Shutdown(context.Context) error   { return nil }

func (s *PrometheusSink) counter(name string) prometheus.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if !ok {
		c = s.factory.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      name + "_total",
			Help:      "Counter " + name,
		})
		s.counters[name] = c
	}
	return c
}

func (s *PrometheusSink) gauge(name string) prometheus.Gauge {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gauges[name]
	if !ok {
		g = s.factory.NewGauge(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      name,
			Help:      "Gauge " + name,
		})
		s.gauges[name] = g
	}
	return g
}

func (s *PrometheusSink) histogram(name string) prometheus.Histogram {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histograms[name]
	if !ok {
		h = s.factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      name,
			Help:      "Histogram " + name,
			Buckets:   s.buckets,
		})
		s.histograms[name] = h
	}
	return h
}

func (s *PrometheusSink) UpdateGauge(_ context.Context, name string, value float64) error {
	s.gauge(name).Set(value)
	return nil
}

func (s *PrometheusSink) IncrementCounter(_ context.Context, name string, delta uint64) error {
	s.counter(name).Add(float64(delta))
	return nil
}

func (s *PrometheusSink) RecordHistogram(_ context.Context, name string, value float64) error {
	s.histogram(name).Observe(value)
	return nil
}
