package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gabapcia/slotstream/internal/metrics"

// OTelSink records metrics as OpenTelemetry instruments. Instruments are
// created on first use.
type OTelSink struct {
	provider metric.MeterProvider
	meter    metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	gauges     map[string]metric.Float64Gauge
	histograms map[string]metric.Float64Histogram
}

var _ Sink = (*OTelSink)(nil)

// NewOTelSink records through provider. A nil provider uses the global one.
func NewOTelSink(provider metric.MeterProvider) *OTelSink {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	return &OTelSink{
		provider:   provider,
		meter:      provider.Meter(instrumentationName),
		counters:   make(map[string]metric.Int64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (s *OTelSink) Initialize(context.Context) error { return nil }

// Flush forces an export when the provider supports it.
func (s *OTelSink) Flush(ctx context.Context) error {
	if f, ok := s.provider.(interface{ ForceFlush(context.Context) error }); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

// Shutdown leaves the provider running. It is owned by telemetry.Init.
func (s *OTelSink) Shutdown(context.Context) error {
	return nil
}

func (s *OTelSink) UpdateGauge(ctx context.Context, name string, value float64) error {
	s.mu.Lock()
	g, ok := s.gauges[name]
	if !ok {
		var err error
		if g, err = s.meter.Float64Gauge(name); err != nil {
			s.mu.Unlock()
			return err
		}
		s.gauges[name] = g
	}
	s.mu.Unlock()

	g.Record(ctx, value)
	return nil
}

func (s *OTelSink) IncrementCounter(ctx context.Context, name string, delta uint64) error {
	s.mu.Lock()
	c, ok := s.counters[name]
	if !ok {
		var err error
		if c, err = s.meter.Int64Counter(name); err != nil {
			s.mu.Unlock()
			return err
		}
		s.counters[name] = c
	}
	s.mu.Unlock()

	c.Add(ctx, int64(delta))
	return nil
}

func (s *OTelSink) RecordHistogram(ctx context.Context, name string, value float64) error {
	s.mu.Lock()
	h, ok := s.histograms[name]
	if !ok {
		var err error
		if h, err = s.meter.Float64Histogram(name); err != nil {
			s.mu.Unlock()
			return err
		}
		s.histograms[name] = h
	}
	s.mu.Unlock()

	h.Record(ctx, value)
	return nil
}
