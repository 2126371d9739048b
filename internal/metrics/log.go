package metrics

import (
	"context"
	"maps"
	"math"
	"sort"
	"sync"

	"github.com/gabapcia/slotstream/internal/pkg/logger"
)

// HistogramSummary aggregates the observations recorded under one name.
type HistogramSummary struct {
	Count uint64
	Sum   float64
	Min   float64
	Max   float64
}

// Mean returns the average observation, zero when nothing was recorded.
func (h HistogramSummary) Mean() float64 {
	if h.Count == 0 {
		return 0
	}
	return h.Sum / float64(h.Count)
}

// Snapshot is a copy of everything a LogSink aggregated.
type Snapshot struct {
	Counters   map[string]uint64
	Gauges     map[string]float64
	Histograms map[string]HistogramSummary
}

// LogSink keeps metrics in memory and writes a summary to the logger on
// every flush. Counters are cumulative over the sink's lifetime.
type LogSink struct {
	mu         sync.Mutex
	counters   map[string]uint64
	gauges     map[string]float64
	histograms map[string]HistogramSummary
}

// Ensure compile-time compliance with the Sink interface.
var _ Sink = (*LogSink)(nil)

// NewLogSink returns an empty LogSink.
func NewLogSink() *LogSink {
	return &LogSink{
		counters:   make(map[string]uint64),
		gauges:     make(map[string]float64),
		histograms: make(map[string]HistogramSummary),
	}
}

func (s *LogSink) Initialize(ctx context.Context) error {
	return nil
}

func (s *LogSink) Flush(ctx context.Context) error {
	snap := s.Snapshot()

	names := make([]string, 0, len(snap.Counters))
	for name := range snap.Counters {
		names = append(names, name)
	}
	sort.Strings(names)

	kv := make([]any, 0, 2*(len(snap.Counters)+len(snap.Gauges)+len(snap.Histograms)))
	for _, name := range names {
		kv = append(kv, "counter."+name, snap.Counters[name])
	}
	for name, v := range snap.Gauges {
		kv = append(kv, "gauge."+name, v)
	}
	for name, h := range snap.Histograms {
		kv = append(kv, "histogram."+name+".count", h.Count, "histogram."+name+".mean", h.Mean())
	}

	logger.Info(ctx, "metrics flushed", kv...)
	return nil
}

// Shutdown is a no-op. The pipeline flushes right before shutting sinks
// down, so flushing again would log the final summary twice.
func (s *LogSink) Shutdown(context.Context) error {
	return nil
}

func (s *LogSink) UpdateGauge(_ context.Context, name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gauges[name] = value
	return nil
}

func (s *LogSink) IncrementCounter(_ context.Context, name string, delta uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[name] += delta
	return nil
}

func (s *LogSink) RecordHistogram(_ context.Context, name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histograms[name]
	if !ok {
		h = HistogramSummary{Min: math.Inf(1), Max: math.Inf(-1)}
	}
	h.Count++
	h.Sum += value
	h.Min = math.Min(h.Min, value)
	h.Max = math.Max(h.Max, value)
	s.histograms[name] = h
	return nil
}

// Counter returns the current value of a counter.
func (s *LogSink) Counter(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

// Gauge returns the last value set for a gauge.
func (s *LogSink) Gauge(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gauges[name]
}

// Snapshot copies the aggregated values.
func (s *LogSink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Counters:   maps.Clone(s.counters),
		Gauges:     maps.Clone(s.gauges),
		Histograms: maps.Clone(s.histograms),
	}
}
