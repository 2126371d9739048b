// Package metrics provides the process wide metrics collection shared by the
// pipeline, its pipes and processors.
//
// A Collection fans every operation out to a set of sinks. Sinks are
// internally synchronized, so a Collection can be used from any goroutine.
// Callers must not assume that several updates issued one after the other
// are observed atomically.
package metrics

import (
	"context"
	"errors"
	"time"
)

// Sink is a metrics backend.
type Sink interface {
	Initialize(ctx context.Context) error
	Flush(ctx context.Context) error
	// Shutdown releases the sink. It is called once, after a final Flush.
	Shutdown(ctx context.Context) error

	UpdateGauge(ctx context.Context, name string, value float64) error
	IncrementCounter(ctx context.Context, name string, delta uint64) error
	RecordHistogram(ctx context.Context, name string, value float64) error
}

// Collection fans operations out to every registered sink.
type Collection struct {
	sinks []Sink
}

// NewCollection returns a collection over sinks. A collection without sinks
// accepts and discards everything.
func NewCollection(sinks ...Sink) *Collection {
	return &Collection{sinks: sinks}
}

func (c *Collection) each(f func(Sink) error) error {
	if c == nil {
		return nil
	}

	var errs []error
	for _, s := range c.sinks {
		if err := f(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Initialize prepares every sink. It is called once when the pipeline starts.
func (c *Collection) Initialize(ctx context.Context) error {
	return c.each(func(s Sink) error { return s.Initialize(ctx) })
}

// Flush pushes buffered values out of every sink.
func (c *Collection) Flush(ctx context.Context) error {
	return c.each(func(s Sink) error { return s.Flush(ctx) })
}

// Shutdown releases every sink. It is called once when the pipeline stops.
func (c *Collection) Shutdown(ctx context.Context) error {
	return c.each(func(s Sink) error { return s.Shutdown(ctx) })
}

func (c *Collection) UpdateGauge(ctx context.Context, name string, value float64) error {
	return c.each(func(s Sink) error { return s.UpdateGauge(ctx, name, value) })
}

func (c *Collection) IncrementCounter(ctx context.Context, name string, delta uint64) error {
	return c.each(func(s Sink) error { return s.IncrementCounter(ctx, name, delta) })
}

func (c *Collection) RecordHistogram(ctx context.Context, name string, value float64) error {
	return c.each(func(s Sink) error { return s.RecordHistogram(ctx, name, value) })
}

// RecordDuration records d in nanoseconds.
func (c *Collection) RecordDuration(ctx context.Context, name string, d time.Duration) error {
	return c.RecordHistogram(ctx, name, float64(d.Nanoseconds()))
}
