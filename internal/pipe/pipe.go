// Package pipe binds decoders, a filter chain and a processor into the unit
// that handles one update kind.
//
// Every pipe runs the same three steps: decode, filter, process. Updates no
// decoder recognizes are dropped and counted. Malformed payloads are logged,
// dropped and counted. Processor errors are returned to the caller as they
// are, pipes never retry.
package pipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/slotstream/internal/filter"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/update"
)

// ErrKindMismatch is returned when a pipe is handed an update of a kind it
// does not handle.
var ErrKindMismatch = errors.New("update kind does not match pipe")

// Envelope is an update as it leaves the merged queue, tagged with the
// datasource that produced it.
type Envelope struct {
	Datasource string
	Update     update.Update
}

// Pipe handles the updates of a single kind.
type Pipe interface {
	// Name identifies the pipe in logs and errors.
	Name() string

	// Kind is the update kind the pipe accepts.
	Kind() update.Kind

	// Run decodes, filters and processes one update. Only processor errors
	// are returned.
	Run(ctx context.Context, env Envelope, m *metrics.Collection) error
}

// ProcessorError is a processor failure as surfaced to the pipeline.
type ProcessorError struct {
	Pipe       string
	Kind       update.Kind
	Datasource string
	Slot       uint64
	Err        error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("pipe %s: process %s from %s at slot %d: %v", e.Pipe, e.Kind, e.Datasource, e.Slot, e.Err)
}

func (e *ProcessorError) Unwrap() error { return e.Err }

// Meta is the context every pipe input carries.
type Meta struct {
	Datasource string
	Slot       uint64
}

func (m Meta) SlotNumber() uint64 { return m.Slot }

func (m Meta) DatasourceName() string { return m.Datasource }

var (
	_ filter.Slotted = Meta{}
	_ filter.Sourced = Meta{}
)

func metaOf(env Envelope) Meta {
	return Meta{Datasource: env.Datasource, Slot: env.Update.SlotNumber()}
}

func mismatch(p Pipe, env Envelope) error {
	return fmt.Errorf("%w: %s got %s", ErrKindMismatch, p.Name(), env.Update.Kind())
}

func noMatch(ctx context.Context, m *metrics.Collection) {
	_ = m.IncrementCounter(ctx, metrics.UpdatesNoMatch, 1)
}

func filteredOut(ctx context.Context, m *metrics.Collection) {
	_ = m.IncrementCounter(ctx, metrics.FilteredOut, 1)
}

func decodeFailed(ctx context.Context, m *metrics.Collection, pipe string, meta Meta, err error) {
	_ = m.IncrementCounter(ctx, metrics.DecodeErrors, 1)
	logger.Warn(ctx, "dropping undecodable update",
		"pipe.name", pipe,
		"datasource.name", meta.Datasource,
		"update.slot", meta.Slot,
		"error", err,
	)
}

func processFailed(ctx context.Context, m *metrics.Collection, err error) error {
	_ = m.IncrementCounter(ctx, metrics.ProcessorErrors, 1)
	return err
}
