// Package datasource defines the contract every producer of updates fulfils
// and a few helpers to implement it.
//
// A Datasource is started with Consume, which must return promptly after
// spawning the background task that pushes updates through the Sender. The
// task ends by closing the Sender, with a nil error when the source is
// exhausted or a non-nil one when it failed. The returned AbortHandle stops
// the task on demand.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/slotstream/internal/update"
)

var (
	// ErrSenderClosed is returned by Send once the sender was closed or the
	// datasource aborted. The producing task should stop.
	ErrSenderClosed = errors.New("sender closed")

	// ErrUndeclaredKind is returned by Send for an update whose kind is not in
	// the datasource's declared set.
	ErrUndeclaredKind = errors.New("update kind not declared by datasource")
)

// Datasource is an independent producer of updates.
type Datasource interface {
	// Name is a stable identifier used in logs and metrics.
	Name() string

	// UpdateTypes declares every kind the datasource may emit. It must not
	// change after construction.
	UpdateTypes() update.KindSet

	// Consume starts the production task and returns without waiting for it.
	// A source that cannot start returns a *StartError and spawns nothing.
	Consume(ctx context.Context, sender Sender) (AbortHandle, error)

	// Metrics returns a point-in-time snapshot of the source's counters.
	Metrics() Metrics
}

// Sender is the write end handed to a datasource.
type Sender interface {
	// Send delivers u, blocking according to the pipeline's overflow policy.
	// It fails with ErrUndeclaredKind, ErrSenderClosed or the ctx error.
	Send(ctx context.Context, u update.Update) error

	// Close signals the end of production. A nil err means the source was
	// exhausted; anything else is reported as a runtime failure. Only the
	// first call has an effect.
	Close(err error)
}

// StartError reports a datasource that failed before producing anything.
type StartError struct {
	Datasource string
	Err        error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("datasource %q failed to start: %v", e.Datasource, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// RuntimeError reports a datasource whose task failed after starting.
type RuntimeError struct {
	Datasource string
	Err        error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("datasource %q stopped: %v", e.Datasource, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
