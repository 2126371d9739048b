package datasource

import (
	"context"
	"errors"
	"sync"
)

// AbortHandle stops a running datasource task.
type AbortHandle interface {
	// Abort requests the task to stop. It never blocks and is safe to call
	// more than once.
	Abort()

	// Done is closed once the task has returned.
	Done() <-chan struct{}
}

type abortHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

var _ AbortHandle = (*abortHandle)(nil)

func (h *abortHandle) Abort()                { h.cancel() }
func (h *abortHandle) Done() <-chan struct{} { return h.done }

// Go runs task in its own goroutine under a cancelable context derived from
// ctx and returns the handle that aborts it.
//
// When task returns, sender is closed with its error. Returning after an
// abort or a cancellation of ctx counts as a normal end.
func Go(ctx context.Context, name string, sender Sender, task func(ctx context.Context) error) AbortHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &abortHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()

		err := task(ctx)
		switch {
		case errors.Is(err, ErrSenderClosed):
			err = nil
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			err = nil
		}

		if err != nil {
			err = &RuntimeError{Datasource: name, Err: err}
		}
		sender.Close(err)
	}()

	return h
}

// group aborts several handles at once. It is used by datasources that run
// more than one task.
type group struct {
	handles []AbortHandle
	once    sync.Once
	done    chan struct{}
}

// Group combines handles into one. Done closes once every member is done.
func Group(handles ...AbortHandle) AbortHandle {
	g := &group{handles: handles, done: make(chan struct{})}
	go func() {
		for _, h := range handles {
			<-h.Done()
		}
		close(g.done)
	}()
	return g
}

func (g *group) Abort() {
	g.once.Do(func() {
		for _, h := range g.handles {
			h.Abort()
		}
	})
}

func (g *group) Done() <-chan struct{} { return g.done }
