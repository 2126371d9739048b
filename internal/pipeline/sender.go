package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/update"
)

// sender is the handle a datasource uses to publish into the merged queue.
type sender struct {
	name    string
	kinds   update.KindSet
	queue   *queue
	metrics *metrics.Collection

	// logCtx carries the run's log fields and outlives its cancellation.
	logCtx context.Context

	mu       sync.Mutex
	handle   datasource.AbortHandle
	rejected bool

	once    sync.Once
	closed  chan struct{}
	onClose func(ctx context.Context, name string, err error)
}

// Compile-time check that sender implements datasource.Sender.
var _ datasource.Sender = (*sender)(nil)

func (s *sender) Send(ctx context.Context, u update.Update) error {
	if u == nil || !s.kinds.Has(u.Kind()) {
		return s.reject(u)
	}

	select {
	case <-s.closed:
		return datasource.ErrSenderClosed
	default:
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	dropped, err := s.queue.push(ctx, pipe.Envelope{Datasource: s.name, Update: u})
	if errors.Is(err, errQueueClosed) {
		return datasource.ErrSenderClosed
	}
	if err != nil {
		return err
	}

	_ = s.metrics.IncrementCounter(ctx, metrics.UpdatesReceived, 1)
	_ = s.metrics.IncrementCounter(ctx, metrics.PerKind(metrics.UpdatesReceived, u.Kind()), 1)
	if dropped {
		_ = s.metrics.IncrementCounter(ctx, metrics.UpdatesDropped, 1)
	}
	return nil
}

// reject refuses an update outside the declared kinds and aborts the
// datasource that sent it.
func (s *sender) reject(u update.Update) error {
	got := "nil update"
	if u != nil {
		got = u.Kind().String()
	}

	s.mu.Lock()
	first := !s.rejected
	s.rejected = true
	h := s.handle
	s.mu.Unlock()

	if first {
		logger.Warn(s.logCtx, "aborting datasource that sent an undeclared kind",
			"datasource.name", s.name,
			"datasource.kinds", s.kinds.String(),
			"update.kind", got,
		)
	}
	if h != nil {
		h.Abort()
	}

	return fmt.Errorf("%w: %s sent %s", datasource.ErrUndeclaredKind, s.name, got)
}

// attach binds the handle Consume returned. A datasource that already sent
// an undeclared kind while starting is aborted right away.
func (s *sender) attach(h datasource.AbortHandle) {
	s.mu.Lock()
	s.handle = h
	rejected := s.rejected
	s.mu.Unlock()

	if rejected {
		h.Abort()
	}
}

func (s *sender) Close(err error) {
	s.once.Do(func() {
		close(s.closed)
		s.onClose(s.logCtx, s.name, err)
	})
}
