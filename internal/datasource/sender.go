package datasource

import (
	"context"
	"sync"

	"github.com/gabapcia/slotstream/internal/update"
)

// ChannelSender is a Sender writing to a plain channel. It is meant for
// running a datasource outside a pipeline, e.g. in tests or small tools.
type ChannelSender struct {
	ch    chan<- update.Update
	kinds update.KindSet

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	err    error
}

// Ensure compile-time compliance with the Sender interface.
var _ Sender = (*ChannelSender)(nil)

// NewChannelSender returns a sender that accepts the given kinds and writes
// them to ch. ch is never closed by the sender.
func NewChannelSender(ch chan<- update.Update, kinds update.KindSet) *ChannelSender {
	return &ChannelSender{ch: ch, kinds: kinds, done: make(chan struct{})}
}

func (s *ChannelSender) Send(ctx context.Context, u update.Update) error {
	if u == nil || !s.kinds.Has(u.Kind()) {
		return ErrUndeclaredKind
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrSenderClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSenderClosed
	case s.ch <- u:
		return nil
	}
}

func (s *ChannelSender) Close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.done)
}

// Done is closed when the producer closed the sender.
func (s *ChannelSender) Done() <-chan struct{} {
	return s.done
}

// Err returns the error the sender was closed with.
func (s *ChannelSender) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
