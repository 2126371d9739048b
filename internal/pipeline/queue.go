package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/gabapcia/slotstream/internal/pipe"
)

var errQueueClosed = errors.New("queue closed")

// queue merges the output of every datasource. It has many producers and a
// single consumer, the dispatch loop.
type queue struct {
	mu       sync.Mutex
	items    []pipe.Envelope
	capacity int
	policy   OverflowPolicy
	closed   bool

	notEmpty chan struct{}
	notFull  chan struct{}
	done     chan struct{}
}

func newQueue(capacity int, policy OverflowPolicy) *queue {
	if capacity <= 0 {
		policy = Unbounded
	}

	return &queue{
		capacity: capacity,
		policy:   policy,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (q *queue) hasRoom() bool {
	return q.policy == Unbounded || len(q.items) < q.capacity
}

// push enqueues env. dropped reports that an update was discarded to make
// room or that env itself was discarded.
func (q *queue) push(ctx context.Context, env pipe.Envelope) (dropped bool, err error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return false, errQueueClosed
		}

		if q.hasRoom() {
			q.items = append(q.items, env)
			room := q.hasRoom()
			q.mu.Unlock()

			signal(q.notEmpty)
			if room && q.policy == Block {
				signal(q.notFull)
			}
			return false, nil
		}

		switch q.policy {
		case DropNewest:
			q.mu.Unlock()
			return true, nil
		case DropOldest:
			q.items[0] = pipe.Envelope{}
			q.items = append(q.items[1:], env)
			q.mu.Unlock()
			signal(q.notEmpty)
			return true, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-q.done:
		case <-q.notFull:
		}
	}
}

// pop returns the oldest update. It keeps returning queued updates after
// close and reports false once the queue is closed and empty, or when ctx
// ends while waiting.
func (q *queue) pop(ctx context.Context) (pipe.Envelope, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			env := q.items[0]
			q.items[0] = pipe.Envelope{}
			q.items = q.items[1:]
			q.mu.Unlock()

			signal(q.notFull)
			return env, true
		}
		if q.closed {
			q.mu.Unlock()
			return pipe.Envelope{}, false
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return pipe.Envelope{}, false
		case <-q.done:
		case <-q.notEmpty:
		}
	}
}

// close rejects further pushes and wakes blocked producers. Queued updates
// remain available to pop.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// discard empties the queue and returns how many updates it held.
func (q *queue) discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	return n
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
