package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/update"
)

func envelope(slot uint64) pipe.Envelope {
	return pipe.Envelope{Datasource: "test", Update: update.Account{Slot: slot}}
}

func drainSlots(t *testing.T, q *queue) []uint64 {
	t.Helper()

	q.close()
	var slots []uint64
	for {
		env, ok := q.pop(t.Context())
		if !ok {
			return slots
		}
		slots = append(slots, env.Update.SlotNumber())
	}
}

func fill(t *testing.T, q *queue, n int) (dropped int) {
	t.Helper()

	for i := 1; i <= n; i++ {
		d, err := q.push(t.Context(), envelope(uint64(i)))
		require.NoError(t, err)
		if d {
			dropped++
		}
	}
	return dropped
}

func TestQueue_OverflowPolicies(t *testing.T) {
	t.Run("should keep everything in order when unbounded", func(t *testing.T) {
		q := newQueue(0, Block)

		assert.Zero(t, fill(t, q, 5))
		assert.Equal(t, []uint64{1, 2, 3, 4, 5}, drainSlots(t, q))
	})

	t.Run("should keep the first updates when dropping newest", func(t *testing.T) {
		q := newQueue(3, DropNewest)

		assert.Equal(t, 2, fill(t, q, 5))
		assert.Equal(t, []uint64{1, 2, 3}, drainSlots(t, q))
	})

	t.Run("should keep the last updates when dropping oldest", func(t *testing.T) {
		q := newQueue(3, DropOldest)

		assert.Equal(t, 2, fill(t, q, 5))
		assert.Equal(t, []uint64{3, 4, 5}, drainSlots(t, q))
	})

	t.Run("should wait for room and lose nothing when blocking", func(t *testing.T) {
		q := newQueue(2, Block)
		assert.Zero(t, fill(t, q, 2))

		pushed := make(chan error, 1)
		go func() {
			_, err := q.push(context.Background(), envelope(3))
			pushed <- err
		}()

		select {
		case <-pushed:
			t.Fatal("push should block on a full queue")
		case <-time.After(20 * time.Millisecond):
		}

		env, ok := q.pop(t.Context())
		require.True(t, ok)
		assert.Equal(t, uint64(1), env.Update.SlotNumber())

		select {
		case err := <-pushed:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("push should resume once room is available")
		}

		assert.Equal(t, []uint64{2, 3}, drainSlots(t, q))
	})

	t.Run("should give up blocking when the context ends", func(t *testing.T) {
		q := newQueue(1, Block)
		fill(t, q, 1)

		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		_, err := q.push(ctx, envelope(2))

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("should wake blocked producers on close", func(t *testing.T) {
		q := newQueue(1, Block)
		fill(t, q, 1)

		pushed := make(chan error, 1)
		go func() {
			_, err := q.push(context.Background(), envelope(2))
			pushed <- err
		}()

		time.Sleep(10 * time.Millisecond)
		q.close()

		select {
		case err := <-pushed:
			assert.ErrorIs(t, err, errQueueClosed)
		case <-time.After(time.Second):
			t.Fatal("close should release the producer")
		}
	})
}

func TestQueue_Pop(t *testing.T) {
	t.Run("should return queued updates after close", func(t *testing.T) {
		q := newQueue(0, Unbounded)
		fill(t, q, 2)
		q.close()

		_, err := q.push(t.Context(), envelope(3))
		assert.ErrorIs(t, err, errQueueClosed)

		assert.Equal(t, 2, q.len())
		assert.Equal(t, []uint64{1, 2}, drainSlots(t, q))
	})

	t.Run("should wait for an update", func(t *testing.T) {
		q := newQueue(0, Unbounded)

		go func() {
			time.Sleep(10 * time.Millisecond)
			_, _ = q.push(context.Background(), envelope(7))
		}()

		env, ok := q.pop(t.Context())

		require.True(t, ok)
		assert.Equal(t, uint64(7), env.Update.SlotNumber())
	})

	t.Run("should stop waiting when the context ends", func(t *testing.T) {
		q := newQueue(0, Unbounded)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, ok := q.pop(ctx)

		assert.False(t, ok)
	})

	t.Run("should empty the queue on discard", func(t *testing.T) {
		q := newQueue(0, Unbounded)
		fill(t, q, 4)

		assert.Equal(t, 4, q.discard())
		assert.Zero(t, q.len())
	})
}

func TestPolicies(t *testing.T) {
	t.Run("should round trip overflow policy names", func(t *testing.T) {
		for p := range overflowPolicyNames {
			parsed, err := ParseOverflowPolicy(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, parsed)
		}

		_, err := ParseOverflowPolicy("spill")
		assert.ErrorIs(t, err, ErrUnknownPolicy)
	})

	t.Run("should parse shutdown strategies", func(t *testing.T) {
		s, err := ParseShutdownStrategy("IMMEDIATE")
		require.NoError(t, err)
		assert.Equal(t, Immediate, s)

		_, err = ParseShutdownStrategy("later")
		assert.ErrorIs(t, err, ErrUnknownPolicy)
	})

	t.Run("should describe error policies", func(t *testing.T) {
		halt, err := ParseErrorPolicy("halt")
		require.NoError(t, err)
		assert.Equal(t, Halt, halt(update.KindAccount, nil))

		cont, err := ParseErrorPolicy("continue")
		require.NoError(t, err)
		assert.Equal(t, Continue, cont(update.KindAccount, nil))

		_, err = ParseErrorPolicy("panic")
		assert.ErrorIs(t, err, ErrUnknownPolicy)
	})

	t.Run("should name every state", func(t *testing.T) {
		assert.Equal(t, "draining", StateDraining.String())
		assert.Equal(t, "state(9)", State(9).String())
	})
}
