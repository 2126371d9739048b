package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/pkg/resilience/retry"
)

func init() {
	logger.Init("error")
}

type item string

func (i item) Key() string { return "item:" + string(i) }

type memoryGuard struct {
	mu       sync.Mutex
	claimed  map[string]bool
	done     map[string]bool
	markErr  error
	claimErr error
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{claimed: map[string]bool{}, done: map[string]bool{}}
}

func (g *memoryGuard) Claim(_ context.Context, key string, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.claimErr != nil:
		return g.claimErr
	case g.done[key]:
		return ErrAlreadyFinished
	case g.claimed[key]:
		return ErrStillInProgress
	}
	g.claimed[key] = true
	return nil
}

func (g *memoryGuard) MarkComplete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.markErr != nil {
		return g.markErr
	}
	g.done[key] = true
	return nil
}

func counting(calls *int, err error) Processor[item] {
	return Func[item](func(context.Context, item, *metrics.Collection) error {
		*calls++
		return err
	})
}

func TestFunc(t *testing.T) {
	var got item
	p := Func[item](func(_ context.Context, in item, _ *metrics.Collection) error {
		got = in
		return nil
	})

	require.NoError(t, p.Process(t.Context(), "a", nil))
	assert.Equal(t, item("a"), got)
	assert.NoError(t, Nop[item]().Process(t.Context(), "b", nil))
}

func TestWithRetry(t *testing.T) {
	r := retry.New(retry.WithAttempts(3), retry.WithDelay(time.Millisecond), retry.WithMaxDelay(time.Millisecond))

	t.Run("should retry until success", func(t *testing.T) {
		calls := 0
		p := WithRetry(Func[item](func(context.Context, item, *metrics.Collection) error {
			calls++
			if calls < 3 {
				return errors.New("database unavailable")
			}
			return nil
		}), r)

		assert.NoError(t, p.Process(t.Context(), "a", nil))
		assert.Equal(t, 3, calls)
	})

	t.Run("should stop on unrecoverable errors", func(t *testing.T) {
		// Arrange
		calls := 0
		invalid := errors.New("constraint violation")

		// Act
		err := WithRetry(counting(&calls, retry.Unrecoverable(invalid)), r).Process(t.Context(), "a", nil)

		// Assert
		assert.ErrorIs(t, err, invalid)
		assert.Equal(t, 1, calls)
	})
}

func TestSequence(t *testing.T) {
	var first, second, third int
	boom := errors.New("boom")

	err := Sequence(counting(&first, nil), counting(&second, boom), counting(&third, nil)).Process(t.Context(), "a", nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Zero(t, third)
}

func TestIdempotent(t *testing.T) {
	t.Run("should process a key once", func(t *testing.T) {
		// Arrange
		sink := metrics.NewLogSink()
		m := metrics.NewCollection(sink)
		guard := newMemoryGuard()
		calls := 0
		p := Idempotent(counting(&calls, nil), guard, time.Minute)

		// Act
		require.NoError(t, p.Process(t.Context(), "a", m))
		require.NoError(t, p.Process(t.Context(), "a", m))
		require.NoError(t, p.Process(t.Context(), "b", m))

		// Assert
		assert.Equal(t, 2, calls)
		assert.True(t, guard.done["item:a"])
		assert.Equal(t, uint64(1), sink.Counter(DuplicatesSkipped))
	})

	t.Run("should report keys claimed by another worker", func(t *testing.T) {
		// Arrange
		guard := newMemoryGuard()
		guard.claimed["item:a"] = true
		calls := 0

		// Act
		err := Idempotent(counting(&calls, nil), guard, time.Minute).Process(t.Context(), "a", nil)

		// Assert
		assert.ErrorIs(t, err, ErrStillInProgress)
		assert.Zero(t, calls)
	})

	t.Run("should not mark failed inputs", func(t *testing.T) {
		// Arrange
		guard := newMemoryGuard()
		boom := errors.New("boom")
		calls := 0

		// Act
		err := Idempotent(counting(&calls, boom), guard, time.Minute).Process(t.Context(), "a", nil)

		// Assert
		assert.ErrorIs(t, err, boom)
		assert.False(t, guard.done["item:a"])
	})

	t.Run("should return guard failures", func(t *testing.T) {
		// Arrange
		guard := newMemoryGuard()
		guard.claimErr = errors.New("redis down")
		calls := 0

		// Act
		err := Idempotent(counting(&calls, nil), guard, time.Minute).Process(t.Context(), "a", nil)

		// Assert
		assert.ErrorContains(t, err, "redis down")
		assert.Zero(t, calls)
	})

	t.Run("should log mark failures instead of returning them", func(t *testing.T) {
		// Arrange
		guard := newMemoryGuard()
		guard.markErr = errors.New("redis down")
		calls := 0

		// Act
		err := Idempotent(counting(&calls, nil), guard, time.Minute).Process(t.Context(), "a", nil)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}
