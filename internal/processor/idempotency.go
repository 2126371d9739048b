package processor

import (
	"context"
	"errors"
	"time"

	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
)

var (
	// ErrStillInProgress indicates that another worker holds the claim for the key.
	ErrStillInProgress = errors.New("processing still in progress")

	// ErrAlreadyFinished indicates that the key was processed successfully before.
	ErrAlreadyFinished = errors.New("processing already finished")
)

// DuplicatesSkipped counts inputs skipped because they were already processed.
const DuplicatesSkipped = "processor_duplicates_skipped"

// Keyed is implemented by inputs that carry a deterministic identity, such
// as signature, instruction index, stack height and slot.
type Keyed interface {
	Key() string
}

// IdempotencyGuard coordinates workers so that each key is processed once.
type IdempotencyGuard interface {
	// Claim reserves key for ttl. It returns ErrStillInProgress when another
	// worker holds the claim and ErrAlreadyFinished when the key is done.
	Claim(ctx context.Context, key string, ttl time.Duration) error

	// MarkComplete records key as done permanently.
	MarkComplete(ctx context.Context, key string) error
}

type idempotent[I Keyed] struct {
	next  Processor[I]
	guard IdempotencyGuard
	ttl   time.Duration
}

// Idempotent skips inputs whose key was already processed and claims the
// key for ttl while next runs. Wrap retries inside it, not around it.
func Idempotent[I Keyed](next Processor[I], guard IdempotencyGuard, ttl time.Duration) Processor[I] {
	return &idempotent[I]{next: next, guard: guard, ttl: ttl}
}

func (p *idempotent[I]) Process(ctx context.Context, input I, m *metrics.Collection) error {
	key := input.Key()

	if err := p.guard.Claim(ctx, key, p.ttl); err != nil {
		if errors.Is(err, ErrAlreadyFinished) {
			_ = m.IncrementCounter(ctx, DuplicatesSkipped, 1)
			return nil
		}
		return err
	}

	if err := p.next.Process(ctx, input, m); err != nil {
		return err
	}

	if err := p.guard.MarkComplete(ctx, key); err != nil {
		logger.Error(ctx, "error marking input as processed",
			"processor.key", key,
			"error", err,
		)
	}

	return nil
}
