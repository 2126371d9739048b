package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gabapcia/slotstream/internal/processor"
)

// idempotencyDone is the terminal value of a claim whose input was fully
// processed.
const idempotencyDone = "done"

// idempotencyKey builds the key tracking one processor input:
//
//	"slotstream:idempotency:<input key>"
func idempotencyKey(inputKey string) string {
	return key("idempotency", inputKey)
}

// Claim reserves inputKey for processing.
//
// Behavior:
//   - If the key is already marked as "done", it returns processor.ErrAlreadyFinished.
//   - If the key exists but is not "done", it returns processor.ErrStillInProgress.
//   - Otherwise, it stores an empty value with ttl so a crashed worker's
//     claim eventually expires.
func (c *client) Claim(ctx context.Context, inputKey string, ttl time.Duration) error {
	k := idempotencyKey(inputKey)

	val, err := c.conn.Get(ctx, k).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	if val == idempotencyDone {
		return processor.ErrAlreadyFinished
	}

	ok, err := c.conn.SetNX(ctx, k, "", ttl).Result()
	if err != nil {
		return err
	}

	if !ok {
		return processor.ErrStillInProgress
	}

	return nil
}

// MarkComplete marks inputKey as processed. The marker never expires.
func (c *client) MarkComplete(ctx context.Context, inputKey string) error {
	return c.conn.Set(ctx, idempotencyKey(inputKey), idempotencyDone, 0).Err()
}

// Compile-time check to ensure *client implements processor.IdempotencyGuard.
var _ processor.IdempotencyGuard = new(client)
