package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gabapcia/slotstream/internal/datasource/redisstream"
	"github.com/gabapcia/slotstream/internal/datasource/rpcblock"
)

// checkpointKey builds the key holding the last slot a crawler emitted:
//
//	"slotstream:checkpoint:<datasource>"
func checkpointKey(datasource string) string {
	return key("checkpoint", datasource)
}

// positionKey builds the key holding the last stream entry a reader
// delivered:
//
//	"slotstream:position:<datasource>"
func positionKey(datasource string) string {
	return key("position", datasource)
}

// SaveCheckpoint persists the last slot emitted by the given datasource.
// The key never expires.
func (c *client) SaveCheckpoint(ctx context.Context, datasource string, slot uint64) error {
	return c.conn.Set(ctx, checkpointKey(datasource), strconv.FormatUint(slot, 10), 0).Err()
}

// LoadCheckpoint returns the last saved slot, or rpcblock.ErrNoCheckpointFound
// when the datasource never saved one.
func (c *client) LoadCheckpoint(ctx context.Context, datasource string) (uint64, error) {
	val, err := c.conn.Get(ctx, checkpointKey(datasource)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = rpcblock.ErrNoCheckpointFound
		}

		return 0, err
	}

	slot, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid checkpoint %q for %s: %w", val, datasource, err)
	}

	return slot, nil
}

func (c *client) SaveStreamPosition(ctx context.Context, datasource, id string) error {
	return c.conn.Set(ctx, positionKey(datasource), id, 0).Err()
}

// LoadStreamPosition returns the ID of the last delivered entry, or
// redisstream.ErrNoPositionFound when none was saved.
func (c *client) LoadStreamPosition(ctx context.Context, datasource string) (string, error) {
	val, err := c.conn.Get(ctx, positionKey(datasource)).Result()
	if errors.Is(err, redis.Nil) {
		return "", redisstream.ErrNoPositionFound
	}

	return val, err
}

var (
	_ rpcblock.CheckpointStorage = new(client)
	_ redisstream.PositionStorage = new(client)
)
