// Package redis implements the storage ports of slotstream on top of Redis:
// crawler checkpoints, stream positions, idempotency claims, watched account
// sets and the update stream itself.
package redis

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every key written by this package.
const keyPrefix = "slotstream"

func key(parts ...string) string {
	k := keyPrefix
	for _, p := range parts {
		k = fmt.Sprintf("%s:%s", k, p)
	}
	return k
}

type client struct {
	conn *redis.Client
}

func (c *client) Close() error {
	return c.conn.Close()
}

// NewClient connects to the Redis server at addr and verifies the
// connection with a PING.
func NewClient(ctx context.Context, addr, username, password string, db int) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	return &client{
		conn: conn,
	}, nil
}
