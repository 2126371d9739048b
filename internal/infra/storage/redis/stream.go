package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gabapcia/slotstream/internal/datasource/redisstream"
)

// payloadField is the stream entry field holding the encoded update.
const payloadField = "payload"

// streamKey builds the key of an update stream:
//
//	"slotstream:stream:<name>"
func streamKey(stream string) string {
	return key("stream", stream)
}

// ReadStream reads up to count entries appended after the entry with ID
// after, waiting up to block for new ones. Entries without a payload field
// are returned with an empty payload so the caller can account for them.
func (c *client) ReadStream(ctx context.Context, stream, after string, count int64, block time.Duration) ([]redisstream.Message, error) {
	res, err := c.conn.XRead(ctx, &redis.XReadArgs{
		Streams: []string{streamKey(stream), after},
		Count:   count,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var msgs []redisstream.Message
	for _, s := range res {
		for _, entry := range s.Messages {
			payload, _ := entry.Values[payloadField].(string)
			msgs = append(msgs, redisstream.Message{ID: entry.ID, Payload: []byte(payload)})
		}
	}

	return msgs, nil
}

// AppendStream adds payload to the stream and returns the generated entry ID.
func (c *client) AppendStream(ctx context.Context, stream string, payload []byte) (string, error) {
	return c.conn.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(stream),
		Values: map[string]any{payloadField: payload},
	}).Result()
}

var (
	_ redisstream.StreamReader = new(client)
	_ redisstream.StreamWriter = new(client)
)
