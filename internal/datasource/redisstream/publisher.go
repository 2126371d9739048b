package redisstream

import (
	"context"
	"fmt"

	"github.com/gabapcia/slotstream/internal/update"
)

// Publisher appends updates to a stream in the format Source reads.
type Publisher struct {
	stream string
	writer StreamWriter
}

func NewPublisher(stream string, writer StreamWriter) *Publisher {
	return &Publisher{stream: stream, writer: writer}
}

// Publish encodes u and appends it to the stream. It returns the ID of the
// new entry.
func (p *Publisher) Publish(ctx context.Context, u update.Update) (string, error) {
	payload, err := Encode(u)
	if err != nil {
		return "", err
	}

	id, err := p.writer.AppendStream(ctx, p.stream, payload)
	if err != nil {
		return "", fmt.Errorf("append to stream %s: %w", p.stream, err)
	}

	return id, nil
}
