// Package redisstream implements a datasource that replays updates stored in
// a Redis stream, and a publisher that appends updates to one.
//
// Every stream entry carries a single msgpack encoded update in its payload
// field. Entries are read in stream order with XREAD and the ID of the last
// delivered entry is saved so a restart continues after it.
package redisstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/update"
)

const (
	// StartFromBeginning reads the whole stream.
	StartFromBeginning = "0"
	// StartFromLatest reads only entries appended after the source started.
	StartFromLatest = "$"

	defaultBatchSize = 100
	defaultBlock     = 2 * time.Second

	// Custom metric names reported through Metrics().Custom.
	MetricEntriesRead  = "entries_read"
	MetricDecodeErrors = "entry_decode_errors"
	MetricKindSkipped  = "entry_kind_skipped"
)

// ErrNoPositionFound is returned by PositionStorage when the datasource never
// saved a position.
var ErrNoPositionFound = errors.New("no stream position found")

// Message is one stream entry.
type Message struct {
	ID      string
	Payload []byte
}

// StreamReader reads entries appended after the entry with ID after. It
// blocks up to block when none are available and then returns an empty
// slice.
type StreamReader interface {
	ReadStream(ctx context.Context, stream, after string, count int64, block time.Duration) ([]Message, error)
}

// StreamWriter appends a payload to a stream and returns the entry ID.
type StreamWriter interface {
	AppendStream(ctx context.Context, stream string, payload []byte) (string, error)
}

// PositionStorage persists the ID of the last entry a datasource delivered.
type PositionStorage interface {
	SaveStreamPosition(ctx context.Context, datasource, id string) error
	LoadStreamPosition(ctx context.Context, datasource string) (string, error)
}

// Source replays update envelopes from a Redis stream.
type Source struct {
	name      string
	stream    string
	reader    StreamReader
	kinds     update.KindSet
	positions PositionStorage
	startID   string
	batchSize int64
	block     time.Duration

	counters datasource.Counters
}

// Compile-time check that Source implements datasource.Datasource.
var _ datasource.Datasource = (*Source)(nil)

func (s *Source) Name() string                { return s.name }
func (s *Source) UpdateTypes() update.KindSet { return s.kinds }
func (s *Source) Metrics() datasource.Metrics { return s.counters.Snapshot() }

func (s *Source) Consume(ctx context.Context, sender datasource.Sender) (datasource.AbortHandle, error) {
	after, err := s.positions.LoadStreamPosition(ctx, s.name)
	switch {
	case errors.Is(err, ErrNoPositionFound):
		after = s.startID
	case err != nil:
		return nil, fmt.Errorf("load stream position: %w", err)
	}

	s.counters.MarkStarted()
	logger.Info(ctx, "starting stream reader",
		"datasource.name", s.name,
		"redisstream.stream", s.stream,
		"redisstream.after", after,
	)

	return datasource.Go(ctx, s.name, sender, func(ctx context.Context) error {
		return s.read(ctx, sender, after)
	}), nil
}

func (s *Source) read(ctx context.Context, sender datasource.Sender, after string) error {
	defer s.savePosition(context.WithoutCancel(ctx), &after)

	for {
		msgs, err := s.reader.ReadStream(ctx, s.stream, after, s.batchSize, s.block)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("read stream %s: %w", s.stream, err)
		}

		for _, msg := range msgs {
			s.counters.Add(MetricEntriesRead, 1)

			if err := s.deliver(ctx, sender, msg); err != nil {
				return err
			}
			after = msg.ID
		}

		if len(msgs) > 0 {
			s.savePosition(ctx, &after)
		}
	}
}

// deliver sends one entry. Entries that cannot be decoded, or that carry a
// kind this source did not declare, are counted and skipped.
func (s *Source) deliver(ctx context.Context, sender datasource.Sender, msg Message) error {
	u, err := Decode(msg.Payload)
	if err != nil {
		s.counters.Add(MetricDecodeErrors, 1)
		logger.Warn(ctx, "skipping undecodable stream entry",
			"datasource.name", s.name,
			"redisstream.id", msg.ID,
			"error", err,
		)
		return nil
	}

	if !s.kinds.Has(u.Kind()) {
		s.counters.Add(MetricKindSkipped, 1)
		return nil
	}

	if err := sender.Send(ctx, u); err != nil {
		s.counters.RecordError()
		return err
	}
	s.counters.RecordSent(u.SlotNumber())

	return nil
}

func (s *Source) savePosition(ctx context.Context, id *string) {
	if *id == StartFromLatest {
		return
	}
	if err := s.positions.SaveStreamPosition(ctx, s.name, *id); err != nil {
		logger.Warn(ctx, "error saving stream position",
			"datasource.name", s.name,
			"redisstream.id", *id,
			"error", err,
		)
	}
}

type nopPositions struct{}

func (nopPositions) SaveStreamPosition(context.Context, string, string) error { return nil }

func (nopPositions) LoadStreamPosition(context.Context, string) (string, error) {
	return "", ErrNoPositionFound
}

type config struct {
	kinds     update.KindSet
	positions PositionStorage
	startID   string
	batchSize int64
	block     time.Duration
}

type Option func(*config)

// New builds a datasource named name that reads stream through reader.
// It declares every update kind unless WithKinds narrows them.
func New(name, stream string, reader StreamReader, opts ...Option) *Source {
	cfg := config{
		kinds:     update.NewKindSet(update.Kinds...),
		positions: nopPositions{},
		startID:   StartFromLatest,
		batchSize: defaultBatchSize,
		block:     defaultBlock,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Source{
		name:      name,
		stream:    stream,
		reader:    reader,
		kinds:     cfg.kinds,
		positions: cfg.positions,
		startID:   cfg.startID,
		batchSize: cfg.batchSize,
		block:     cfg.block,
	}
}

// WithKinds restricts the kinds this source emits. Entries of other kinds
// are skipped.
func WithKinds(kinds ...update.Kind) Option {
	return func(c *config) {
		if set := update.NewKindSet(kinds...); set != 0 {
			c.kinds = set
		}
	}
}

func WithPositionStorage(ps PositionStorage) Option {
	return func(c *config) {
		c.positions = ps
	}
}

// WithStartID sets where to start reading when no position was saved.
func WithStartID(id string) Option {
	return func(c *config) {
		if id != "" {
			c.startID = id
		}
	}
}

func WithBatchSize(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithBlock sets how long a single read waits for new entries.
func WithBlock(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.block = d
		}
	}
}
