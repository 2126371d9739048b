// Package rpcblock implements a datasource that crawls confirmed blocks
// over the Solana JSON-RPC API.
//
// The crawler polls getSlot for the chain tip and fetches every slot up to
// it with getBlock, emitting one Transaction update per transaction followed
// by the Block update that closes the slot. Skipped slots are counted and
// passed over.
//
// The crawler only reads the checkpoint. It is written by the pipe returned
// from Source.CheckpointPipe once a slot's block was dispatched, so a restart
// resumes after the last processed slot, never after one that was only
// queued.
package rpcblock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/pkg/resilience/retry"
	"github.com/gabapcia/slotstream/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/slotstream/internal/pkg/x/chflow"
	"github.com/gabapcia/slotstream/internal/update"
)

const (
	defaultCommitment   = "confirmed"
	defaultPollInterval = 400 * time.Millisecond

	// Custom metric names reported through Metrics().Custom.
	MetricBlocksFetched = "blocks_fetched"
	MetricSlotsSkipped  = "slots_skipped"
	MetricTransactions  = "transactions_sent"
)

// Source is a datasource crawling blocks from a JSON-RPC node.
type Source struct {
	name string
	conn jsonrpc.Client

	startSlot          *uint64
	commitment         string
	pollInterval       time.Duration
	includeTxs         bool
	keepVotes          bool
	limiter            *rate.Limiter
	retry              retry.Retry
	checkpointStorage  CheckpointStorage
	checkpointInterval uint64

	counters datasource.Counters

	mu            sync.Mutex
	committed     bool
	lastCommitted uint64
}

// Compile-time check that Source implements datasource.Datasource.
var _ datasource.Datasource = (*Source)(nil)

func (s *Source) Name() string { return s.name }

func (s *Source) UpdateTypes() update.KindSet {
	kinds := update.NewKindSet(update.KindBlock)
	if s.includeTxs {
		kinds = kinds.With(update.KindTransaction)
	}
	return kinds
}

func (s *Source) Metrics() datasource.Metrics {
	return s.counters.Snapshot()
}

// Consume resolves the first slot to fetch and starts crawling from it.
// Failing to resolve the first slot is a start error.
func (s *Source) Consume(ctx context.Context, sender datasource.Sender) (datasource.AbortHandle, error) {
	first, err := s.firstSlot(ctx)
	if err != nil {
		return nil, err
	}

	s.counters.MarkStarted()
	logger.Info(ctx, "starting block crawler",
		"datasource.name", s.name,
		"rpcblock.first_slot", first,
		"rpcblock.commitment", s.commitment,
	)

	return datasource.Go(ctx, s.name, sender, func(ctx context.Context) error {
		return s.crawl(ctx, sender, first)
	}), nil
}

func (s *Source) firstSlot(ctx context.Context) (uint64, error) {
	checkpoint, err := s.checkpointStorage.LoadCheckpoint(ctx, s.name)
	switch {
	case err == nil:
		return checkpoint + 1, nil
	case !errors.Is(err, ErrNoCheckpointFound):
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}

	if s.startSlot != nil {
		return *s.startSlot, nil
	}

	return s.latestSlot(ctx)
}

func (s *Source) call(ctx context.Context, out any, method string, params ...any) error {
	return s.retry.Execute(ctx, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return retry.Unrecoverable(err)
		}

		err := s.conn.Call(ctx, out, method, params...)
		if jsonrpc.IsSlotSkipped(err) || jsonrpc.IsNotAvailableYet(err) || errors.Is(err, jsonrpc.ErrEmptyResult) {
			return retry.Unrecoverable(err)
		}
		return err
	})
}

func (s *Source) latestSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := s.call(ctx, &slot, "getSlot", getSlotParams(s.commitment)...); err != nil {
		return 0, fmt.Errorf("getSlot: %w", err)
	}
	return slot, nil
}

// fetchBlock returns a nil block for skipped slots.
func (s *Source) fetchBlock(ctx context.Context, slot uint64) (*Block, error) {
	var resp blockResponse
	err := s.call(ctx, &resp, "getBlock", getBlockParams(slot, s.commitment)...)
	switch {
	case jsonrpc.IsSlotSkipped(err), errors.Is(err, jsonrpc.ErrEmptyResult):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("getBlock %d: %w", slot, err)
	}

	return resp.toBlock(slot, s.keepVotes)
}

func (s *Source) crawl(ctx context.Context, sender datasource.Sender, next uint64) error {
	for {
		tip, err := s.latestSlot(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.counters.RecordError()
			return err
		}

		for ; next <= tip; next++ {
			block, err := s.fetchBlock(ctx, next)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if jsonrpc.IsNotAvailableYet(err) {
				break
			}
			if err != nil {
				s.counters.RecordError()
				return err
			}

			if block == nil {
				s.counters.Add(MetricSlotsSkipped, 1)
				logger.Debug(ctx, "slot skipped", "datasource.name", s.name, "update.slot", next)
				continue
			}

			if err := s.emit(ctx, sender, block); err != nil {
				return err
			}
		}

		if !chflow.Sleep(ctx, s.pollInterval) {
			return ctx.Err()
		}
	}
}

// emit sends the block's transactions and then the block itself, so the
// block is the last update of its slot in the merged queue.
func (s *Source) emit(ctx context.Context, sender datasource.Sender, block *Block) error {
	s.counters.Add(MetricBlocksFetched, 1)

	if s.includeTxs {
		for _, tx := range block.Transactions {
			if err := sender.Send(ctx, tx); err != nil {
				s.counters.RecordError()
				return err
			}
			s.counters.RecordSent(tx.Slot)
			s.counters.Add(MetricTransactions, 1)
		}
	}

	if err := sender.Send(ctx, update.Block{Slot: block.Slot, Raw: block}); err != nil {
		s.counters.RecordError()
		return err
	}
	s.counters.RecordSent(block.Slot)

	return nil
}

type config struct {
	startSlot          *uint64
	commitment         string
	pollInterval       time.Duration
	includeTxs         bool
	keepVotes          bool
	limiter            *rate.Limiter
	retry              retry.Retry
	checkpointStorage  CheckpointStorage
	checkpointInterval uint64
}

// Option configures a Source.
type Option func(*config)

// New builds a block crawler named name that talks to conn.
func New(name string, conn jsonrpc.Client, opts ...Option) *Source {
	cfg := config{
		commitment:         defaultCommitment,
		pollInterval:       defaultPollInterval,
		includeTxs:         true,
		limiter:            rate.NewLimiter(rate.Inf, 0),
		retry:              retry.New(retry.WithAttempts(1)),
		checkpointStorage:  nopCheckpoint{},
		checkpointInterval: 1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Source{
		name:               name,
		conn:               conn,
		startSlot:          cfg.startSlot,
		commitment:         cfg.commitment,
		pollInterval:       cfg.pollInterval,
		includeTxs:         cfg.includeTxs,
		keepVotes:          cfg.keepVotes,
		limiter:            cfg.limiter,
		retry:              cfg.retry,
		checkpointStorage:  cfg.checkpointStorage,
		checkpointInterval: cfg.checkpointInterval,
	}
}

// WithStartSlot sets the slot to start from when no checkpoint exists.
// Without it the crawler starts at the current tip.
func WithStartSlot(slot uint64) Option {
	return func(c *config) {
		c.startSlot = &slot
	}
}

// WithCommitment sets the commitment level passed to getSlot and getBlock.
// It defaults to "confirmed".
func WithCommitment(commitment string) Option {
	return func(c *config) {
		if commitment != "" {
			c.commitment = commitment
		}
	}
}

// WithPollInterval sets how long the crawler waits after catching up with
// the tip before polling getSlot again.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithTransactions controls whether Transaction updates are emitted next to
// Block updates.
func WithTransactions(enabled bool) Option {
	return func(c *config) {
		c.includeTxs = enabled
	}
}

// WithVotes keeps vote transactions, which are dropped by default.
func WithVotes(enabled bool) Option {
	return func(c *config) {
		c.keepVotes = enabled
	}
}

// WithRateLimit caps RPC requests per second. A non-positive rps disables
// the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithRetry sets the retry policy for every RPC call. Skipped and not yet
// available slots are never retried.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithCheckpointStorage sets where the checkpoint is loaded from on start
// and saved to by the checkpoint pipe.
func WithCheckpointStorage(cs CheckpointStorage) Option {
	return func(c *config) {
		c.checkpointStorage = cs
	}
}

// WithCheckpointInterval makes the checkpoint pipe save at most once every n
// slots. A restart may then process up to n-1 slots again.
func WithCheckpointInterval(n uint64) Option {
	return func(c *config) {
		if n > 0 {
			c.checkpointInterval = n
		}
	}
}
