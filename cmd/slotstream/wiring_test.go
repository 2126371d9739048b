package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/slotstream/internal/config"
	"github.com/gabapcia/slotstream/internal/datasource/redisstream"
	"github.com/gabapcia/slotstream/internal/datasource/rpcblock"
	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/programs/system"
	"github.com/gabapcia/slotstream/internal/update"
	watchlisttest "github.com/gabapcia/slotstream/internal/watchlist/mocks"
)

func init() {
	logger.Init("error")
}

// nopStore satisfies storage without keeping anything.
type nopStore struct{}

func (nopStore) SaveCheckpoint(context.Context, string, uint64) error { return nil }

func (nopStore) LoadCheckpoint(context.Context, string) (uint64, error) {
	return 0, rpcblock.ErrNoCheckpointFound
}

func (nopStore) SaveStreamPosition(context.Context, string, string) error { return nil }

func (nopStore) LoadStreamPosition(context.Context, string) (string, error) {
	return "", redisstream.ErrNoPositionFound
}

func (nopStore) ReadStream(context.Context, string, string, int64, time.Duration) ([]redisstream.Message, error) {
	return nil, nil
}

func (nopStore) AppendStream(context.Context, string, []byte) (string, error) { return "1-0", nil }

func (nopStore) Claim(context.Context, string, time.Duration) error { return nil }

func (nopStore) MarkComplete(context.Context, string) error { return nil }

func key(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func pipeNames(pipes []pipe.Pipe) []string {
	names := make([]string, len(pipes))
	for i, p := range pipes {
		names[i] = p.Name()
	}
	return names
}

func TestBuildDatasources(t *testing.T) {
	t.Run("should build nothing when no source is configured", func(t *testing.T) {
		sources, err := buildDatasources(config.Config{}, nopStore{})
		require.NoError(t, err)
		assert.Empty(t, sources)
	})

	t.Run("should build the crawler and the replay source", func(t *testing.T) {
		// Arrange
		start := uint64(100)
		cfg := config.Config{
			RPC:    config.RPC{Endpoint: "http://localhost:8899", Commitment: "confirmed", StartSlot: &start, Retries: 2},
			Stream: config.Stream{Name: "updates", StartID: "0", Kinds: []string{"account", "block"}},
		}

		// Act
		sources, err := buildDatasources(cfg, nopStore{})

		// Assert
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, rpcDatasourceName, sources[0].Name())
		assert.Equal(t, replayDatasourceName, sources[1].Name())
		assert.Equal(t, update.NewKindSet(update.KindAccount, update.KindBlock), sources[1].UpdateTypes())
	})

	t.Run("should reject unknown stream kinds", func(t *testing.T) {
		cfg := config.Config{Stream: config.Stream{Name: "updates", Kinds: []string{"slot"}}}

		_, err := buildDatasources(cfg, nopStore{})

		assert.Error(t, err)
	})
}

func TestBuildPipes(t *testing.T) {
	t.Run("should build the logging pipes", func(t *testing.T) {
		pipes, err := buildPipes(t.Context(), config.Config{}, nopStore{}, watchlisttest.NewService(t), nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"block_log", "transaction_log", "system_instruction_log", "account_deletion_log"}, pipeNames(pipes))
	})

	t.Run("should add program and forwarding pipes when configured", func(t *testing.T) {
		// Arrange
		wl := watchlisttest.NewService(t)
		wl.EXPECT().Load(mock.Anything, "whales").Return([]solana.PublicKey{key(1)}, nil).Once()

		cfg := config.Config{
			Stream: config.Stream{ForwardTo: "archive"},
			Pipeline: config.Pipeline{
				Watchlist: "whales",
				Programs:  []string{solana.TokenProgramID.String()},
			},
		}

		// Act
		pipes, err := buildPipes(t.Context(), cfg, nopStore{}, wl, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{
			"block_log", "transaction_log", "system_instruction_log", "account_deletion_log",
			"program_activity_log", "stream_forward_blocks", "stream_forward_transactions",
		}, pipeNames(pipes))
	})

	t.Run("should save the crawler checkpoint after every other block pipe", func(t *testing.T) {
		// Arrange
		cfg := config.Config{
			RPC:    config.RPC{Endpoint: "http://localhost:8899", Commitment: "confirmed"},
			Stream: config.Stream{Name: "updates"},
		}
		sources, err := buildDatasources(cfg, nopStore{})
		require.NoError(t, err)

		// Act
		pipes, err := buildPipes(t.Context(), cfg, nopStore{}, watchlisttest.NewService(t), sources)

		// Assert
		require.NoError(t, err)
		names := pipeNames(pipes)
		assert.Equal(t, rpcDatasourceName+"_checkpoint", names[len(names)-1])
		assert.Equal(t, 1, strings.Count(strings.Join(names, ","), "_checkpoint"))
	})

	t.Run("should fail when the watchlist cannot be loaded", func(t *testing.T) {
		// Arrange
		wl := watchlisttest.NewService(t)
		wl.EXPECT().Load(mock.Anything, "whales").Return(nil, assert.AnError).Once()

		cfg := config.Config{Pipeline: config.Pipeline{Watchlist: "whales"}}

		// Act
		_, err := buildPipes(t.Context(), cfg, nopStore{}, wl, nil)

		// Assert
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestRawInstructions(t *testing.T) {
	ix := decoder.Instruction{ProgramID: key(7), Data: []byte{1, 2, 3}}

	t.Run("should match every program when none are given", func(t *testing.T) {
		decoded, err := newRawInstructions().DecodeInstruction(ix)

		require.NoError(t, err)
		assert.Equal(t, key(7), decoded.ProgramID)
		assert.Equal(t, []byte{1, 2, 3}, decoded.Data)
	})

	t.Run("should only match the given programs", func(t *testing.T) {
		d := newRawInstructions(key(8))

		_, err := d.DecodeInstruction(ix)

		assert.ErrorIs(t, err, decoder.ErrNoMatch)
	})
}

func TestWatchlistFilters(t *testing.T) {
	watched := []solana.PublicKey{key(1)}

	t.Run("should accept instructions touching a watched account", func(t *testing.T) {
		f := touches[system.Instruction](watched)

		hit := pipe.InstructionInput[system.Instruction]{Instruction: decoder.Instruction{
			Accounts: []*solana.AccountMeta{{PublicKey: key(2)}, {PublicKey: key(1)}},
		}}
		miss := pipe.InstructionInput[system.Instruction]{Instruction: decoder.Instruction{
			Accounts: []*solana.AccountMeta{{PublicKey: key(2)}},
		}}

		assert.True(t, f.Matches(hit))
		assert.False(t, f.Matches(miss))
	})

	t.Run("should accept deletions of watched accounts", func(t *testing.T) {
		f := deletedAccountIn(watched)

		assert.True(t, f.Matches(pipe.AccountDeletionInput{Pubkey: key(1)}))
		assert.False(t, f.Matches(pipe.AccountDeletionInput{Pubkey: key(3)}))
	})
}

type recordingPublisher struct {
	published []update.Update
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, u update.Update) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, u)
	return "1-0", nil
}

func TestForwarder(t *testing.T) {
	t.Run("should publish block headers without transaction bodies", func(t *testing.T) {
		// Arrange
		pub := &recordingPublisher{}
		sink := metrics.NewLogSink()
		in := pipe.BlockInput{
			Meta:  pipe.Meta{Datasource: rpcDatasourceName, Slot: 9},
			Block: decoder.DecodedBlock{Slot: 9, Transactions: []update.Transaction{{Slot: 9}}},
		}

		// Act
		err := newForwarder(pub).block(t.Context(), in, metrics.NewCollection(sink))

		// Assert
		require.NoError(t, err)
		require.Len(t, pub.published, 1)

		block, ok := decoder.PassthroughBlock.DecodeBlock(pub.published[0].(update.Block))
		require.True(t, ok)
		assert.False(t, block.HasTransactions())
		assert.Equal(t, uint64(1), sink.Snapshot().Counters[metrics.PerKind(metricForwarded, update.KindBlock)])
	})

	t.Run("should return publish errors", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("stream unavailable")}
		in := pipe.TransactionInput[[]byte]{Transaction: update.Transaction{Slot: 3}}

		err := newForwarder(pub).transaction(t.Context(), in, metrics.NewCollection())

		assert.EqualError(t, err, "stream unavailable")
	})
}

func TestLogSystemInstruction(t *testing.T) {
	sink := metrics.NewLogSink()
	in := pipe.InstructionInput[system.Instruction]{
		Decoded: decoder.DecodedInstruction[system.Instruction]{
			Variant: "transfer",
			Data:    system.Transfer{From: key(1), To: key(2), Lamports: 250},
		},
	}

	err := logSystemInstruction(t.Context(), in, metrics.NewCollection(sink))

	require.NoError(t, err)
	assert.Equal(t, uint64(250), sink.Snapshot().Counters[metricSystemLamports])
}
