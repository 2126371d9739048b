package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/gabapcia/slotstream/internal/config"
	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/datasource/redisstream"
	"github.com/gabapcia/slotstream/internal/datasource/rpcblock"
	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/filter"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/pkg/resilience/retry"
	transporthttp "github.com/gabapcia/slotstream/internal/pkg/transport/http"
	"github.com/gabapcia/slotstream/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/slotstream/internal/processor"
	"github.com/gabapcia/slotstream/internal/programs/system"
	"github.com/gabapcia/slotstream/internal/update"
	"github.com/gabapcia/slotstream/internal/watchlist"

	"github.com/gagliardetto/solana-go"
)

const (
	rpcDatasourceName    = "rpc"
	replayDatasourceName = "replay"
	metricsNamespace     = "slotstream"
)

// storage is everything the pipeline keeps in Redis.
type storage interface {
	rpcblock.CheckpointStorage
	redisstream.PositionStorage
	redisstream.StreamReader
	redisstream.StreamWriter
	processor.IdempotencyGuard
}

func buildDatasources(cfg config.Config, store storage) ([]datasource.Datasource, error) {
	var sources []datasource.Datasource

	if cfg.RPC.Endpoint != "" {
		conn := jsonrpc.NewClient(cfg.RPC.Endpoint,
			transporthttp.WithTimeout(cfg.RPC.Timeout),
			transporthttp.WithRetryMax(int(cfg.RPC.Retries)),
		)

		opts := []rpcblock.Option{
			rpcblock.WithCommitment(cfg.RPC.Commitment),
			rpcblock.WithPollInterval(cfg.RPC.PollInterval),
			rpcblock.WithVotes(cfg.RPC.Votes),
			rpcblock.WithRateLimit(cfg.RPC.RateLimit, cfg.RPC.RateBurst),
			rpcblock.WithRetry(retry.New(retry.WithAttempts(cfg.RPC.Retries + 1))),
			rpcblock.WithCheckpointStorage(store),
		}
		if cfg.RPC.StartSlot != nil {
			opts = append(opts, rpcblock.WithStartSlot(*cfg.RPC.StartSlot))
		}

		sources = append(sources, rpcblock.New(rpcDatasourceName, conn, opts...))
	}

	if cfg.Stream.Name != "" {
		kinds := make([]update.Kind, 0, len(cfg.Stream.Kinds))
		for _, name := range cfg.Stream.Kinds {
			k, err := update.ParseKind(name)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, k)
		}

		sources = append(sources, redisstream.New(replayDatasourceName, cfg.Stream.Name, store,
			redisstream.WithKinds(kinds...),
			redisstream.WithPositionStorage(store),
			redisstream.WithStartID(cfg.Stream.StartID),
		))
	}

	return sources, nil
}

// checkpointer is a datasource whose progress is saved by a pipe that runs
// after every other block pipe.
type checkpointer interface {
	CheckpointPipe() *pipe.BlockPipe
}

func buildPipes(ctx context.Context, cfg config.Config, store storage, wl watchlist.Service, sources []datasource.Datasource) ([]pipe.Pipe, error) {
	programs := make([]solana.PublicKey, 0, len(cfg.Pipeline.Programs))
	for _, p := range cfg.Pipeline.Programs {
		programs = append(programs, solana.MustPublicKeyFromBase58(p))
	}

	var watched []solana.PublicKey
	if cfg.Pipeline.Watchlist != "" {
		keys, err := wl.Load(ctx, cfg.Pipeline.Watchlist)
		if err != nil {
			return nil, fmt.Errorf("load watchlist %s: %w", cfg.Pipeline.Watchlist, err)
		}
		watched = keys
	}

	blockDecoder := decoder.PassthroughBlock
	if cfg.RPC.Endpoint != "" {
		blockDecoder = decoder.FirstBlock(rpcblock.BlockDecoder, decoder.PassthroughBlock)
	}

	instructions := decoder.NewChain[system.Instruction](system.Decoder)

	var instructionFilters []filter.Filter[pipe.InstructionInput[system.Instruction]]
	var deletionFilters []filter.Filter[pipe.AccountDeletionInput]
	if len(watched) > 0 {
		instructionFilters = append(instructionFilters, touches[system.Instruction](watched))
		deletionFilters = append(deletionFilters, deletedAccountIn(watched))
	}

	var systemLog processor.Processor[pipe.InstructionInput[system.Instruction]] = processor.Func[pipe.InstructionInput[system.Instruction]](logSystemInstruction)
	if cfg.Pipeline.IdempotencyTTL > 0 {
		systemLog = processor.Idempotent(systemLog, store, cfg.Pipeline.IdempotencyTTL)
	}

	pipes := []pipe.Pipe{
		pipe.NewBlockPipe("block_log", blockDecoder, processor.Func[pipe.BlockInput](logBlock)),
		pipe.NewTransactionPipe("transaction_log", instructions, processor.Func[pipe.TransactionInput[system.Instruction]](logTransaction),
			filter.ExcludeVotes[pipe.TransactionInput[system.Instruction]](),
		),
		pipe.NewInstructionPipe("system_instruction_log", instructions, systemLog, instructionFilters...),
		pipe.NewAccountDeletionPipe("account_deletion_log", processor.Func[pipe.AccountDeletionInput](logAccountDeletion), deletionFilters...),
	}

	if len(programs) > 0 {
		pipes = append(pipes, pipe.NewInstructionPipe("program_activity_log", newRawInstructions(programs...),
			processor.Func[pipe.InstructionInput[[]byte]](logProgramActivity),
		))
	}

	if cfg.Stream.ForwardTo != "" {
		forward := newForwarder(redisstream.NewPublisher(cfg.Stream.ForwardTo, store))
		pipes = append(pipes,
			pipe.NewBlockPipe("stream_forward_blocks", blockDecoder,
				processor.Func[pipe.BlockInput](forward.block),
				filter.FromDatasources[pipe.BlockInput](rpcDatasourceName),
			),
			pipe.NewTransactionPipe("stream_forward_transactions", newRawInstructions(),
				processor.Func[pipe.TransactionInput[[]byte]](forward.transaction),
				filter.FromDatasources[pipe.TransactionInput[[]byte]](rpcDatasourceName),
			),
		)
	}

	for _, src := range sources {
		if c, ok := src.(checkpointer); ok {
			pipes = append(pipes, c.CheckpointPipe())
		}
	}

	return pipes, nil
}

// buildMetrics fans metrics out to the log, to Prometheus and, with
// telemetry enabled, to the global OpenTelemetry meter provider.
func buildMetrics(cfg config.Config) (*metrics.Collection, *metrics.PrometheusSink) {
	prometheus := metrics.NewPrometheusSink(metricsNamespace, metrics.WithRuntimeCollectors())

	sinks := []metrics.Sink{metrics.NewLogSink(), prometheus}
	if cfg.Telemetry {
		sinks = append(sinks, metrics.NewOTelSink(otel.GetMeterProvider()))
	}

	return metrics.NewCollection(sinks...), prometheus
}
