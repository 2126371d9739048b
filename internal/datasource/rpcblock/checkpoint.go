package rpcblock

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/slotstream/internal/filter"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/processor"
)

// ErrNoCheckpointFound is returned by CheckpointStorage when the datasource
// never saved a checkpoint.
var ErrNoCheckpointFound = errors.New("no checkpoint found")

// CheckpointStorage persists the last slot a crawler's updates were
// processed for.
type CheckpointStorage interface {
	SaveCheckpoint(ctx context.Context, datasource string, slot uint64) error
	LoadCheckpoint(ctx context.Context, datasource string) (uint64, error)
}

type nopCheckpoint struct{}

var _ CheckpointStorage = nopCheckpoint{}

func (nopCheckpoint) SaveCheckpoint(context.Context, string, uint64) error { return nil }

func (nopCheckpoint) LoadCheckpoint(context.Context, string) (uint64, error) {
	return 0, ErrNoCheckpointFound
}

// CheckpointPipe returns the block pipe that saves this crawler's progress.
//
// It must be registered after every other block pipe. The pipeline runs the
// pipes of a kind in order and dispatches the merged queue one update at a
// time, and the crawler sends a slot's block after its transactions, so
// when this pipe sees block N everything up to slot N was dispatched.
// Updates discarded on shutdown never reach it and are crawled again.
func (s *Source) CheckpointPipe() *pipe.BlockPipe {
	return pipe.NewBlockPipe(s.name+"_checkpoint", BlockDecoder,
		processor.Func[pipe.BlockInput](s.commit),
		filter.FromDatasources[pipe.BlockInput](s.name),
	)
}

func (s *Source) commit(ctx context.Context, in pipe.BlockInput, _ *metrics.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed && (in.Slot <= s.lastCommitted || in.Slot-s.lastCommitted < s.checkpointInterval) {
		return nil
	}

	if err := s.checkpointStorage.SaveCheckpoint(ctx, s.name, in.Slot); err != nil {
		return fmt.Errorf("save checkpoint at slot %d: %w", in.Slot, err)
	}
	s.committed = true
	s.lastCommitted = in.Slot

	return nil
}
