package pipe

import (
	"context"
	"strconv"

	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/filter"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/processor"
	"github.com/gabapcia/slotstream/internal/update"
)

// BlockInput is a decoded block.
type BlockInput struct {
	Meta
	Block decoder.DecodedBlock
}

// Key identifies the block by its slot.
func (in BlockInput) Key() string {
	return "block:" + strconv.FormatUint(in.Slot, 10)
}

// BlockPipe handles block updates. Blocks the decoder does not understand
// are dropped silently.
type BlockPipe struct {
	name      string
	decoder   decoder.BlockDecoder
	filters   filter.Chain[BlockInput]
	processor processor.Processor[BlockInput]
}

var _ Pipe = (*BlockPipe)(nil)

// NewBlockPipe builds a block pipe.
func NewBlockPipe(
	name string,
	d decoder.BlockDecoder,
	p processor.Processor[BlockInput],
	filters ...filter.Filter[BlockInput],
) *BlockPipe {
	return &BlockPipe{name: name, decoder: d, filters: filters, processor: p}
}

func (p *BlockPipe) Name() string      { return p.name }
func (p *BlockPipe) Kind() update.Kind { return update.KindBlock }

func (p *BlockPipe) Run(ctx context.Context, env Envelope, m *metrics.Collection) error {
	u, ok := env.Update.(update.Block)
	if !ok {
		return mismatch(p, env)
	}

	decoded, ok := p.decoder.DecodeBlock(u)
	if !ok {
		noMatch(ctx, m)
		return nil
	}

	input := BlockInput{Meta: metaOf(env), Block: decoded}
	if !p.filters.Matches(input) {
		filteredOut(ctx, m)
		return nil
	}

	if err := p.processor.Process(ctx, input, m); err != nil {
		return processFailed(ctx, m, err)
	}
	return nil
}
