package decoder

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/update"
)

// DecodedBlock is the source independent view of a block.
type DecodedBlock struct {
	Slot              uint64
	BlockHash         solana.Hash
	PreviousBlockHash solana.Hash
	ParentSlot        uint64
	BlockTime         *time.Time
	BlockHeight       *uint64
	TransactionCount  int

	// Transactions is nil when the source delivers transaction bodies
	// separately from block metadata.
	Transactions []update.Transaction
}

// HasTransactions reports whether the block carries its transaction bodies.
func (b DecodedBlock) HasTransactions() bool {
	return b.Transactions != nil
}

// BlockDecoder turns a source specific raw block into a DecodedBlock.
// ok is false when the decoder does not understand the raw representation.
type BlockDecoder interface {
	DecodeBlock(block update.Block) (decoded DecodedBlock, ok bool)
}

// BlockDecoderFunc adapts a function to BlockDecoder.
type BlockDecoderFunc func(block update.Block) (DecodedBlock, bool)

func (f BlockDecoderFunc) DecodeBlock(block update.Block) (DecodedBlock, bool) {
	return f(block)
}

// PassthroughBlock decodes blocks whose Raw field already holds a
// DecodedBlock or a pointer to one.
var PassthroughBlock BlockDecoder = BlockDecoderFunc(func(block update.Block) (DecodedBlock, bool) {
	switch raw := block.Raw.(type) {
	case DecodedBlock:
		return raw, true
	case *DecodedBlock:
		if raw == nil {
			return DecodedBlock{}, false
		}
		return *raw, true
	}
	return DecodedBlock{}, false
})

// FirstBlock tries decoders in order and returns the first result a decoder
// accepts. It lets one pipe handle blocks from several datasources.
func FirstBlock(decoders ...BlockDecoder) BlockDecoder {
	return BlockDecoderFunc(func(block update.Block) (DecodedBlock, bool) {
		for _, d := range decoders {
			if decoded, ok := d.DecodeBlock(block); ok {
				return decoded, true
			}
		}
		return DecodedBlock{}, false
	})
}
