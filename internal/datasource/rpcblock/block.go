package rpcblock

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/update"
)

// Block is the raw payload of the block updates this datasource emits.
type Block struct {
	Slot              uint64
	Blockhash         solana.Hash
	PreviousBlockhash solana.Hash
	ParentSlot        uint64
	BlockTime         *int64
	BlockHeight       *uint64
	TransactionCount  int // including vote transactions that were dropped

	Transactions []update.Transaction
}

// BlockDecoder understands the blocks emitted by this datasource.
var BlockDecoder decoder.BlockDecoder = decoder.BlockDecoderFunc(decodeBlock)

func decodeBlock(u update.Block) (decoder.DecodedBlock, bool) {
	raw, ok := u.Raw.(*Block)
	if !ok || raw == nil {
		return decoder.DecodedBlock{}, false
	}

	out := decoder.DecodedBlock{
		Slot:              raw.Slot,
		BlockHash:         raw.Blockhash,
		PreviousBlockHash: raw.PreviousBlockhash,
		ParentSlot:        raw.ParentSlot,
		BlockHeight:       raw.BlockHeight,
		TransactionCount:  raw.TransactionCount,
		Transactions:      raw.Transactions,
	}
	if raw.BlockTime != nil {
		t := time.Unix(*raw.BlockTime, 0).UTC()
		out.BlockTime = &t
	}

	return out, true
}
