package rpcblock

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/update"
)

type (
	// blockResponse is the getBlock result requested with base64 encoded
	// transactions and full transaction details.
	blockResponse struct {
		Blockhash         string                `json:"blockhash"`
		PreviousBlockhash string                `json:"previousBlockhash"`
		ParentSlot        uint64                `json:"parentSlot"`
		BlockTime         *int64                `json:"blockTime"`
		BlockHeight       *uint64               `json:"blockHeight"`
		Transactions      []transactionResponse `json:"transactions"`
	}

	// transactionResponse holds the transaction as ["<data>", "base64"].
	transactionResponse struct {
		Transaction []string      `json:"transaction"`
		Meta        *metaResponse `json:"meta"`
	}

	metaResponse struct {
		Err                  any                         `json:"err"`
		Fee                  uint64                      `json:"fee"`
		PreBalances          []uint64                    `json:"preBalances"`
		PostBalances         []uint64                    `json:"postBalances"`
		LogMessages          []string                    `json:"logMessages"`
		InnerInstructions    []innerInstructionsResponse `json:"innerInstructions"`
		LoadedAddresses      *loadedAddressesResponse    `json:"loadedAddresses"`
		ComputeUnitsConsumed *uint64                     `json:"computeUnitsConsumed"`
	}

	innerInstructionsResponse struct {
		Index        uint16                     `json:"index"`
		Instructions []innerInstructionResponse `json:"instructions"`
	}

	innerInstructionResponse struct {
		solana.CompiledInstruction
		StackHeight *uint32 `json:"stackHeight"`
	}

	loadedAddressesResponse struct {
		Writable []solana.PublicKey `json:"writable"`
		Readonly []solana.PublicKey `json:"readonly"`
	}
)

func getBlockParams(slot uint64, commitment string) []any {
	return []any{slot, map[string]any{
		"encoding":                       "base64",
		"transactionDetails":             "full",
		"rewards":                        false,
		"maxSupportedTransactionVersion": 0,
		"commitment":                     commitment,
	}}
}

func getSlotParams(commitment string) []any {
	return []any{map[string]any{"commitment": commitment}}
}

// toBlock converts a getBlock result. Vote transactions are dropped unless
// keepVotes is set.
func (r blockResponse) toBlock(slot uint64, keepVotes bool) (*Block, error) {
	hash, err := solana.HashFromBase58(r.Blockhash)
	if err != nil {
		return nil, fmt.Errorf("block %d hash: %w", slot, err)
	}

	prev, err := solana.HashFromBase58(r.PreviousBlockhash)
	if err != nil {
		return nil, fmt.Errorf("block %d previous hash: %w", slot, err)
	}

	block := &Block{
		Slot:              slot,
		Blockhash:         hash,
		PreviousBlockhash: prev,
		ParentSlot:        r.ParentSlot,
		BlockTime:         r.BlockTime,
		BlockHeight:       r.BlockHeight,
		TransactionCount:  len(r.Transactions),
		Transactions:      make([]update.Transaction, 0, len(r.Transactions)),
	}

	for i, raw := range r.Transactions {
		tx, err := raw.toTransaction(slot, r.BlockTime)
		if err != nil {
			return nil, fmt.Errorf("block %d transaction %d: %w", slot, i, err)
		}

		if tx.IsVote && !keepVotes {
			continue
		}
		block.Transactions = append(block.Transactions, tx)
	}

	return block, nil
}

func (r transactionResponse) toTransaction(slot uint64, blockTime *int64) (update.Transaction, error) {
	if len(r.Transaction) == 0 {
		return update.Transaction{}, fmt.Errorf("empty transaction payload")
	}
	if len(r.Transaction) > 1 && r.Transaction[1] != "base64" {
		return update.Transaction{}, fmt.Errorf("unsupported transaction encoding %q", r.Transaction[1])
	}

	data, err := base64.StdEncoding.DecodeString(r.Transaction[0])
	if err != nil {
		return update.Transaction{}, err
	}

	tx, err := solana.TransactionFromBytes(data)
	if err != nil {
		return update.Transaction{}, err
	}
	if len(tx.Signatures) == 0 {
		return update.Transaction{}, fmt.Errorf("transaction without signatures")
	}

	out := update.Transaction{
		Signature:   tx.Signatures[0],
		Transaction: tx,
		IsVote:      isVote(tx),
		Slot:        slot,
		BlockTime:   blockTime,
	}
	if r.Meta != nil {
		out.Meta = r.Meta.toMeta()
	}

	return out, nil
}

func (m metaResponse) toMeta() update.TransactionMeta {
	meta := update.TransactionMeta{
		Err:          m.Err,
		Fee:          m.Fee,
		PreBalances:  m.PreBalances,
		PostBalances: m.PostBalances,
		LogMessages:  m.LogMessages,
		ComputeUnits: m.ComputeUnitsConsumed,
	}

	if m.LoadedAddresses != nil {
		meta.LoadedAddresses = update.LoadedAddresses{
			Writable: m.LoadedAddresses.Writable,
			Readonly: m.LoadedAddresses.Readonly,
		}
	}

	for _, group := range m.InnerInstructions {
		inner := update.InnerInstructions{Index: group.Index}
		for _, ix := range group.Instructions {
			inner.Instructions = append(inner.Instructions, update.InnerInstruction{
				Instruction: ix.CompiledInstruction,
				StackHeight: ix.StackHeight,
			})
		}
		meta.InnerInstructions = append(meta.InnerInstructions, inner)
	}

	return meta
}

func isVote(tx *solana.Transaction) bool {
	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) < len(tx.Message.AccountKeys) && tx.Message.AccountKeys[ix.ProgramIDIndex].Equals(solana.VoteProgramID) {
			return true
		}
	}
	return false
}
