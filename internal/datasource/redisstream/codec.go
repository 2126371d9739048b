package redisstream

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/update"
)

// ErrMalformedEnvelope is returned by Decode when a payload cannot be turned
// back into an update.
var ErrMalformedEnvelope = errors.New("malformed stream envelope")

// envelope is the msgpack document stored in the payload field of every
// stream entry. Only the fields of the encoded kind are set.
type envelope struct {
	Kind string `msgpack:"kind"`
	Slot uint64 `msgpack:"slot"`

	Pubkey  []byte           `msgpack:"pubkey,omitempty"`
	Account *accountEnvelope `msgpack:"account,omitempty"`

	Transaction []byte        `msgpack:"tx,omitempty"`
	Meta        *metaEnvelope `msgpack:"meta,omitempty"`
	IsVote      bool          `msgpack:"vote,omitempty"`
	BlockTime   *int64        `msgpack:"block_time,omitempty"`

	Block *blockEnvelope `msgpack:"block,omitempty"`
}

type accountEnvelope struct {
	Lamports   uint64 `msgpack:"lamports"`
	Data       []byte `msgpack:"data"`
	Owner      []byte `msgpack:"owner"`
	Executable bool   `msgpack:"executable"`
	RentEpoch  uint64 `msgpack:"rent_epoch"`
}

type metaEnvelope struct {
	Err               any             `msgpack:"err"`
	Fee               uint64          `msgpack:"fee"`
	PreBalances       []uint64        `msgpack:"pre"`
	PostBalances      []uint64        `msgpack:"post"`
	LogMessages       []string        `msgpack:"logs"`
	InnerInstructions []innerEnvelope `msgpack:"inner"`
	Writable          [][]byte        `msgpack:"writable"`
	Readonly          [][]byte        `msgpack:"readonly"`
	ComputeUnits      *uint64         `msgpack:"cu"`
}

type innerEnvelope struct {
	Index        uint16                `msgpack:"index"`
	Instructions []instructionEnvelope `msgpack:"ixs"`
}

type instructionEnvelope struct {
	ProgramIDIndex uint16   `msgpack:"program"`
	Accounts       []uint16 `msgpack:"accounts"`
	Data           []byte   `msgpack:"data"`
	StackHeight    *uint32  `msgpack:"height"`
}

type blockEnvelope struct {
	Hash             []byte  `msgpack:"hash"`
	PreviousHash     []byte  `msgpack:"prev"`
	ParentSlot       uint64  `msgpack:"parent"`
	BlockTime        *int64  `msgpack:"time"`
	BlockHeight      *uint64 `msgpack:"height"`
	TransactionCount int     `msgpack:"tx_count"`
}

// Encode serializes u into a stream payload.
//
// Block updates are encoded from their decoded form, so the Raw field must be
// a decoder.DecodedBlock or a pointer to one. Transaction bodies embedded in
// a decoded block are not carried; they are expected as separate entries.
func Encode(u update.Update) ([]byte, error) {
	env := envelope{Kind: u.Kind().String(), Slot: u.SlotNumber()}

	switch u := u.(type) {
	case update.Account:
		env.Pubkey = u.Pubkey.Bytes()
		env.Account = &accountEnvelope{
			Lamports:   u.Account.Lamports,
			Data:       u.Account.Data,
			Owner:      u.Account.Owner.Bytes(),
			Executable: u.Account.Executable,
			RentEpoch:  u.Account.RentEpoch,
		}

	case update.AccountDeletion:
		env.Pubkey = u.Pubkey.Bytes()

	case update.Transaction:
		if u.Transaction == nil {
			return nil, fmt.Errorf("%w: transaction %s without body", ErrMalformedEnvelope, u.Signature)
		}
		data, err := u.Transaction.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode transaction %s: %w", u.Signature, err)
		}
		env.Transaction = data
		env.Meta = encodeMeta(u.Meta)
		env.IsVote = u.IsVote
		env.BlockTime = u.BlockTime

	case update.Block:
		decoded, ok := decoder.PassthroughBlock.DecodeBlock(u)
		if !ok {
			return nil, fmt.Errorf("%w: block %d has raw type %T", ErrMalformedEnvelope, u.Slot, u.Raw)
		}
		env.Block = &blockEnvelope{
			Hash:             decoded.BlockHash[:],
			PreviousHash:     decoded.PreviousBlockHash[:],
			ParentSlot:       decoded.ParentSlot,
			BlockHeight:      decoded.BlockHeight,
			TransactionCount: decoded.TransactionCount,
		}
		if decoded.BlockTime != nil {
			ts := decoded.BlockTime.Unix()
			env.Block.BlockTime = &ts
		}

	default:
		return nil, fmt.Errorf("%w: unsupported update %T", ErrMalformedEnvelope, u)
	}

	return msgpack.Marshal(&env)
}

func encodeMeta(m update.TransactionMeta) *metaEnvelope {
	out := &metaEnvelope{
		Err:          m.Err,
		Fee:          m.Fee,
		PreBalances:  m.PreBalances,
		PostBalances: m.PostBalances,
		LogMessages:  m.LogMessages,
		Writable:     keysToBytes(m.LoadedAddresses.Writable),
		Readonly:     keysToBytes(m.LoadedAddresses.Readonly),
		ComputeUnits: m.ComputeUnits,
	}

	for _, group := range m.InnerInstructions {
		inner := innerEnvelope{Index: group.Index}
		for _, ix := range group.Instructions {
			inner.Instructions = append(inner.Instructions, instructionEnvelope{
				ProgramIDIndex: ix.Instruction.ProgramIDIndex,
				Accounts:       ix.Instruction.Accounts,
				Data:           ix.Instruction.Data,
				StackHeight:    ix.StackHeight,
			})
		}
		out.InnerInstructions = append(out.InnerInstructions, inner)
	}

	return out
}

// Decode parses a stream payload produced by Encode.
func Decode(payload []byte) (update.Update, error) {
	var env envelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	kind, err := update.ParseKind(env.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	switch kind {
	case update.KindAccount:
		pubkey, err := toKey(env.Pubkey)
		if err != nil || env.Account == nil {
			return nil, fmt.Errorf("%w: account at slot %d", ErrMalformedEnvelope, env.Slot)
		}
		owner, err := toKey(env.Account.Owner)
		if err != nil {
			return nil, fmt.Errorf("%w: account owner: %w", ErrMalformedEnvelope, err)
		}
		return update.Account{
			Pubkey: pubkey,
			Account: update.AccountState{
				Lamports:   env.Account.Lamports,
				Data:       env.Account.Data,
				Owner:      owner,
				Executable: env.Account.Executable,
				RentEpoch:  env.Account.RentEpoch,
			},
			Slot: env.Slot,
		}, nil

	case update.KindAccountDeletion:
		pubkey, err := toKey(env.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("%w: account deletion: %w", ErrMalformedEnvelope, err)
		}
		return update.AccountDeletion{Pubkey: pubkey, Slot: env.Slot}, nil

	case update.KindTransaction:
		tx, err := solana.TransactionFromBytes(env.Transaction)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction: %w", ErrMalformedEnvelope, err)
		}
		if len(tx.Signatures) == 0 {
			return nil, fmt.Errorf("%w: transaction without signatures", ErrMalformedEnvelope)
		}

		out := update.Transaction{
			Signature:   tx.Signatures[0],
			Transaction: tx,
			IsVote:      env.IsVote,
			Slot:        env.Slot,
			BlockTime:   env.BlockTime,
		}
		if env.Meta != nil {
			if out.Meta, err = decodeMeta(*env.Meta); err != nil {
				return nil, err
			}
		}
		return out, nil

	default:
		if env.Block == nil {
			return nil, fmt.Errorf("%w: block %d without header", ErrMalformedEnvelope, env.Slot)
		}
		hash, err := toKey(env.Block.Hash)
		if err != nil {
			return nil, fmt.Errorf("%w: block hash: %w", ErrMalformedEnvelope, err)
		}
		prev, err := toKey(env.Block.PreviousHash)
		if err != nil {
			return nil, fmt.Errorf("%w: previous block hash: %w", ErrMalformedEnvelope, err)
		}

		block := decoder.DecodedBlock{
			Slot:              env.Slot,
			BlockHash:         solana.Hash(hash),
			PreviousBlockHash: solana.Hash(prev),
			ParentSlot:        env.Block.ParentSlot,
			BlockHeight:       env.Block.BlockHeight,
			TransactionCount:  env.Block.TransactionCount,
		}
		if env.Block.BlockTime != nil {
			t := time.Unix(*env.Block.BlockTime, 0).UTC()
			block.BlockTime = &t
		}
		return update.Block{Slot: env.Slot, Raw: block}, nil
	}
}

func decodeMeta(m metaEnvelope) (update.TransactionMeta, error) {
	writable, err := bytesToKeys(m.Writable)
	if err != nil {
		return update.TransactionMeta{}, err
	}
	readonly, err := bytesToKeys(m.Readonly)
	if err != nil {
		return update.TransactionMeta{}, err
	}

	out := update.TransactionMeta{
		Err:             m.Err,
		Fee:             m.Fee,
		PreBalances:     m.PreBalances,
		PostBalances:    m.PostBalances,
		LogMessages:     m.LogMessages,
		LoadedAddresses: update.LoadedAddresses{Writable: writable, Readonly: readonly},
		ComputeUnits:    m.ComputeUnits,
	}

	for _, group := range m.InnerInstructions {
		inner := update.InnerInstructions{Index: group.Index}
		for _, ix := range group.Instructions {
			inner.Instructions = append(inner.Instructions, update.InnerInstruction{
				Instruction: solana.CompiledInstruction{
					ProgramIDIndex: ix.ProgramIDIndex,
					Accounts:       ix.Accounts,
					Data:           ix.Data,
				},
				StackHeight: ix.StackHeight,
			})
		}
		out.InnerInstructions = append(out.InnerInstructions, inner)
	}

	return out, nil
}

func toKey(b []byte) (solana.PublicKey, error) {
	if len(b) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("public key must be %d bytes, got %d", solana.PublicKeyLength, len(b))
	}
	return solana.PublicKeyFromBytes(b), nil
}

func keysToBytes(keys []solana.PublicKey) [][]byte {
	if keys == nil {
		return nil
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = k.Bytes()
	}
	return out
}

func bytesToKeys(raw [][]byte) ([]solana.PublicKey, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]solana.PublicKey, len(raw))
	for i, b := range raw {
		k, err := toKey(b)
		if err != nil {
			return nil, fmt.Errorf("%w: loaded address %d: %w", ErrMalformedEnvelope, i, err)
		}
		out[i] = k
	}
	return out, nil
}
