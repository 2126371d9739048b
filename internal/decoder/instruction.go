package decoder

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/update"
)

// ErrMissingTransaction is returned when extracting instructions from a
// transaction update that carries no transaction body.
var ErrMissingTransaction = errors.New("transaction body missing")

// defaultInnerStackHeight is assumed for inner instructions whose source
// did not report a stack height.
const defaultInnerStackHeight = 2

// Instruction is an instruction with its accounts resolved, as handed to
// instruction decoders.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []*solana.AccountMeta
	Data      []byte

	// Index is the position of the top level instruction this instruction
	// belongs to.
	Index uint16

	// StackHeight is 1 for top level instructions and grows with each CPI.
	StackHeight uint32

	// Path locates the instruction in the invocation tree: the top level
	// index followed by the position at each nested level.
	Path []int
}

// IsInner reports whether the instruction was invoked through CPI.
func (ix Instruction) IsInner() bool {
	return ix.StackHeight > 1
}

// accountResolver maps compiled account indexes to metas.
type accountResolver struct {
	keys   []solana.PublicKey
	header solana.MessageHeader
	static int
	loaded int // number of writable loaded addresses
}

func newAccountResolver(tx *solana.Transaction, loaded update.LoadedAddresses) accountResolver {
	static := tx.Message.AccountKeys
	keys := make([]solana.PublicKey, 0, len(static)+loaded.Len())
	keys = append(keys, static...)
	keys = append(keys, loaded.Writable...)
	keys = append(keys, loaded.Readonly...)

	return accountResolver{
		keys:   keys,
		header: tx.Message.Header,
		static: len(static),
		loaded: len(loaded.Writable),
	}
}

func (r accountResolver) meta(idx uint16) (*solana.AccountMeta, error) {
	i := int(idx)
	if i >= len(r.keys) {
		return nil, fmt.Errorf("account index %d out of range (%d keys)", i, len(r.keys))
	}

	signers := int(r.header.NumRequiredSignatures)
	isSigner := i < signers

	var isWritable bool
	switch {
	case i >= r.static:
		isWritable = i-r.static < r.loaded
	case isSigner:
		isWritable = i < signers-int(r.header.NumReadonlySignedAccounts)
	default:
		isWritable = i < r.static-int(r.header.NumReadonlyUnsignedAccounts)
	}

	return solana.NewAccountMeta(r.keys[i], isWritable, isSigner), nil
}

func (r accountResolver) resolve(ci solana.CompiledInstruction) (solana.PublicKey, []*solana.AccountMeta, error) {
	pid := int(ci.ProgramIDIndex)
	if pid >= len(r.keys) {
		return solana.PublicKey{}, nil, fmt.Errorf("program index %d out of range (%d keys)", pid, len(r.keys))
	}

	metas := make([]*solana.AccountMeta, 0, len(ci.Accounts))
	for _, idx := range ci.Accounts {
		m, err := r.meta(idx)
		if err != nil {
			return solana.PublicKey{}, nil, err
		}
		metas = append(metas, m)
	}

	return r.keys[pid], metas, nil
}

// Instructions flattens the top level and inner instructions of tx in
// execution order, each inner instruction placed right after the top level
// instruction that invoked it.
func Instructions(tx update.Transaction) ([]Instruction, error) {
	if tx.Transaction == nil {
		return nil, ErrMissingTransaction
	}

	resolver := newAccountResolver(tx.Transaction, tx.Meta.LoadedAddresses)

	inner := make(map[uint16][]update.InnerInstruction, len(tx.Meta.InnerInstructions))
	for _, group := range tx.Meta.InnerInstructions {
		inner[group.Index] = append(inner[group.Index], group.Instructions...)
	}

	var out []Instruction
	for i, ci := range tx.Transaction.Message.Instructions {
		index := uint16(i)

		programID, metas, err := resolver.resolve(ci)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}

		out = append(out, Instruction{
			ProgramID:   programID,
			Accounts:    metas,
			Data:        ci.Data,
			Index:       index,
			StackHeight: 1,
			Path:        []int{i},
		})

		// stack holds the last position seen at every depth; stack[0] is
		// the top level index.
		stack := []int{i}
		for j, in := range inner[index] {
			height := uint32(defaultInnerStackHeight)
			if in.StackHeight != nil && *in.StackHeight > 1 {
				height = *in.StackHeight
			}

			depth := min(int(height)-1, len(stack))
			if depth == len(stack) {
				stack = append(stack, 0)
			} else {
				stack = stack[:depth+1]
				stack[depth]++
			}

			programID, metas, err := resolver.resolve(in.Instruction)
			if err != nil {
				return nil, fmt.Errorf("inner instruction %d.%d: %w", i, j, err)
			}

			out = append(out, Instruction{
				ProgramID:   programID,
				Accounts:    metas,
				Data:        in.Instruction.Data,
				Index:       index,
				StackHeight: height,
				Path:        slices.Clone(stack),
			})
		}
	}

	return out, nil
}
