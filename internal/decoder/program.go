package decoder

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/update"
)

// DecodedInstruction is an instruction that matched exactly one variant of
// its program.
type DecodedInstruction[T any] struct {
	ProgramID     solana.PublicKey
	Variant       string
	Discriminator []byte
	Data          T
	Accounts      []*solana.AccountMeta
}

// InstructionDecoder turns instructions into typed values.
type InstructionDecoder[T any] interface {
	// DecodeInstruction returns ErrNoMatch for instructions it does not
	// know, a *DecodeError or *ArrangementError for malformed ones.
	DecodeInstruction(ix Instruction) (DecodedInstruction[T], error)
}

// ProgramDecoder is an InstructionDecoder bound to a single program.
type ProgramDecoder[T any] interface {
	InstructionDecoder[T]

	// ProgramID is the program whose instructions the decoder understands.
	ProgramID() solana.PublicKey
}

// DecodedAccount is account data that matched one variant of its owner.
type DecodedAccount[T any] struct {
	Owner         solana.PublicKey
	Variant       string
	Discriminator []byte
	Lamports      uint64
	Executable    bool
	RentEpoch     uint64
	Data          T
}

// AccountDecoder decodes account data.
type AccountDecoder[T any] interface {
	// DecodeAccount follows the same error contract as DecodeInstruction.
	DecodeAccount(account update.AccountState) (DecodedAccount[T], error)
}

// Program decodes instructions and accounts of one program through
// discriminator tables. Either table may be nil.
type Program[T any] struct {
	id           solana.PublicKey
	instructions *Table[T]
	accounts     *Table[T]
}

var (
	_ ProgramDecoder[any] = (*Program[any])(nil)
	_ AccountDecoder[any] = (*Program[any])(nil)
)

// NewProgram returns a decoder for the program id using the given tables.
func NewProgram[T any](id solana.PublicKey, instructions, accounts *Table[T]) *Program[T] {
	return &Program[T]{id: id, instructions: instructions, accounts: accounts}
}

func (p *Program[T]) ProgramID() solana.PublicKey {
	return p.id
}

func (p *Program[T]) DecodeInstruction(ix Instruction) (DecodedInstruction[T], error) {
	var out DecodedInstruction[T]
	if p.instructions == nil || !ix.ProgramID.Equals(p.id) {
		return out, ErrNoMatch
	}

	v, ok := p.instructions.Match(ix.Data)
	if !ok {
		return out, ErrNoMatch
	}

	data, err := v.Decode(ix.Data[len(v.Discriminator):], ix.Accounts)
	if err != nil {
		var arrangeErr *ArrangementError
		if errors.As(err, &arrangeErr) {
			return out, err
		}
		return out, &DecodeError{ProgramID: p.id, Variant: v.Name, Discriminator: v.Discriminator, Err: err}
	}

	return DecodedInstruction[T]{
		ProgramID:     p.id,
		Variant:       v.Name,
		Discriminator: v.Discriminator,
		Data:          data,
		Accounts:      ix.Accounts,
	}, nil
}

func (p *Program[T]) DecodeAccount(account update.AccountState) (DecodedAccount[T], error) {
	var out DecodedAccount[T]
	if p.accounts == nil || !account.Owner.Equals(p.id) {
		return out, ErrNoMatch
	}

	v, ok := p.accounts.Match(account.Data)
	if !ok {
		return out, ErrNoMatch
	}

	data, err := v.Decode(account.Data[len(v.Discriminator):], nil)
	if err != nil {
		return out, &DecodeError{ProgramID: p.id, Variant: v.Name, Discriminator: v.Discriminator, Err: err}
	}

	return DecodedAccount[T]{
		Owner:         account.Owner,
		Variant:       v.Name,
		Discriminator: v.Discriminator,
		Lamports:      account.Lamports,
		Executable:    account.Executable,
		RentEpoch:     account.RentEpoch,
		Data:          data,
	}, nil
}
