package decoder

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/update"
)

// Chain tries an ordered list of instruction decoders. Decoders are indexed
// by program id so only those declared for the instruction's program run.
type Chain[T any] struct {
	byProgram map[solana.PublicKey][]ProgramDecoder[T]
	programs  []solana.PublicKey
}

var _ InstructionDecoder[any] = (*Chain[any])(nil)

// NewChain builds a chain. Decoders sharing a program id are tried in the
// order given.
func NewChain[T any](decoders ...ProgramDecoder[T]) *Chain[T] {
	c := &Chain[T]{byProgram: make(map[solana.PublicKey][]ProgramDecoder[T])}
	for _, d := range decoders {
		id := d.ProgramID()
		if _, ok := c.byProgram[id]; !ok {
			c.programs = append(c.programs, id)
		}
		c.byProgram[id] = append(c.byProgram[id], d)
	}
	return c
}

// ProgramIDs returns the programs the chain can decode, in registration order.
func (c *Chain[T]) ProgramIDs() []solana.PublicKey {
	return append([]solana.PublicKey(nil), c.programs...)
}

// Handles reports whether some decoder is declared for programID.
func (c *Chain[T]) Handles(programID solana.PublicKey) bool {
	_, ok := c.byProgram[programID]
	return ok
}

// DecodeInstruction returns the result of the first decoder that does not
// answer ErrNoMatch. A decode failure stops the search: the discriminator
// already identified the variant.
func (c *Chain[T]) DecodeInstruction(ix Instruction) (DecodedInstruction[T], error) {
	candidates, ok := c.byProgram[ix.ProgramID]
	if !ok {
		return DecodedInstruction[T]{}, ErrNoMatch
	}

	for _, d := range candidates {
		decoded, err := d.DecodeInstruction(ix)
		if errors.Is(err, ErrNoMatch) {
			continue
		}
		return decoded, err
	}

	return DecodedInstruction[T]{}, ErrNoMatch
}

// AccountChain tries account decoders in order.
type AccountChain[T any] []AccountDecoder[T]

func (c AccountChain[T]) DecodeAccount(account update.AccountState) (DecodedAccount[T], error) {
	for _, d := range c {
		decoded, err := d.DecodeAccount(account)
		if errors.Is(err, ErrNoMatch) {
			continue
		}
		return decoded, err
	}
	return DecodedAccount[T]{}, ErrNoMatch
}

type mapped[T, U any] struct {
	d ProgramDecoder[T]
	f func(T) U
}

// Map converts the output of d, letting decoders with different payload
// types share a chain.
func Map[T, U any](d ProgramDecoder[T], f func(T) U) ProgramDecoder[U] {
	return mapped[T, U]{d: d, f: f}
}

func (m mapped[T, U]) ProgramID() solana.PublicKey {
	return m.d.ProgramID()
}

func (m mapped[T, U]) DecodeInstruction(ix Instruction) (DecodedInstruction[U], error) {
	decoded, err := m.d.DecodeInstruction(ix)
	if err != nil {
		return DecodedInstruction[U]{}, err
	}

	return DecodedInstruction[U]{
		ProgramID:     decoded.ProgramID,
		Variant:       decoded.Variant,
		Discriminator: decoded.Discriminator,
		Data:          m.f(decoded.Data),
		Accounts:      decoded.Accounts,
	}, nil
}
