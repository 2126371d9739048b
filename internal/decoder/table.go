package decoder

import (
	"bytes"
	"encoding/hex"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Variant is one schema a program knows how to decode.
type Variant[T any] struct {
	// Name identifies the variant in errors and logs.
	Name string

	// Discriminator is the byte prefix selecting this variant.
	Discriminator []byte

	// Decode deserializes body, the bytes following the discriminator, and
	// maps accounts to the variant's roles. accounts is nil for account
	// decoding. A list too short for the roles fails with *ArrangementError.
	Decode func(body []byte, accounts []*solana.AccountMeta) (T, error)
}

// Table selects at most one variant for a byte payload.
type Table[T any] struct {
	variants []Variant[T]
}

// NewTable validates the variants and builds a table. No discriminator may be
// empty or a prefix of another, so any payload matches at most one variant.
func NewTable[T any](variants ...Variant[T]) (*Table[T], error) {
	for i, v := range variants {
		if len(v.Discriminator) == 0 {
			return nil, fmt.Errorf("%w: variant %q", ErrEmptyDiscriminator, v.Name)
		}
		if v.Decode == nil {
			return nil, fmt.Errorf("variant %q has no decode function", v.Name)
		}

		for _, o := range variants[i+1:] {
			if bytes.HasPrefix(v.Discriminator, o.Discriminator) || bytes.HasPrefix(o.Discriminator, v.Discriminator) {
				return nil, fmt.Errorf("%w: %q (%s) and %q (%s)", ErrAmbiguousDiscriminator,
					v.Name, hex.EncodeToString(v.Discriminator),
					o.Name, hex.EncodeToString(o.Discriminator),
				)
			}
		}
	}

	return &Table[T]{variants: variants}, nil
}

// MustTable is like NewTable but panics on an invalid table. It is meant for
// package level tables built from constants.
func MustTable[T any](variants ...Variant[T]) *Table[T] {
	t, err := NewTable(variants...)
	if err != nil {
		panic(err)
	}
	return t
}

// Match returns the variant whose discriminator prefixes data.
func (t *Table[T]) Match(data []byte) (Variant[T], bool) {
	for _, v := range t.variants {
		if bytes.HasPrefix(data, v.Discriminator) {
			return v, true
		}
	}
	return Variant[T]{}, false
}

// Variants returns the table entries in declaration order.
func (t *Table[T]) Variants() []Variant[T] {
	out := make([]Variant[T], len(t.variants))
	copy(out, t.variants)
	return out
}

// Arranged builds an instruction Variant that maps the accounts through
// arranger before decode sees the body. The arranger's *ArrangementError is
// returned unchanged.
func Arranged[T, A any](name string, discriminator []byte, arranger Arranger[A], decode func(body []byte, accounts A) (T, error)) Variant[T] {
	return Variant[T]{
		Name:          name,
		Discriminator: discriminator,
		Decode: func(body []byte, accounts []*solana.AccountMeta) (T, error) {
			arranged, err := arranger.ArrangeAccounts(accounts)
			if err != nil {
				var zero T
				return zero, err
			}
			return decode(body, arranged)
		},
	}
}

// Borsh builds an instruction Variant whose body is a Borsh encoded V. wrap
// combines the decoded body with the arranged accounts.
func Borsh[T, V, A any](name string, discriminator []byte, arranger Arranger[A], wrap func(V, A) T) Variant[T] {
	return Arranged(name, discriminator, arranger, func(body []byte, accounts A) (T, error) {
		v, err := borsh[V](body)
		if err != nil {
			var zero T
			return zero, err
		}
		return wrap(v, accounts), nil
	})
}

// BorshAccount builds an account Variant whose data is a Borsh encoded V.
func BorshAccount[T, V any](name string, discriminator []byte, wrap func(V) T) Variant[T] {
	return Variant[T]{
		Name:          name,
		Discriminator: discriminator,
		Decode: func(body []byte, _ []*solana.AccountMeta) (T, error) {
			v, err := borsh[V](body)
			if err != nil {
				var zero T
				return zero, err
			}
			return wrap(v), nil
		},
	}
}

func borsh[V any](body []byte) (V, error) {
	var v V
	err := bin.NewBorshDecoder(body).Decode(&v)
	return v, err
}

// AnchorInstruction returns the 8 byte discriminator Anchor assigns to the
// instruction called name.
func AnchorInstruction(name string) []byte {
	return bin.SighashInstruction(name)
}

// AnchorAccount returns the 8 byte discriminator Anchor assigns to the
// account type called name.
func AnchorAccount(name string) []byte {
	return bin.SighashAccount(name)
}
