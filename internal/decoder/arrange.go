package decoder

import "github.com/gagliardetto/solana-go"

// Arranger maps the flat account list of one instruction variant to named
// roles. It fails with *ArrangementError when the list is too short and
// keeps any surplus accounts, in order, in the arranged value.
type Arranger[A any] interface {
	ArrangeAccounts(accounts []*solana.AccountMeta) (A, error)
}

// ArrangeFunc adapts a function to Arranger.
type ArrangeFunc[A any] func(accounts []*solana.AccountMeta) (A, error)

func (f ArrangeFunc[A]) ArrangeAccounts(accounts []*solana.AccountMeta) (A, error) {
	return f(accounts)
}

// SplitAccounts returns the first required accounts and the remainder.
// Both slices alias accounts.
func SplitAccounts(variant string, accounts []*solana.AccountMeta, required int) (prefix, remaining []*solana.AccountMeta, err error) {
	if len(accounts) < required {
		return nil, nil, &ArrangementError{Variant: variant, Required: required, Got: len(accounts)}
	}
	return accounts[:required:required], accounts[required:], nil
}

// Positional adapts arrangement code written against plain public keys
// indexed by position. fill receives exactly required keys; the surplus is
// passed along as metas so nothing is dropped.
func Positional[A any](variant string, required int, fill func(keys []solana.PublicKey, remaining []*solana.AccountMeta) A) ArrangeFunc[A] {
	return func(accounts []*solana.AccountMeta) (A, error) {
		prefix, remaining, err := SplitAccounts(variant, accounts, required)
		if err != nil {
			var zero A
			return zero, err
		}

		keys := make([]solana.PublicKey, len(prefix))
		for i, m := range prefix {
			keys[i] = m.PublicKey
		}
		return fill(keys, remaining), nil
	}
}
