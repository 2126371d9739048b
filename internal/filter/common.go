package filter

import (
	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/pkg/types"
)

// Slotted is implemented by inputs that know the slot they were observed at.
type Slotted interface {
	SlotNumber() uint64
}

// Sourced is implemented by inputs that know which datasource produced them.
type Sourced interface {
	DatasourceName() string
}

// Owned is implemented by account inputs.
type Owned interface {
	OwnerID() solana.PublicKey
}

// Programmed is implemented by instruction inputs.
type Programmed interface {
	ProgramID() solana.PublicKey
}

// SlotAfter accepts inputs observed strictly after slot.
func SlotAfter[I Slotted](slot uint64) Filter[I] {
	return Func[I](func(input I) bool { return input.SlotNumber() > slot })
}

// SlotRange accepts inputs with from <= slot <= to. A zero to means no upper
// bound.
func SlotRange[I Slotted](from, to uint64) Filter[I] {
	return Func[I](func(input I) bool {
		s := input.SlotNumber()
		return s >= from && (to == 0 || s <= to)
	})
}

// FromDatasources accepts inputs produced by one of the named datasources.
func FromDatasources[I Sourced](names ...string) Filter[I] {
	allowed := types.NewSet(names...)

	return Func[I](func(input I) bool {
		return allowed.Has(input.DatasourceName())
	})
}

// OwnedBy accepts accounts owned by one of the given programs.
func OwnedBy[I Owned](owners ...solana.PublicKey) Filter[I] {
	set := types.NewSet(owners...)
	return Func[I](func(input I) bool {
		return set.Has(input.OwnerID())
	})
}

// ForPrograms accepts instructions of one of the given programs.
func ForPrograms[I Programmed](programs ...solana.PublicKey) Filter[I] {
	set := types.NewSet(programs...)
	return Func[I](func(input I) bool {
		return set.Has(input.ProgramID())
	})
}

// Voting is implemented by inputs derived from a transaction.
type Voting interface {
	IsVoteTransaction() bool
}

// ExcludeVotes rejects inputs that come from vote transactions.
func ExcludeVotes[I Voting]() Filter[I] {
	return Func[I](func(input I) bool { return !input.IsVoteTransaction() })
}
