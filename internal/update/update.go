// Package update defines the events a datasource can emit into the pipeline.
//
// Update is a closed sum type: Account, AccountDeletion, Transaction and
// Block are its only variants. Values are immutable once constructed and are
// passed by value from the producing datasource to the dispatch loop.
package update

import (
	"github.com/gagliardetto/solana-go"
)

// Update is implemented only by the variants declared in this package.
type Update interface {
	// Kind reports the variant of the update.
	Kind() Kind

	// SlotNumber returns the slot at which the event was observed.
	SlotNumber() uint64

	sealed()
}

// AccountState is the on-chain state of an account after a write.
type AccountState struct {
	Lamports   uint64           // balance in lamports
	Data       []byte           // raw account data
	Owner      solana.PublicKey // program owning the account
	Executable bool             // whether the account holds a program
	RentEpoch  uint64           // epoch at which rent is next due
}

// Account is emitted when an account is written.
type Account struct {
	Pubkey  solana.PublicKey
	Account AccountState
	Slot    uint64
}

// AccountDeletion is emitted when an account is closed. It carries identity
// only: there is no state left to decode.
type AccountDeletion struct {
	Pubkey solana.PublicKey
	Slot   uint64
}

// Transaction is emitted for every transaction observed by a datasource.
type Transaction struct {
	Signature   solana.Signature
	Transaction *solana.Transaction
	Meta        TransactionMeta
	IsVote      bool
	Slot        uint64
	BlockTime   *int64 // unix seconds, when the source knows it
}

// Block carries a source-specific raw block. It is turned into a decoded
// block by a block decoder that understands the Raw representation.
type Block struct {
	Slot uint64
	Raw  any
}

func (Account) Kind() Kind         { return KindAccount }
func (AccountDeletion) Kind() Kind { return KindAccountDeletion }
func (Transaction) Kind() Kind     { return KindTransaction }
func (Block) Kind() Kind           { return KindBlock }

func (u Account) SlotNumber() uint64         { return u.Slot }
func (u AccountDeletion) SlotNumber() uint64 { return u.Slot }
func (u Transaction) SlotNumber() uint64     { return u.Slot }
func (u Block) SlotNumber() uint64           { return u.Slot }

func (Account) sealed()         {}
func (AccountDeletion) sealed() {}
func (Transaction) sealed()     {}
func (Block) sealed()           {}

var (
	_ Update = Account{}
	_ Update = AccountDeletion{}
	_ Update = Transaction{}
	_ Update = Block{}
)
