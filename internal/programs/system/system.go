// Package system decodes the instructions of the Solana System program that
// move lamports or change account ownership.
package system

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/decoder"
)

// Instruction is implemented by every decoded System instruction.
type Instruction interface {
	// Name is the variant name, e.g. "transfer".
	Name() string
}

// CreateAccount funds NewAccount and assigns it to Owner.
type CreateAccount struct {
	Funder     solana.PublicKey
	NewAccount solana.PublicKey
	Lamports   uint64
	Space      uint64
	Owner      solana.PublicKey
	Remaining  []*solana.AccountMeta
}

type Assign struct {
	Account   solana.PublicKey
	Owner     solana.PublicKey
	Remaining []*solana.AccountMeta
}

// Transfer moves Lamports from From to To. Remaining holds any accounts
// passed after the two the program reads, in instruction order.
type Transfer struct {
	From      solana.PublicKey
	To        solana.PublicKey
	Lamports  uint64
	Remaining []*solana.AccountMeta
}

func (CreateAccount) Name() string { return "create_account" }
func (Assign) Name() string        { return "assign" }
func (Transfer) Name() string      { return "transfer" }

type (
	createAccountArgs struct {
		Lamports uint64
		Space    uint64
		Owner    solana.PublicKey
	}

	assignArgs struct {
		Owner solana.PublicKey
	}

	transferArgs struct {
		Lamports uint64
	}
)

// discriminator encodes the little endian u32 instruction index the System
// program prefixes its instructions with.
func discriminator(index uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, index)
}

// fundingAccounts are the roles shared by create_account and transfer.
type fundingAccounts struct {
	source      solana.PublicKey
	destination solana.PublicKey
	remaining   []*solana.AccountMeta
}

type assignAccounts struct {
	account   solana.PublicKey
	remaining []*solana.AccountMeta
}

func arrangeFunding(variant string) decoder.Arranger[fundingAccounts] {
	return decoder.ArrangeFunc[fundingAccounts](func(accounts []*solana.AccountMeta) (fundingAccounts, error) {
		prefix, remaining, err := decoder.SplitAccounts(variant, accounts, 2)
		if err != nil {
			return fundingAccounts{}, err
		}
		return fundingAccounts{
			source:      prefix[0].PublicKey,
			destination: prefix[1].PublicKey,
			remaining:   remaining,
		}, nil
	})
}

func arrangeAssign() decoder.Arranger[assignAccounts] {
	return decoder.Positional("assign", 1, func(keys []solana.PublicKey, remaining []*solana.AccountMeta) assignAccounts {
		return assignAccounts{account: keys[0], remaining: remaining}
	})
}

// Decoder decodes System program instructions. It does not decode accounts.
var Decoder = decoder.NewProgram(solana.SystemProgramID, decoder.MustTable(
	decoder.Borsh("create_account", discriminator(0), arrangeFunding("create_account"), func(v createAccountArgs, a fundingAccounts) Instruction {
		return CreateAccount{
			Funder:     a.source,
			NewAccount: a.destination,
			Lamports:   v.Lamports,
			Space:      v.Space,
			Owner:      v.Owner,
			Remaining:  a.remaining,
		}
	}),
	decoder.Borsh("assign", discriminator(1), arrangeAssign(), func(v assignArgs, a assignAccounts) Instruction {
		return Assign{Account: a.account, Owner: v.Owner, Remaining: a.remaining}
	}),
	decoder.Borsh("transfer", discriminator(2), arrangeFunding("transfer"), func(v transferArgs, a fundingAccounts) Instruction {
		return Transfer{From: a.source, To: a.destination, Lamports: v.Lamports, Remaining: a.remaining}
	}),
), nil)
