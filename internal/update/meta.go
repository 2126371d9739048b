package update

import "github.com/gagliardetto/solana-go"

// TransactionMeta is the execution status a source reports alongside a
// transaction.
type TransactionMeta struct {
	Err               any      // execution error as reported by the source, nil on success
	Fee               uint64   // fee paid in lamports
	PreBalances       []uint64 // lamport balances before execution, by account index
	PostBalances      []uint64 // lamport balances after execution, by account index
	LogMessages       []string
	InnerInstructions []InnerInstructions
	LoadedAddresses   LoadedAddresses // accounts resolved from address lookup tables
	ComputeUnits      *uint64
}

// Succeeded reports whether the transaction executed without error.
func (m TransactionMeta) Succeeded() bool {
	return m.Err == nil
}

// InnerInstructions groups the instructions invoked through CPI by the outer
// instruction at Index.
type InnerInstructions struct {
	Index        uint16
	Instructions []InnerInstruction
}

// InnerInstruction is a compiled instruction executed through CPI.
type InnerInstruction struct {
	Instruction solana.CompiledInstruction
	StackHeight *uint32 // nil when the source does not report it
}

// LoadedAddresses holds the accounts a versioned transaction pulled in from
// address lookup tables. Writable accounts precede read-only ones in the
// resolved account list.
type LoadedAddresses struct {
	Writable []solana.PublicKey
	Readonly []solana.PublicKey
}

// Len returns the total number of loaded addresses.
func (l LoadedAddresses) Len() int {
	return len(l.Writable) + len(l.Readonly)
}
