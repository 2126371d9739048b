package decoder

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabapcia/slotstream/internal/update"
)

var (
	testProgram  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	otherProgram = solana.SystemProgramID
)

type transferArgs struct {
	Amount uint64
}

type testIx struct {
	Kind      string
	Amount    uint64
	From      solana.PublicKey
	To        solana.PublicKey
	Remaining []*solana.AccountMeta
}

type transferAccounts struct {
	From      solana.PublicKey
	To        solana.PublicKey
	Remaining []*solana.AccountMeta
}

func transferArranger() Arranger[transferAccounts] {
	return ArrangeFunc[transferAccounts](func(accounts []*solana.AccountMeta) (transferAccounts, error) {
		prefix, remaining, err := SplitAccounts("transfer", accounts, 2)
		if err != nil {
			return transferAccounts{}, err
		}
		return transferAccounts{From: prefix[0].PublicKey, To: prefix[1].PublicKey, Remaining: remaining}, nil
	})
}

func transferVariant() Variant[testIx] {
	return Borsh("transfer", []byte{0x01}, transferArranger(), func(args transferArgs, accounts transferAccounts) testIx {
		return testIx{
			Kind:      "transfer",
			Amount:    args.Amount,
			From:      accounts.From,
			To:        accounts.To,
			Remaining: accounts.Remaining,
		}
	})
}

func closeArranger() Arranger[solana.PublicKey] {
	return Positional("close", 1, func(keys []solana.PublicKey, _ []*solana.AccountMeta) solana.PublicKey {
		return keys[0]
	})
}

func closeVariant() Variant[testIx] {
	return Arranged("close", []byte{0x02}, closeArranger(), func(_ []byte, account solana.PublicKey) (testIx, error) {
		return testIx{Kind: "close", From: account}, nil
	})
}

func testTable(t *testing.T) *Table[testIx] {
	t.Helper()
	table, err := NewTable(transferVariant(), closeVariant())
	require.NoError(t, err)
	return table
}

func transferData(amount uint64) []byte {
	data := []byte{0x01}
	return binary.LittleEndian.AppendUint64(data, amount)
}

func metas(n int) []*solana.AccountMeta {
	out := make([]*solana.AccountMeta, n)
	for i := range out {
		var key solana.PublicKey
		key[0] = byte(i + 1)
		out[i] = solana.NewAccountMeta(key, i == 0, i == 0)
	}
	return out
}

func TestNewTable(t *testing.T) {
	t.Run("should accept disjoint discriminators", func(t *testing.T) {
		_, err := NewTable(transferVariant(), closeVariant())
		assert.NoError(t, err)
	})

	t.Run("should reject a discriminator prefixing another", func(t *testing.T) {
		// Arrange
		long := closeVariant()
		long.Name = "long"
		long.Discriminator = []byte{0x01, 0x07}

		// Act
		_, err := NewTable(transferVariant(), long)

		// Assert
		assert.ErrorIs(t, err, ErrAmbiguousDiscriminator)
		assert.ErrorContains(t, err, `"transfer"`)
	})

	t.Run("should reject duplicated discriminators", func(t *testing.T) {
		_, err := NewTable(closeVariant(), closeVariant())
		assert.ErrorIs(t, err, ErrAmbiguousDiscriminator)
	})

	t.Run("should reject empty discriminators", func(t *testing.T) {
		v := closeVariant()
		v.Discriminator = nil

		_, err := NewTable(v)
		assert.ErrorIs(t, err, ErrEmptyDiscriminator)
	})

	t.Run("should reject variants without decode function", func(t *testing.T) {
		v := closeVariant()
		v.Decode = nil

		_, err := NewTable(v)
		assert.Error(t, err)
	})

	t.Run("should panic on invalid input in MustTable", func(t *testing.T) {
		assert.Panics(t, func() { MustTable(closeVariant(), closeVariant()) })
	})
}

func TestTable_Exclusivity(t *testing.T) {
	table := testTable(t)

	for b := 0; b < 256; b++ {
		data := []byte{byte(b), 0xAA, 0xBB}

		matches := 0
		for _, v := range table.Variants() {
			if len(data) >= len(v.Discriminator) && string(data[:len(v.Discriminator)]) == string(v.Discriminator) {
				matches++
			}
		}
		assert.LessOrEqual(t, matches, 1, "byte %#x matched more than one variant", b)

		first, ok1 := table.Match(data)
		second, ok2 := table.Match(data)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, first.Name, second.Name)
	}
}

func TestProgram_DecodeInstruction(t *testing.T) {
	program := NewProgram(testProgram, testTable(t), nil)

	t.Run("should declare its program id", func(t *testing.T) {
		assert.Equal(t, testProgram, program.ProgramID())
	})

	t.Run("should decode a known variant", func(t *testing.T) {
		// Arrange
		accounts := metas(3)
		ix := Instruction{ProgramID: testProgram, Accounts: accounts, Data: transferData(500)}

		// Act
		decoded, err := program.DecodeInstruction(ix)
		require.NoError(t, err)

		// Assert
		assert.Equal(t, "transfer", decoded.Variant)
		assert.Equal(t, []byte{0x01}, decoded.Discriminator)
		assert.Equal(t, uint64(500), decoded.Data.Amount)
		assert.Equal(t, accounts[0].PublicKey, decoded.Data.From)
		assert.Equal(t, accounts[2:], decoded.Data.Remaining)
		assert.Equal(t, accounts, decoded.Accounts)
	})

	t.Run("should decode deterministically", func(t *testing.T) {
		// Arrange
		ix := Instruction{ProgramID: testProgram, Accounts: metas(2), Data: transferData(1)}

		// Act
		first, err1 := program.DecodeInstruction(ix)
		second, err2 := program.DecodeInstruction(ix)

		// Assert
		assert.Equal(t, err1, err2)
		assert.Equal(t, first, second)
	})

	t.Run("should not match other programs", func(t *testing.T) {
		_, err := program.DecodeInstruction(Instruction{ProgramID: otherProgram, Data: transferData(1)})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("should not match unknown discriminators", func(t *testing.T) {
		_, err := program.DecodeInstruction(Instruction{ProgramID: testProgram, Data: []byte{0x09}})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("should not match empty data", func(t *testing.T) {
		_, err := program.DecodeInstruction(Instruction{ProgramID: testProgram})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("should report a truncated body as a decode error", func(t *testing.T) {
		// Arrange
		ix := Instruction{ProgramID: testProgram, Accounts: metas(2), Data: []byte{0x01, 0x02}}

		// Act
		_, err := program.DecodeInstruction(ix)

		// Assert
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "transfer", decodeErr.Variant)
		assert.True(t, IsDecodeFailure(err))
		assert.NotErrorIs(t, err, ErrNoMatch)
	})

	t.Run("should report missing accounts as an arrangement error", func(t *testing.T) {
		// Arrange
		ix := Instruction{ProgramID: testProgram, Accounts: metas(1), Data: transferData(1)}

		// Act
		_, err := program.DecodeInstruction(ix)

		// Assert
		var arrangeErr *ArrangementError
		require.ErrorAs(t, err, &arrangeErr)
		assert.Equal(t, 2, arrangeErr.Required)
		assert.Equal(t, 1, arrangeErr.Got)
		assert.True(t, IsDecodeFailure(err))
	})

	t.Run("should arrange before decoding the body", func(t *testing.T) {
		// Arrange
		ix := Instruction{ProgramID: testProgram, Accounts: metas(1), Data: []byte{0x01}}

		// Act
		_, err := program.DecodeInstruction(ix)

		// Assert
		var arrangeErr *ArrangementError
		require.ErrorAs(t, err, &arrangeErr)
		assert.Equal(t, "transfer", arrangeErr.Variant)
	})

	t.Run("should decode variants built on the positional arranger", func(t *testing.T) {
		// Arrange
		accounts := metas(2)
		ix := Instruction{ProgramID: testProgram, Accounts: accounts, Data: []byte{0x02}}

		// Act
		decoded, err := program.DecodeInstruction(ix)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "close", decoded.Data.Kind)
		assert.Equal(t, accounts[0].PublicKey, decoded.Data.From)

		_, err = program.DecodeInstruction(Instruction{ProgramID: testProgram, Data: []byte{0x02}})
		var arrangeErr *ArrangementError
		assert.ErrorAs(t, err, &arrangeErr)
	})

	t.Run("should not match a program without instruction table", func(t *testing.T) {
		_, err := NewProgram[testIx](testProgram, nil, nil).DecodeInstruction(Instruction{ProgramID: testProgram, Data: []byte{0x01}})
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}

func TestProgram_DecodeAccount(t *testing.T) {
	type mintState struct {
		Supply   uint64
		Decimals uint8
	}
	type state struct {
		Mint *mintState
	}

	accounts := MustTable(
		BorshAccount("mint", AnchorAccount("Mint"), func(m mintState) state {
			return state{Mint: &m}
		}),
	)
	program := NewProgram[state](testProgram, nil, accounts)

	data := append([]byte{}, AnchorAccount("Mint")...)
	data = binary.LittleEndian.AppendUint64(data, 1_000)
	data = append(data, 6)

	t.Run("should decode an owned account", func(t *testing.T) {
		decoded, err := program.DecodeAccount(update.AccountState{Owner: testProgram, Lamports: 10, Data: data})
		require.NoError(t, err)

		assert.Equal(t, "mint", decoded.Variant)
		assert.Equal(t, uint64(10), decoded.Lamports)
		require.NotNil(t, decoded.Data.Mint)
		assert.Equal(t, uint64(1_000), decoded.Data.Mint.Supply)
		assert.Equal(t, uint8(6), decoded.Data.Mint.Decimals)
	})

	t.Run("should not match a foreign owner", func(t *testing.T) {
		_, err := program.DecodeAccount(update.AccountState{Owner: otherProgram, Data: data})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("should report truncated data as a decode error", func(t *testing.T) {
		_, err := program.DecodeAccount(update.AccountState{Owner: testProgram, Data: data[:9]})

		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("should try account decoders in order", func(t *testing.T) {
		chain := AccountChain[state]{NewProgram[state](otherProgram, nil, accounts), program}

		decoded, err := chain.DecodeAccount(update.AccountState{Owner: testProgram, Data: data})
		require.NoError(t, err)
		assert.Equal(t, "mint", decoded.Variant)

		_, err = chain.DecodeAccount(update.AccountState{Owner: solana.PublicKey{9}, Data: data})
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}

type stubDecoder struct {
	id    solana.PublicKey
	calls int
	err   error
	out   string
}

func (s *stubDecoder) ProgramID() solana.PublicKey { return s.id }

func (s *stubDecoder) DecodeInstruction(ix Instruction) (DecodedInstruction[string], error) {
	s.calls++
	if s.err != nil {
		return DecodedInstruction[string]{}, s.err
	}
	return DecodedInstruction[string]{ProgramID: s.id, Data: s.out}, nil
}

func TestChain(t *testing.T) {
	t.Run("should route by program id before decoding", func(t *testing.T) {
		// Arrange
		a := &stubDecoder{id: testProgram, out: "a"}
		b := &stubDecoder{id: otherProgram, out: "b"}
		chain := NewChain[string](a, b)

		// Act
		decoded, err := chain.DecodeInstruction(Instruction{ProgramID: otherProgram})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "b", decoded.Data)
		assert.Zero(t, a.calls)
		assert.Equal(t, 1, b.calls)
	})

	t.Run("should let the first structural match win", func(t *testing.T) {
		// Arrange
		miss := &stubDecoder{id: testProgram, err: ErrNoMatch}
		hit := &stubDecoder{id: testProgram, out: "hit"}
		never := &stubDecoder{id: testProgram, out: "never"}
		chain := NewChain[string](miss, hit, never)

		// Act
		decoded, err := chain.DecodeInstruction(Instruction{ProgramID: testProgram})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "hit", decoded.Data)
		assert.Equal(t, 1, miss.calls)
		assert.Zero(t, never.calls)
	})

	t.Run("should stop the search on a decode failure", func(t *testing.T) {
		// Arrange
		broken := &stubDecoder{id: testProgram, err: &DecodeError{Variant: "x", Err: errors.New("eof")}}
		next := &stubDecoder{id: testProgram, out: "next"}

		// Act
		_, err := NewChain[string](broken, next).DecodeInstruction(Instruction{ProgramID: testProgram})

		// Assert
		assert.True(t, IsDecodeFailure(err))
		assert.Zero(t, next.calls)
	})

	t.Run("should fall through to no match when every decoder declines", func(t *testing.T) {
		chain := NewChain[string](&stubDecoder{id: testProgram, err: ErrNoMatch})

		_, err := chain.DecodeInstruction(Instruction{ProgramID: testProgram})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("should not match an unknown program", func(t *testing.T) {
		chain := NewChain[string](&stubDecoder{id: testProgram})

		_, err := chain.DecodeInstruction(Instruction{ProgramID: solana.PublicKey{7}})
		assert.ErrorIs(t, err, ErrNoMatch)
		assert.False(t, chain.Handles(solana.PublicKey{7}))
	})

	t.Run("should keep program ids in registration order", func(t *testing.T) {
		chain := NewChain[string](
			&stubDecoder{id: otherProgram},
			&stubDecoder{id: testProgram},
			&stubDecoder{id: otherProgram},
		)
		assert.Equal(t, []solana.PublicKey{otherProgram, testProgram}, chain.ProgramIDs())
	})
}

func TestMap(t *testing.T) {
	program := NewProgram(testProgram, testTable(t), nil)
	amounts := Map(ProgramDecoder[testIx](program), func(ix testIx) any { return ix.Amount })

	chain := NewChain(amounts)
	decoded, err := chain.DecodeInstruction(Instruction{ProgramID: testProgram, Accounts: metas(2), Data: transferData(9)})

	require.NoError(t, err)
	assert.Equal(t, uint64(9), decoded.Data)
	assert.Equal(t, "transfer", decoded.Variant)
	assert.Equal(t, testProgram, amounts.ProgramID())

	_, err = amounts.DecodeInstruction(Instruction{ProgramID: otherProgram})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestAnchorDiscriminators(t *testing.T) {
	assert.Len(t, AnchorInstruction("initialize"), 8)
	assert.Len(t, AnchorAccount("Mint"), 8)
	assert.NotEqual(t, AnchorInstruction("initialize"), AnchorInstruction("close"))
}
