package filter

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

type input struct {
	slot    uint64
	source  string
	owner   solana.PublicKey
	program solana.PublicKey
	vote    bool
}

func (i input) SlotNumber() uint64          { return i.slot }
func (i input) DatasourceName() string      { return i.source }
func (i input) OwnerID() solana.PublicKey   { return i.owner }
func (i input) ProgramID() solana.PublicKey { return i.program }
func (i input) IsVoteTransaction() bool     { return i.vote }

type spy struct {
	result bool
	calls  int
}

func (s *spy) Matches(input) bool {
	s.calls++
	return s.result
}

func TestChain(t *testing.T) {
	t.Run("should accept with an empty chain", func(t *testing.T) {
		assert.True(t, Chain[input]{}.Matches(input{}))
	})

	t.Run("should accept when every filter accepts", func(t *testing.T) {
		a, b := &spy{result: true}, &spy{result: true}

		assert.True(t, Chain[input]{a, b}.Matches(input{}))
		assert.Equal(t, 1, a.calls)
		assert.Equal(t, 1, b.calls)
	})

	t.Run("should short circuit on first rejection", func(t *testing.T) {
		first, reject, never := &spy{result: true}, &spy{result: false}, &spy{result: true}

		assert.False(t, Chain[input]{first, reject, never}.Matches(input{}))
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 1, reject.calls)
		assert.Zero(t, never.calls)
	})
}

func TestCombinators(t *testing.T) {
	yes := Func[input](func(input) bool { return true })
	no := Func[input](func(input) bool { return false })

	assert.False(t, Not[input](yes).Matches(input{}))
	assert.True(t, Not[input](no).Matches(input{}))

	assert.True(t, Any[input](no, yes).Matches(input{}))
	assert.False(t, Any[input](no, no).Matches(input{}))
	assert.False(t, Any[input]().Matches(input{}))

	later := &spy{result: true}
	assert.True(t, Any[input](yes, later).Matches(input{}))
	assert.Zero(t, later.calls)
}

func TestSlotFilters(t *testing.T) {
	after := SlotAfter[input](100)
	assert.False(t, after.Matches(input{slot: 99}))
	assert.False(t, after.Matches(input{slot: 100}))
	assert.True(t, after.Matches(input{slot: 101}))

	bounded := SlotRange[input](10, 20)
	assert.False(t, bounded.Matches(input{slot: 9}))
	assert.True(t, bounded.Matches(input{slot: 10}))
	assert.True(t, bounded.Matches(input{slot: 20}))
	assert.False(t, bounded.Matches(input{slot: 21}))

	open := SlotRange[input](10, 0)
	assert.True(t, open.Matches(input{slot: 1 << 40}))
}

func TestFromDatasources(t *testing.T) {
	f := FromDatasources[input]("rpc", "replay")

	assert.True(t, f.Matches(input{source: "rpc"}))
	assert.True(t, f.Matches(input{source: "replay"}))
	assert.False(t, f.Matches(input{source: "geyser"}))
	assert.False(t, FromDatasources[input]().Matches(input{source: "rpc"}))
}

func TestKeyFilters(t *testing.T) {
	token := solana.TokenProgramID
	system := solana.SystemProgramID

	owned := OwnedBy[input](token)
	assert.True(t, owned.Matches(input{owner: token}))
	assert.False(t, owned.Matches(input{owner: system}))

	programs := ForPrograms[input](token, system)
	assert.True(t, programs.Matches(input{program: system}))
	assert.False(t, programs.Matches(input{program: solana.PublicKey{1}}))
}

func TestExcludeVotes(t *testing.T) {
	f := ExcludeVotes[input]()

	assert.True(t, f.Matches(input{}))
	assert.False(t, f.Matches(input{vote: true}))
}
