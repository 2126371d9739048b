package pipe

import (
	"context"
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/filter"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/processor"
	"github.com/gabapcia/slotstream/internal/update"
)

// AccountInput is a decoded account write.
type AccountInput[T any] struct {
	Meta
	Pubkey  solana.PublicKey
	Account update.AccountState
	Decoded decoder.DecodedAccount[T]
}

func (in AccountInput[T]) OwnerID() solana.PublicKey { return in.Account.Owner }

// Key identifies the write as pubkey:slot.
func (in AccountInput[T]) Key() string {
	return in.Pubkey.String() + ":" + strconv.FormatUint(in.Slot, 10)
}

// AccountPipe handles account writes.
type AccountPipe[T any] struct {
	name      string
	decoder   decoder.AccountDecoder[T]
	filters   filter.Chain[AccountInput[T]]
	processor processor.Processor[AccountInput[T]]
}

var _ Pipe = (*AccountPipe[any])(nil)

// NewAccountPipe builds an account pipe. Filters run in the given order.
func NewAccountPipe[T any](
	name string,
	d decoder.AccountDecoder[T],
	p processor.Processor[AccountInput[T]],
	filters ...filter.Filter[AccountInput[T]],
) *AccountPipe[T] {
	return &AccountPipe[T]{name: name, decoder: d, filters: filters, processor: p}
}

func (p *AccountPipe[T]) Name() string      { return p.name }
func (p *AccountPipe[T]) Kind() update.Kind { return update.KindAccount }

func (p *AccountPipe[T]) Run(ctx context.Context, env Envelope, m *metrics.Collection) error {
	u, ok := env.Update.(update.Account)
	if !ok {
		return mismatch(p, env)
	}
	meta := metaOf(env)

	decoded, err := p.decoder.DecodeAccount(u.Account)
	if errors.Is(err, decoder.ErrNoMatch) {
		noMatch(ctx, m)
		return nil
	}
	if err != nil {
		decodeFailed(ctx, m, p.name, meta, err)
		return nil
	}

	input := AccountInput[T]{Meta: meta, Pubkey: u.Pubkey, Account: u.Account, Decoded: decoded}
	if !p.filters.Matches(input) {
		filteredOut(ctx, m)
		return nil
	}

	if err := p.processor.Process(ctx, input, m); err != nil {
		return processFailed(ctx, m, err)
	}
	return nil
}

// AccountDeletionInput identifies a closed account. Deletions carry no
// state, so there is nothing to decode.
type AccountDeletionInput struct {
	Meta
	Pubkey solana.PublicKey
}

// Key identifies the deletion as pubkey:slot.
func (in AccountDeletionInput) Key() string {
	return in.Pubkey.String() + ":" + strconv.FormatUint(in.Slot, 10)
}

// AccountDeletionPipe handles account deletions.
type AccountDeletionPipe struct {
	name      string
	filters   filter.Chain[AccountDeletionInput]
	processor processor.Processor[AccountDeletionInput]
}

var _ Pipe = (*AccountDeletionPipe)(nil)

// NewAccountDeletionPipe builds an account deletion pipe.
func NewAccountDeletionPipe(
	name string,
	p processor.Processor[AccountDeletionInput],
	filters ...filter.Filter[AccountDeletionInput],
) *AccountDeletionPipe {
	return &AccountDeletionPipe{name: name, filters: filters, processor: p}
}

func (p *AccountDeletionPipe) Name() string      { return p.name }
func (p *AccountDeletionPipe) Kind() update.Kind { return update.KindAccountDeletion }

func (p *AccountDeletionPipe) Run(ctx context.Context, env Envelope, m *metrics.Collection) error {
	u, ok := env.Update.(update.AccountDeletion)
	if !ok {
		return mismatch(p, env)
	}

	input := AccountDeletionInput{Meta: metaOf(env), Pubkey: u.Pubkey}
	if !p.filters.Matches(input) {
		filteredOut(ctx, m)
		return nil
	}

	if err := p.processor.Process(ctx, input, m); err != nil {
		return processFailed(ctx, m, err)
	}
	return nil
}
