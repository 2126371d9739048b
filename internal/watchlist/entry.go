package watchlist

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/pkg/validator"
)

// Entry is one address of a named list.
type Entry struct {
	List    string `validate:"required"`
	Address string `validate:"required,solana_pubkey"`
}

// Storage persists watchlists.
type Storage interface {
	// AddToWatchlist is idempotent.
	AddToWatchlist(ctx context.Context, e Entry) error

	RemoveFromWatchlist(ctx context.Context, e Entry) error

	// LoadWatchlist returns an empty slice for unknown lists.
	LoadWatchlist(ctx context.Context, list string) ([]solana.PublicKey, error)
}

func buildEntry(list, address string) (Entry, error) {
	e := Entry{
		List:    list,
		Address: address,
	}

	return e, validator.Validate(e)
}

func (s *service) Watch(ctx context.Context, list, address string) error {
	e, err := buildEntry(list, address)
	if err != nil {
		return err
	}

	return s.storage.AddToWatchlist(ctx, e)
}

func (s *service) Unwatch(ctx context.Context, list, address string) error {
	e, err := buildEntry(list, address)
	if err != nil {
		return err
	}

	return s.storage.RemoveFromWatchlist(ctx, e)
}

func (s *service) Load(ctx context.Context, list string) ([]solana.PublicKey, error) {
	return s.storage.LoadWatchlist(ctx, list)
}
