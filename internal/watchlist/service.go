// Package watchlist manages named sets of account addresses the pipeline
// restricts some of its pipes to.
//
// Lists are edited at runtime through the CLI and read once when the
// pipeline starts, so filters built from them stay free of I/O.
package watchlist

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Service defines the operations on watchlists.
type Service interface {
	// Watch adds address to the named list.
	Watch(ctx context.Context, list, address string) error

	// Unwatch removes address from the named list.
	Unwatch(ctx context.Context, list, address string) error

	// Load returns every address of the named list.
	Load(ctx context.Context, list string) ([]solana.PublicKey, error)
}

type service struct {
	storage Storage
}

// Ensure compile-time compliance with the Service interface.
var _ Service = (*service)(nil)

func New(s Storage) *service {
	return &service{
		storage: s,
	}
}
