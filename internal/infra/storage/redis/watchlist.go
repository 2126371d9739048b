package redis

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/watchlist"
)

// Compile-time check to ensure *client implements watchlist.Storage.
var _ watchlist.Storage = new(client)

// watchlistKey returns the key of the set holding the base58 addresses of a
// named watchlist:
//
//	"slotstream:watchlist:<name>"
func watchlistKey(name string) string {
	return key("watchlist", name)
}

// AddToWatchlist adds the entry address to its list. Adding an address twice
// is a no-op.
func (c *client) AddToWatchlist(ctx context.Context, e watchlist.Entry) error {
	return c.conn.SAdd(ctx, watchlistKey(e.List), e.Address).Err()
}

func (c *client) RemoveFromWatchlist(ctx context.Context, e watchlist.Entry) error {
	return c.conn.SRem(ctx, watchlistKey(e.List), e.Address).Err()
}

// LoadWatchlist returns every address in the named watchlist. Members that
// are not valid base58 public keys are reported as an error.
func (c *client) LoadWatchlist(ctx context.Context, name string) ([]solana.PublicKey, error) {
	members, err := c.conn.SMembers(ctx, watchlistKey(name)).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]solana.PublicKey, 0, len(members))
	for _, m := range members {
		k, err := solana.PublicKeyFromBase58(m)
		if err != nil {
			return nil, fmt.Errorf("watchlist %s member %q: %w", name, m, err)
		}
		keys = append(keys, k)
	}

	return keys, nil
}
