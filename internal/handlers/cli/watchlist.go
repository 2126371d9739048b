package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/gabapcia/slotstream/internal/watchlist"
)

func watchlistFlags(addressUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "list",
			Usage:    "Watchlist name",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "address",
			Usage:    addressUsage,
			Required: true,
		},
	}
}

// watchAddressCommand returns a CLI command that adds an account address to
// a named watchlist. Lists are read when the pipeline starts, so a running
// pipeline picks the change up on its next start.
//
// Usage example:
//
//	slotstream watch --list whales --address 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
func watchAddressCommand(wl watchlist.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Add an account address to a named watchlist.",
		Usage:       "Adds an address to a watchlist. Must provide both list and address.",
		Flags:       watchlistFlags("Base58 account address to start watching"),
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				list    = c.String("list")
				address = c.String("address")
			)

			return wl.Watch(ctx, list, address)
		},
	}
}

// unwatchAddressCommand returns a CLI command that removes an account address
// from a named watchlist.
//
// Usage example:
//
//	slotstream unwatch --list whales --address 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
func unwatchAddressCommand(wl watchlist.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Remove an account address from a named watchlist.",
		Usage:       "Removes an address from a watchlist. Must provide both list and address.",
		Flags:       watchlistFlags("Base58 account address to stop watching"),
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				list    = c.String("list")
				address = c.String("address")
			)

			return wl.Unwatch(ctx, list, address)
		},
	}
}
