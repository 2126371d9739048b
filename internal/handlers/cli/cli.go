package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/pipeline"
	"github.com/gabapcia/slotstream/internal/watchlist"
)

// MetricsServer describes the HTTP endpoint that exposes pipeline metrics
// while the pipeline runs. An empty Addr or a nil Handler disables it.
type MetricsServer struct {
	Addr    string
	Handler http.Handler
}

// Run initializes and executes the slotstream CLI application.
//
// It registers all available commands, including:
//
//   - `start`: Runs the pipeline until it stops or the process is interrupted.
//   - `kinds`: Lists the configured datasources and the update kinds they emit.
//   - `watch`: Adds an address to a watchlist.
//   - `unwatch`: Removes an address from a watchlist.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - p: The pipeline run by the start command.
//   - sources: The datasources p was built with.
//   - wl: The watchlist service used by the watchlist commands.
//   - ms: Where the start command serves metrics.
func Run(ctx context.Context, p pipeline.Pipeline, sources []datasource.Datasource, wl watchlist.Service, ms MetricsServer) error {
	return newApp(p, sources, wl, ms).Run(ctx, os.Args)
}

func newApp(p pipeline.Pipeline, sources []datasource.Datasource, wl watchlist.Service, ms MetricsServer) *cli.Command {
	return &cli.Command{
		EnableShellCompletion: true,
		Name:                  "slotstream",
		Description:           "Command-line interface for running and managing the slotstream indexing pipeline.",
		Usage:                 "slotstream [command] [flags]",
		Commands: []*cli.Command{
			startPipelineCommand(p, ms),
			listKindsCommand(sources),
			watchAddressCommand(wl),
			unwatchAddressCommand(wl),
		},
	}
}
