package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/pipeline"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
)

const metricsShutdownTimeout = 5 * time.Second

// startPipelineCommand returns a CLI command that runs the pipeline and, when
// configured, serves its Prometheus metrics.
//
// Usage example:
//
//	slotstream start
//
// The command returns when the pipeline stops. SIGINT and SIGTERM cancel the
// pipeline context, which drains it according to its shutdown strategy.
func startPipelineCommand(p pipeline.Pipeline, ms MetricsServer) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Runs the pipeline: starts every datasource and dispatches their updates to the pipes.",
		Usage:       "Runs the pipeline until it stops. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return p.Run(ctx)
			})

			if ms.Addr != "" && ms.Handler != nil {
				serveMetrics(ctx, g, ms)
			}

			return g.Wait()
		},
	}
}

func serveMetrics(ctx context.Context, g *errgroup.Group, ms MetricsServer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", ms.Handler)

	srv := &http.Server{
		Addr:              ms.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info(ctx, "serving metrics", "metrics.addr", ms.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})
}

// listKindsCommand returns a CLI command that prints every configured
// datasource with the update kinds it declares.
//
// Usage example:
//
//	slotstream kinds
func listKindsCommand(sources []datasource.Datasource) *cli.Command {
	return &cli.Command{
		Name:        "kinds",
		Description: "Lists the configured datasources and the update kinds each one emits.",
		Usage:       "Prints one line per datasource.",
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			for _, ds := range sources {
				if _, err := fmt.Fprintf(w, "%s\t%s\n", ds.Name(), ds.UpdateTypes()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
