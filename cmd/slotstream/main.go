// Command slotstream runs the indexing pipeline and manages its watchlists.
//
// Every setting is read from SLOTSTREAM_* environment variables; see the
// internal/config package for the full list.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gabapcia/slotstream/internal/config"
	"github.com/gabapcia/slotstream/internal/handlers/cli"
	redisstorage "github.com/gabapcia/slotstream/internal/infra/storage/redis"
	"github.com/gabapcia/slotstream/internal/pipeline"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/pkg/telemetry"
	"github.com/gabapcia/slotstream/internal/watchlist"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Telemetry goes first so the logger can bridge into its provider.
	if cfg.Telemetry {
		shutdown, err := telemetry.Init(ctx, cfg.ServiceName)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			err = errors.Join(err, shutdown(context.WithoutCancel(ctx)))
		}()
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := redisstorage.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer store.Close()

	wl := watchlist.New(store)

	sources, err := buildDatasources(cfg, store)
	if err != nil {
		return err
	}

	pipes, err := buildPipes(ctx, cfg, store, wl, sources)
	if err != nil {
		return err
	}

	collection, prometheus := buildMetrics(cfg)

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	opts = append(opts, pipeline.WithMetrics(collection))

	p := pipeline.New(sources, pipes, opts...)

	return cli.Run(ctx, p, sources, wl, cli.MetricsServer{
		Addr:    cfg.Metrics.ListenAddr,
		Handler: prometheus.Handler(),
	})
}
