// Package config loads slotstream settings from SLOTSTREAM_* environment
// variables and validates them.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/gabapcia/slotstream/internal/pipeline"
	"github.com/gabapcia/slotstream/internal/pkg/validator"
)

// Prefix is prepended to every environment variable name. Nested sections
// add their own segment, e.g. SLOTSTREAM_RPC_ENDPOINT.
const Prefix = "SLOTSTREAM"

// Config is the full set of settings read by Load.
type Config struct {
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error dpanic panic fatal"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"slotstream" validate:"required"`
	Telemetry   bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	RPC      RPC
	Redis    Redis
	Stream   Stream
	Pipeline Pipeline
	Metrics  Metrics
}

// RPC configures the block crawler. It is disabled when Endpoint is empty.
type RPC struct {
	Endpoint     string        `envconfig:"ENDPOINT" validate:"omitempty,url"`
	Commitment   string        `envconfig:"COMMITMENT" default:"confirmed" validate:"oneof=processed confirmed finalized"`
	StartSlot    *uint64       `envconfig:"START_SLOT"`
	RateLimit    float64       `envconfig:"RATE_LIMIT" default:"10" validate:"gte=0"`
	RateBurst    int           `envconfig:"RATE_BURST" default:"1" validate:"gte=0"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"400ms"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"10s"`
	Retries      uint          `envconfig:"RETRIES" default:"3"`
	Votes        bool          `envconfig:"VOTES" default:"false"`
}

// Redis configures the connection shared by checkpoints, stream positions,
// idempotency claims, watchlists and the update streams.
type Redis struct {
	Addr     string `envconfig:"ADDR" default:"localhost:6379" validate:"required,hostname_port"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0" validate:"gte=0"`
}

// Stream configures the replay datasource, disabled when Name is empty, and
// the stream crawled transactions are forwarded to, disabled when ForwardTo
// is empty.
type Stream struct {
	Name      string   `envconfig:"NAME"`
	StartID   string   `envconfig:"START_ID" default:"$"`
	Kinds     []string `envconfig:"KINDS" validate:"dive,update_kind"`
	ForwardTo string   `envconfig:"FORWARD_TO" validate:"omitempty,nefield=Name"`
}

// Pipeline configures the pipeline runtime and the pipes built by start.
// ChannelCapacity 0 keeps the queue unbounded whatever OverflowPolicy says.
// Programs enables the program activity pipe for the listed program ids.
type Pipeline struct {
	ChannelCapacity  int           `envconfig:"CHANNEL_CAPACITY" default:"0" validate:"gte=0"`
	OverflowPolicy   string        `envconfig:"OVERFLOW_POLICY" default:"unbounded" validate:"oneof=unbounded block drop_oldest drop_newest"`
	ErrorPolicy      string        `envconfig:"ERROR_POLICY" default:"continue" validate:"oneof=continue halt"`
	ShutdownStrategy string        `envconfig:"SHUTDOWN_STRATEGY" default:"process_pending" validate:"oneof=process_pending immediate"`
	DrainTimeout     time.Duration `envconfig:"DRAIN_TIMEOUT" default:"0s"`
	IdempotencyTTL   time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"5m"`
	Watchlist        string        `envconfig:"WATCHLIST"`
	Programs         []string      `envconfig:"PROGRAMS" validate:"dive,solana_pubkey"`
}

// Metrics configures the flush interval and the /metrics listener.
type Metrics struct {
	FlushInterval time.Duration `envconfig:"FLUSH_INTERVAL" default:"5s"`
	ListenAddr    string        `envconfig:"LISTEN_ADDR" default:":9090"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// PipelineOptions translates the pipeline settings into pipeline options.
func (c Config) PipelineOptions() ([]pipeline.Option, error) {
	overflow, err := pipeline.ParseOverflowPolicy(c.Pipeline.OverflowPolicy)
	if err != nil {
		return nil, err
	}

	strategy, err := pipeline.ParseShutdownStrategy(c.Pipeline.ShutdownStrategy)
	if err != nil {
		return nil, err
	}

	errorPolicy, err := pipeline.ParseErrorPolicy(c.Pipeline.ErrorPolicy)
	if err != nil {
		return nil, err
	}

	return []pipeline.Option{
		pipeline.WithChannelCapacity(c.Pipeline.ChannelCapacity, overflow),
		pipeline.WithShutdownStrategy(strategy),
		pipeline.WithDrainTimeout(c.Pipeline.DrainTimeout),
		pipeline.WithErrorPolicy(errorPolicy),
		pipeline.WithFlushInterval(c.Metrics.FlushInterval),
	}, nil
}
