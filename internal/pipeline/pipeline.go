// Package pipeline runs datasources and dispatches their updates to pipes.
//
// A pipeline moves through Configuring, Running, Draining and Stopped. While
// Running, every datasource publishes into one merged queue and a single
// loop hands each update, in arrival order, to the pipes registered for its
// kind. Draining starts when the context ends, when every datasource has
// closed, or when a processor error is classified as Halt.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/update"
)

var (
	// ErrAlreadyStarted is returned by Run when the pipeline already ran.
	ErrAlreadyStarted = errors.New("pipeline already started")
	// ErrNoDatasources is returned by Run when no datasource was given.
	ErrNoDatasources = errors.New("pipeline has no datasources")
)

const (
	tracerName = "github.com/gabapcia/slotstream/internal/pipeline"

	defaultFlushInterval = 5 * time.Second
	defaultAbortTimeout  = 10 * time.Second
)

// Pipeline runs a set of datasources and dispatches their updates to the
// pipes registered for each update kind.
type Pipeline interface {
	// Run blocks until the pipeline stops. It returns nil when the context
	// ends or every datasource closes, the halting processor error when the
	// error policy says so, and the joined start errors when no datasource
	// could start.
	Run(ctx context.Context) error

	// State reports the current lifecycle stage.
	State() State
}

type pipeline struct {
	mu        sync.Mutex
	isStarted bool
	state     atomic.Int32

	datasources []datasource.Datasource
	pipes       map[update.Kind][]pipe.Pipe

	metrics         *metrics.Collection
	flushInterval   time.Duration
	capacity        int
	overflow        OverflowPolicy
	shutdown        ShutdownStrategy
	drainTimeout    time.Duration
	abortTimeout    time.Duration
	errorPolicy     ErrorPolicy
	tracer          trace.Tracer
	queue           *queue
	openDatasources atomic.Int32
}

// Compile-time check that pipeline implements Pipeline.
var _ Pipeline = (*pipeline)(nil)

func (p *pipeline) State() State {
	return State(p.state.Load())
}

func (p *pipeline) setState(ctx context.Context, s State) {
	p.state.Store(int32(s))
	logger.Debug(ctx, "pipeline state changed", "pipeline.state", s.String())
}

func (p *pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.isStarted {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.isStarted = true
	p.mu.Unlock()

	if len(p.datasources) == 0 {
		p.setState(ctx, StateStopped)
		return ErrNoDatasources
	}

	ctx = logger.Derive(ctx, "pipeline.run_id", uuid.NewString())
	stopCtx := context.WithoutCancel(ctx)

	if err := p.metrics.Initialize(ctx); err != nil {
		logger.Warn(ctx, "error initializing metrics", "error", err)
	}

	p.queue = newQueue(p.capacity, p.overflow)
	p.setState(ctx, StateRunning)

	handles, err := p.startDatasources(ctx)
	if err != nil {
		p.setState(ctx, StateStopped)
		p.stopMetrics(stopCtx)
		return err
	}

	flushCtx, stopFlush := context.WithCancel(ctx)
	flushDone := p.startFlushMetrics(flushCtx)

	haltErr := p.dispatchLoop(ctx)

	p.setState(ctx, StateDraining)
	for _, h := range handles {
		h.Abort()
	}
	p.queue.close()

	if p.shutdown == ProcessPending {
		if err := p.drain(stopCtx); err != nil && haltErr == nil {
			haltErr = err
		}
	} else {
		p.discardPending(stopCtx)
	}

	p.waitDatasources(stopCtx, handles)

	stopFlush()
	<-flushDone
	p.stopMetrics(stopCtx)
	p.setState(ctx, StateStopped)

	return haltErr
}

func (p *pipeline) startDatasources(ctx context.Context) ([]datasource.AbortHandle, error) {
	var (
		handles   []datasource.AbortHandle
		startErrs []error
	)

	logCtx := context.WithoutCancel(ctx)

	p.openDatasources.Store(int32(len(p.datasources)))
	for _, ds := range p.datasources {
		name := ds.Name()
		s := &sender{
			name:    name,
			kinds:   ds.UpdateTypes(),
			queue:   p.queue,
			metrics: p.metrics,
			logCtx:  logCtx,
			closed:  make(chan struct{}),
			onClose: p.onDatasourceClosed,
		}

		h, err := ds.Consume(ctx, s)
		if err != nil {
			p.releaseDatasource(ctx)
			startErr := &datasource.StartError{Datasource: name, Err: err}
			startErrs = append(startErrs, startErr)

			_ = p.metrics.IncrementCounter(ctx, metrics.DatasourceStartFailures, 1)
			logger.Error(ctx, "error starting datasource",
				"datasource.name", name,
				"error", err,
			)
			continue
		}

		s.attach(h)
		handles = append(handles, h)
		logger.Info(ctx, "datasource started",
			"datasource.name", name,
			"datasource.kinds", ds.UpdateTypes().String(),
		)
	}

	if len(handles) == 0 {
		return nil, errors.Join(startErrs...)
	}

	p.updateActiveGauge(ctx)
	return handles, nil
}

func (p *pipeline) onDatasourceClosed(ctx context.Context, name string, err error) {
	if err != nil {
		_ = p.metrics.IncrementCounter(ctx, metrics.DatasourceFailures, 1)
		logger.Error(ctx, "datasource failed",
			"datasource.name", name,
			"error", err,
		)
	} else {
		logger.Info(ctx, "datasource closed", "datasource.name", name)
	}
	_ = p.metrics.IncrementCounter(ctx, metrics.DatasourceClosed, 1)

	p.releaseDatasource(ctx)
}

// releaseDatasource closes the queue once no datasource can send anymore.
func (p *pipeline) releaseDatasource(ctx context.Context) {
	remaining := p.openDatasources.Add(-1)
	p.updateActiveGauge(ctx)

	if remaining == 0 {
		p.queue.close()
	}
}

func (p *pipeline) updateActiveGauge(ctx context.Context) {
	_ = p.metrics.UpdateGauge(ctx, metrics.DatasourcesActive, float64(p.openDatasources.Load()))
}

// dispatchLoop runs until ctx ends, the queue is exhausted or an error
// halts the pipeline.
func (p *pipeline) dispatchLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		env, ok := p.queue.pop(ctx)
		if !ok {
			return nil
		}

		if err := p.dispatch(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) drain(ctx context.Context) error {
	if p.drainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.drainTimeout)
		defer cancel()
	}

	for ctx.Err() == nil {
		env, ok := p.queue.pop(ctx)
		if !ok {
			break
		}

		if err := p.dispatch(ctx, env); err != nil {
			p.discardPending(ctx)
			return err
		}
	}

	if ctx.Err() != nil {
		logger.Warn(ctx, "drain timeout reached", "pipeline.drain_timeout", p.drainTimeout.String())
		p.discardPending(ctx)
	}
	return nil
}

func (p *pipeline) discardPending(ctx context.Context) {
	if n := p.queue.discard(); n > 0 {
		_ = p.metrics.IncrementCounter(ctx, metrics.UpdatesDropped, uint64(n))
		logger.Warn(ctx, "discarded pending updates", "pipeline.discarded", n)
	}
	_ = p.metrics.UpdateGauge(ctx, metrics.UpdatesQueued, 0)
}

func (p *pipeline) dispatch(ctx context.Context, env pipe.Envelope) error {
	kind := env.Update.Kind()
	slot := env.Update.SlotNumber()

	ctx, span := p.tracer.Start(ctx, "pipeline.dispatch", trace.WithAttributes(
		attribute.String("update.kind", kind.String()),
		attribute.Int64("update.slot", int64(slot)),
		attribute.String("datasource.name", env.Datasource),
	))
	defer span.End()

	_ = p.metrics.UpdateGauge(ctx, metrics.UpdatesQueued, float64(p.queue.len()))
	start := time.Now()

	var (
		failure error
		halt    bool
	)
	for _, pp := range p.pipes[kind] {
		err := pp.Run(ctx, env, p.metrics)
		if err == nil {
			continue
		}

		perr := &pipe.ProcessorError{Pipe: pp.Name(), Kind: kind, Datasource: env.Datasource, Slot: slot, Err: err}
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Error())
		logger.Error(ctx, "error processing update",
			"pipe.name", pp.Name(),
			"datasource.name", env.Datasource,
			"update.kind", kind.String(),
			"update.slot", slot,
			"error", err,
		)

		failure = perr
		if p.errorPolicy(kind, perr) == Halt {
			halt = true
			break
		}
	}

	_ = p.metrics.RecordDuration(ctx, metrics.UpdateProcessTime, time.Since(start))
	if failure != nil {
		_ = p.metrics.IncrementCounter(ctx, metrics.UpdatesFailed, 1)
		_ = p.metrics.IncrementCounter(ctx, metrics.PerKind(metrics.UpdatesFailed, kind), 1)
		if halt {
			return failure
		}
		return nil
	}

	_ = p.metrics.IncrementCounter(ctx, metrics.UpdatesProcessed, 1)
	_ = p.metrics.IncrementCounter(ctx, metrics.PerKind(metrics.UpdatesProcessed, kind), 1)
	return nil
}

func (p *pipeline) waitDatasources(ctx context.Context, handles []datasource.AbortHandle) {
	timer := time.NewTimer(p.abortTimeout)
	defer timer.Stop()

	for _, h := range handles {
		select {
		case <-h.Done():
		case <-timer.C:
			logger.Warn(ctx, "datasources did not stop in time", "pipeline.abort_timeout", p.abortTimeout.String())
			return
		}
	}
}

func (p *pipeline) startFlushMetrics(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(p.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.metrics.Flush(ctx); err != nil {
					logger.Warn(ctx, "error flushing metrics", "error", err)
				}
			}
		}
	}()

	return done
}

// stopMetrics runs the final flush and then releases the sinks. Sinks do not
// flush again on Shutdown.
func (p *pipeline) stopMetrics(ctx context.Context) {
	if err := p.metrics.Flush(ctx); err != nil {
		logger.Warn(ctx, "error flushing metrics", "error", err)
	}
	if err := p.metrics.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "error shutting down metrics", "error", err)
	}
}

type config struct {
	metrics       *metrics.Collection
	flushInterval time.Duration
	capacity      int
	overflow      OverflowPolicy
	shutdown      ShutdownStrategy
	drainTimeout  time.Duration
	abortTimeout  time.Duration
	errorPolicy   ErrorPolicy
	tracer        trace.Tracer
}

// Option configures a pipeline built by New.
type Option func(*config)

// New builds a pipeline. Pipes of the same kind run in the order given.
func New(datasources []datasource.Datasource, pipes []pipe.Pipe, opts ...Option) *pipeline {
	cfg := config{
		metrics:       metrics.NewCollection(metrics.NewLogSink()),
		flushInterval: defaultFlushInterval,
		overflow:      Unbounded,
		shutdown:      ProcessPending,
		abortTimeout:  defaultAbortTimeout,
		errorPolicy:   ContinueOnError,
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	byKind := make(map[update.Kind][]pipe.Pipe)
	for _, pp := range pipes {
		byKind[pp.Kind()] = append(byKind[pp.Kind()], pp)
	}

	return &pipeline{
		datasources:   datasources,
		pipes:         byKind,
		metrics:       cfg.metrics,
		flushInterval: cfg.flushInterval,
		capacity:      cfg.capacity,
		overflow:      cfg.overflow,
		shutdown:      cfg.shutdown,
		drainTimeout:  cfg.drainTimeout,
		abortTimeout:  cfg.abortTimeout,
		errorPolicy:   cfg.errorPolicy,
		tracer:        cfg.tracer,
	}
}

// WithMetrics replaces the default log-only collection.
func WithMetrics(c *metrics.Collection) Option {
	return func(cfg *config) {
		cfg.metrics = c
	}
}

// WithFlushInterval sets how often metrics are flushed while running.
// Non-positive values keep the default of five seconds.
func WithFlushInterval(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.flushInterval = d
		}
	}
}

// WithChannelCapacity bounds the merged queue. The overflow policy applies
// only to bounded queues.
func WithChannelCapacity(n int, policy OverflowPolicy) Option {
	return func(cfg *config) {
		cfg.capacity = n
		cfg.overflow = policy
	}
}

// WithShutdownStrategy decides what happens to queued updates once the
// pipeline starts draining. It defaults to ProcessPending.
func WithShutdownStrategy(s ShutdownStrategy) Option {
	return func(cfg *config) {
		cfg.shutdown = s
	}
}

// WithDrainTimeout bounds how long ProcessPending may dispatch after the
// pipeline starts draining. Zero waits for the queue to empty.
func WithDrainTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.drainTimeout = d
	}
}

// WithAbortTimeout bounds how long Run waits for aborted datasources.
func WithAbortTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.abortTimeout = d
		}
	}
}

// WithErrorPolicy sets how processor errors are classified. It defaults to
// ContinueOnError; a nil policy is ignored.
func WithErrorPolicy(f ErrorPolicy) Option {
	return func(cfg *config) {
		if f != nil {
			cfg.errorPolicy = f
		}
	}
}

// WithTracer sets the tracer used for the per-update dispatch span.
func WithTracer(t trace.Tracer) Option {
	return func(cfg *config) {
		cfg.tracer = t
	}
}
