package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gabapcia/slotstream/internal/datasource"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/update"
)

type abortRecorder struct {
	aborts atomic.Int32
}

func (h *abortRecorder) Abort()                { h.aborts.Add(1) }
func (h *abortRecorder) Done() <-chan struct{} { return nil }

func newTestSender(kinds update.KindSet) *sender {
	return &sender{
		name:    "source",
		kinds:   kinds,
		queue:   newQueue(0, Unbounded),
		metrics: metrics.NewCollection(),
		logCtx:  context.Background(),
		closed:  make(chan struct{}),
		onClose: func(context.Context, string, error) {},
	}
}

// stubbornSource declares accounts, sends transactions and ignores every
// error until it is aborted.
type stubbornSource struct {
	attempts atomic.Int64
}

func (s *stubbornSource) Name() string                { return "stubborn" }
func (s *stubbornSource) UpdateTypes() update.KindSet { return update.NewKindSet(update.KindAccount) }
func (s *stubbornSource) Metrics() datasource.Metrics { return datasource.Metrics{} }

func (s *stubbornSource) Consume(ctx context.Context, sender datasource.Sender) (datasource.AbortHandle, error) {
	return datasource.Go(ctx, "stubborn", sender, func(ctx context.Context) error {
		for ctx.Err() == nil {
			_ = sender.Send(ctx, update.Transaction{Slot: 1})
			s.attempts.Add(1)
			time.Sleep(time.Millisecond)
		}
		return ctx.Err()
	}), nil
}

func TestSender_Send(t *testing.T) {
	t.Run("should reject nil updates without panicking", func(t *testing.T) {
		// Arrange
		s := newTestSender(update.NewKindSet(update.KindAccount))

		// Act
		var err error
		assert.NotPanics(t, func() { err = s.Send(t.Context(), nil) })

		// Assert
		assert.ErrorIs(t, err, datasource.ErrUndeclaredKind)
		assert.Zero(t, s.queue.len())
	})

	t.Run("should abort the datasource on an undeclared kind", func(t *testing.T) {
		// Arrange
		s := newTestSender(update.NewKindSet(update.KindAccount))
		h := &abortRecorder{}
		s.attach(h)

		// Act
		err := s.Send(t.Context(), update.Block{Slot: 3})

		// Assert
		assert.ErrorIs(t, err, datasource.ErrUndeclaredKind)
		assert.Equal(t, int32(1), h.aborts.Load())
		assert.Zero(t, s.queue.len())
	})

	t.Run("should abort on attach when the datasource misbehaved while starting", func(t *testing.T) {
		// Arrange
		s := newTestSender(update.NewKindSet(update.KindAccount))
		_ = s.Send(t.Context(), update.Block{Slot: 3})
		h := &abortRecorder{}

		// Act
		s.attach(h)

		// Assert
		assert.Equal(t, int32(1), h.aborts.Load())
	})

	t.Run("should accept declared kinds", func(t *testing.T) {
		// Arrange
		s := newTestSender(update.NewKindSet(update.KindAccount))
		h := &abortRecorder{}
		s.attach(h)

		// Act
		err := s.Send(t.Context(), update.Account{Slot: 1})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, s.queue.len())
		assert.Zero(t, h.aborts.Load())
	})
}

func TestPipeline_UndeclaredKinds(t *testing.T) {
	t.Run("should stop a datasource that ignores the rejection", func(t *testing.T) {
		// Arrange
		source := &stubbornSource{}
		rec := newRecordingPipe("transactions", update.KindTransaction)
		p := New([]datasource.Datasource{source}, []pipe.Pipe{rec})

		done := make(chan error, 1)

		// Act
		go func() { done <- p.Run(t.Context()) }()

		// Assert
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("pipeline kept running a datasource that sent an undeclared kind")
		}
		assert.Empty(t, rec.slots())
		assert.Equal(t, StateStopped, p.State())
	})
}

func TestPipeline_Logging(t *testing.T) {
	t.Run("should tag datasource close logs with the run id and flush the summary once", func(t *testing.T) {
		// Arrange
		core, logs := observer.New(zapcore.DebugLevel)
		t.Cleanup(logger.Replace(zap.New(core).Sugar()))

		c, _ := newMetrics()
		p := New(
			[]datasource.Datasource{datasource.NewSlice("a", accounts(1, 2)...)},
			[]pipe.Pipe{newRecordingPipe("accounts", update.KindAccount)},
			WithMetrics(c),
			WithFlushInterval(time.Hour),
		)

		// Act
		require.NoError(t, p.Run(t.Context()))

		// Assert
		closed := logs.FilterMessage("datasource closed").All()
		require.Len(t, closed, 1)
		assert.NotEmpty(t, closed[0].ContextMap()["pipeline.run_id"])
		assert.Equal(t, "a", closed[0].ContextMap()["datasource.name"])

		assert.Equal(t, 1, logs.FilterMessage("metrics flushed").Len())
	})
}
