package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gabapcia/slotstream/internal/datasource"
	datasourcetest "github.com/gabapcia/slotstream/internal/datasource/mocks"
	pipelinetest "github.com/gabapcia/slotstream/internal/pipeline/mocks"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/update"
	watchlisttest "github.com/gabapcia/slotstream/internal/watchlist/mocks"
)

func init() {
	logger.Init("error")
}

const address = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

func TestRun(t *testing.T) {
	// Save original os.Args to restore after tests
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	t.Run("should print help without touching any service", func(t *testing.T) {
		// Arrange
		p := pipelinetest.NewPipeline(t)
		wl := watchlisttest.NewService(t)
		os.Args = []string{"slotstream", "--help"}

		// Act
		err := Run(t.Context(), p, nil, wl, MetricsServer{})

		// Assert
		assert.NoError(t, err)
	})

	t.Run("should run the pipeline on start", func(t *testing.T) {
		// Arrange
		p := pipelinetest.NewPipeline(t)
		wl := watchlisttest.NewService(t)
		p.EXPECT().Run(mock.Anything).Return(assert.AnError).Once()
		os.Args = []string{"slotstream", "start"}

		// Act
		err := Run(t.Context(), p, nil, wl, MetricsServer{})

		// Assert
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("should route watch to the watchlist service", func(t *testing.T) {
		// Arrange
		p := pipelinetest.NewPipeline(t)
		wl := watchlisttest.NewService(t)
		wl.EXPECT().Watch(mock.Anything, "whales", address).Return(nil).Once()
		os.Args = []string{"slotstream", "watch", "--list", "whales", "--address", address}

		// Act
		err := Run(t.Context(), p, nil, wl, MetricsServer{})

		// Assert
		assert.NoError(t, err)
	})

	t.Run("should propagate context cancellation", func(t *testing.T) {
		// Arrange
		p := pipelinetest.NewPipeline(t)
		wl := watchlisttest.NewService(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		wl.EXPECT().Unwatch(mock.Anything, "whales", address).Return(context.Canceled).Once()
		os.Args = []string{"slotstream", "unwatch", "--list", "whales", "--address", address}

		// Act
		err := Run(ctx, p, nil, wl, MetricsServer{})

		// Assert
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestListKindsCommand(t *testing.T) {
	t.Run("should print every datasource with its kinds", func(t *testing.T) {
		// Arrange
		rpc := datasourcetest.NewDatasource(t)
		rpc.EXPECT().Name().Return("rpc").Once()
		rpc.EXPECT().UpdateTypes().Return(update.NewKindSet(update.KindBlock, update.KindTransaction)).Once()

		replay := datasourcetest.NewDatasource(t)
		replay.EXPECT().Name().Return("replay").Once()
		replay.EXPECT().UpdateTypes().Return(update.NewKindSet(update.KindAccount)).Once()

		var out bytes.Buffer
		app := newApp(pipelinetest.NewPipeline(t), []datasource.Datasource{rpc, replay}, watchlisttest.NewService(t), MetricsServer{})
		app.Writer = &out

		// Act
		err := app.Run(t.Context(), []string{"slotstream", "kinds"})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t,
			"rpc\t"+update.NewKindSet(update.KindBlock, update.KindTransaction).String()+"\n"+
				"replay\t[account]\n",
			out.String(),
		)
	})

	t.Run("should print nothing without datasources", func(t *testing.T) {
		var out bytes.Buffer
		app := newApp(pipelinetest.NewPipeline(t), nil, watchlisttest.NewService(t), MetricsServer{})
		app.Writer = &out

		assert.NoError(t, app.Run(t.Context(), []string{"slotstream", "kinds"}))
		assert.Empty(t, out.String())
	})
}
