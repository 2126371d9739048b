// Package processor defines the sink contract pipes hand decoded, filtered
// values to, plus wrappers adding retries and idempotency.
//
// Pipes never retry on their own. A processor that needs retries or
// duplicate suppression composes them here.
package processor

import (
	"context"

	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pkg/resilience/retry"
)

// Processor performs the side effect for one decoded value.
type Processor[I any] interface {
	Process(ctx context.Context, input I, m *metrics.Collection) error
}

// Func adapts a function to Processor.
type Func[I any] func(ctx context.Context, input I, m *metrics.Collection) error

func (f Func[I]) Process(ctx context.Context, input I, m *metrics.Collection) error {
	return f(ctx, input, m)
}

// Nop accepts every input and does nothing.
func Nop[I any]() Processor[I] {
	return Func[I](func(context.Context, I, *metrics.Collection) error { return nil })
}

type retrying[I any] struct {
	next  Processor[I]
	retry retry.Retry
}

// WithRetry retries next according to r. Errors wrapped with
// retry.Unrecoverable are returned immediately.
func WithRetry[I any](next Processor[I], r retry.Retry) Processor[I] {
	return &retrying[I]{next: next, retry: r}
}

func (p *retrying[I]) Process(ctx context.Context, input I, m *metrics.Collection) error {
	return p.retry.Execute(ctx, func() error {
		return p.next.Process(ctx, input, m)
	})
}

// Sequence runs processors in order and stops at the first failure.
func Sequence[I any](processors ...Processor[I]) Processor[I] {
	return Func[I](func(ctx context.Context, input I, m *metrics.Collection) error {
		for _, p := range processors {
			if err := p.Process(ctx, input, m); err != nil {
				return err
			}
		}
		return nil
	})
}
