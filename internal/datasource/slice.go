package datasource

import (
	"context"

	"github.com/gabapcia/slotstream/internal/update"
)

// Slice is a datasource that emits a fixed list of updates and then ends.
// Its declared kinds are exactly the kinds of the updates it holds, unless
// overridden with NewSliceWithKinds.
type Slice struct {
	name     string
	kinds    update.KindSet
	updates  []update.Update
	counters Counters
}

// Ensure compile-time compliance with the Datasource interface.
var _ Datasource = (*Slice)(nil)

// NewSlice builds a Slice datasource.
func NewSlice(name string, updates ...update.Update) *Slice {
	var kinds update.KindSet
	for _, u := range updates {
		kinds = kinds.With(u.Kind())
	}
	return NewSliceWithKinds(name, kinds, updates...)
}

// NewSliceWithKinds builds a Slice datasource with an explicit declaration.
func NewSliceWithKinds(name string, kinds update.KindSet, updates ...update.Update) *Slice {
	return &Slice{name: name, kinds: kinds, updates: updates}
}

func (s *Slice) Name() string                { return s.name }
func (s *Slice) UpdateTypes() update.KindSet { return s.kinds }
func (s *Slice) Metrics() Metrics            { return s.counters.Snapshot() }

func (s *Slice) Consume(ctx context.Context, sender Sender) (AbortHandle, error) {
	s.counters.MarkStarted()

	return Go(ctx, s.name, sender, func(ctx context.Context) error {
		for _, u := range s.updates {
			if err := sender.Send(ctx, u); err != nil {
				s.counters.RecordError()
				return err
			}
			s.counters.RecordSent(u.SlotNumber())
		}
		return nil
	}), nil
}
