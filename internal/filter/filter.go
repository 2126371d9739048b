// Package filter provides predicates that gate whether a processor runs.
//
// Filters are evaluated on the dispatch path for every decoded value, so they
// must be cheap and free of side effects and I/O.
package filter

// Filter decides whether a decoded value should reach its processor.
type Filter[I any] interface {
	Matches(input I) bool
}

// Func adapts a function to Filter.
type Func[I any] func(input I) bool

func (f Func[I]) Matches(input I) bool { return f(input) }

// Chain evaluates filters in order and rejects as soon as one does. An empty
// chain accepts everything.
type Chain[I any] []Filter[I]

func (c Chain[I]) Matches(input I) bool {
	for _, f := range c {
		if !f.Matches(input) {
			return false
		}
	}
	return true
}

// Not negates f.
func Not[I any](f Filter[I]) Filter[I] {
	return Func[I](func(input I) bool { return !f.Matches(input) })
}

// Any accepts when at least one filter does, evaluating in order.
func Any[I any](filters ...Filter[I]) Filter[I] {
	return Func[I](func(input I) bool {
		for _, f := range filters {
			if f.Matches(input) {
				return true
			}
		}
		return false
	})
}
