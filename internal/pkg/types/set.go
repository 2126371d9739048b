// Package types holds small generic containers shared across packages.
package types

// Set is a hash set backed by map[T]struct{}. The zero value is an empty,
// read-only set.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding the given elements. Duplicates collapse.
func NewSet[T comparable](elems ...T) Set[T] {
	s := make(Set[T], len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Has reports whether e is in the set.
func (s Set[T]) Has(e T) bool {
	_, ok := s[e]
	return ok
}
