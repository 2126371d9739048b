package update

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by ParseKind for names that match no Kind.
var ErrUnknownKind = errors.New("unknown update kind")

// Kind mirrors the Update variants. Datasources use it to declare what they
// emit without constructing any update.
type Kind uint8

const (
	KindAccount Kind = iota + 1
	KindAccountDeletion
	KindTransaction
	KindBlock
)

// Kinds lists every valid Kind in declaration order.
var Kinds = []Kind{KindAccount, KindAccountDeletion, KindTransaction, KindBlock}

func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindAccountDeletion:
		return "account_deletion"
	case KindTransaction:
		return "transaction"
	case KindBlock:
		return "block"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindAccount && k <= KindBlock
}

// ParseKind resolves the name produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(k.String(), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// KindSet is a compact set of kinds.
type KindSet uint8

// NewKindSet builds a set from the given kinds. Invalid kinds are ignored.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns a copy of s that also contains k.
func (s KindSet) With(k Kind) KindSet {
	if !k.Valid() {
		return s
	}
	return s | 1<<k
}

// Has reports whether k belongs to the set.
func (s KindSet) Has(k Kind) bool {
	return k.Valid() && s&(1<<k) != 0
}

// Union returns the kinds present in either set.
func (s KindSet) Union(o KindSet) KindSet {
	return s | o
}

// IsEmpty reports whether the set holds no kind.
func (s KindSet) IsEmpty() bool {
	return s == 0
}

// Kinds returns the members of the set in declaration order.
func (s KindSet) Kinds() []Kind {
	out := make([]Kind, 0, len(Kinds))
	for _, k := range Kinds {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	names := make([]string, 0, len(Kinds))
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "[" + strings.Join(names, ",") + "]"
}
