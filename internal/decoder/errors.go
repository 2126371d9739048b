package decoder

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrNoMatch means the decoder has no opinion about the payload. It is
	// the expected outcome for programs or discriminators it does not know.
	ErrNoMatch = errors.New("no decoder matched")

	// ErrAmbiguousDiscriminator is returned when building a table in which a
	// discriminator is a prefix of another one.
	ErrAmbiguousDiscriminator = errors.New("ambiguous discriminator")

	// ErrEmptyDiscriminator is returned when building a table with a variant
	// that has no discriminator bytes.
	ErrEmptyDiscriminator = errors.New("empty discriminator")
)

// DecodeError reports a payload whose discriminator matched a known variant
// but whose body could not be deserialized.
type DecodeError struct {
	ProgramID     solana.PublicKey
	Variant       string
	Discriminator []byte
	Err           error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (program %s, discriminator %s): %v",
		e.Variant, e.ProgramID, hex.EncodeToString(e.Discriminator), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ArrangementError reports an instruction carrying fewer accounts than its
// variant requires.
type ArrangementError struct {
	Variant  string
	Required int
	Got      int
}

func (e *ArrangementError) Error() string {
	return fmt.Sprintf("arrange %s accounts: need %d, got %d", e.Variant, e.Required, e.Got)
}

// IsDecodeFailure reports whether err is a DecodeError or an
// ArrangementError. Both mean the payload was recognized but is malformed.
func IsDecodeFailure(err error) bool {
	var decodeErr *DecodeError
	var arrangeErr *ArrangementError
	return errors.As(err, &decodeErr) || errors.As(err, &arrangeErr)
}
