// Package decoder holds the contracts program decoders implement and the
// building blocks to write them: discriminator tables, per program decoders,
// ordered decoder chains, account arrangement and block decoding.
//
// Decoders never panic on malformed input. A payload they do not recognize
// yields ErrNoMatch; a recognized payload that fails to deserialize yields a
// *DecodeError or an *ArrangementError.
package decoder
