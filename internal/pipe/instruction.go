package pipe

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/filter"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/processor"
	"github.com/gabapcia/slotstream/internal/update"
)

// InstructionInput is one decoded instruction together with the
// transaction it belongs to.
type InstructionInput[T any] struct {
	Meta
	Signature   solana.Signature
	Transaction update.Transaction
	Instruction decoder.Instruction
	Decoded     decoder.DecodedInstruction[T]
}

func (in InstructionInput[T]) ProgramID() solana.PublicKey { return in.Instruction.ProgramID }

func (in InstructionInput[T]) IsVoteTransaction() bool { return in.Transaction.IsVote }

// Key identifies the instruction as signature:index:stack_height:slot. For
// inner instructions index is the dotted invocation path, which keeps
// siblings at the same stack height apart.
func (in InstructionInput[T]) Key() string {
	path := make([]string, len(in.Instruction.Path))
	for i, p := range in.Instruction.Path {
		path[i] = strconv.Itoa(p)
	}
	if len(path) == 0 {
		path = []string{strconv.Itoa(int(in.Instruction.Index))}
	}

	return strings.Join([]string{
		in.Signature.String(),
		strings.Join(path, "."),
		strconv.FormatUint(uint64(in.Instruction.StackHeight), 10),
		strconv.FormatUint(in.Slot, 10),
	}, ":")
}

// TransactionInput is a transaction with every instruction the pipe could
// decode, in execution order.
type TransactionInput[T any] struct {
	Meta
	Signature    solana.Signature
	Transaction  update.Transaction
	Instructions []InstructionInput[T]
}

func (in TransactionInput[T]) IsVoteTransaction() bool { return in.Transaction.IsVote }

// Key identifies the transaction as signature:slot.
func (in TransactionInput[T]) Key() string {
	return in.Signature.String() + ":" + strconv.FormatUint(in.Slot, 10)
}

// decodeTransaction extracts and decodes the instructions of u. Instructions
// that fail to decode are counted and skipped. ok is false when the
// transaction itself could not be read.
func decodeTransaction[T any](
	ctx context.Context,
	m *metrics.Collection,
	pipe string,
	d decoder.InstructionDecoder[T],
	meta Meta,
	u update.Transaction,
) (decoded []InstructionInput[T], ok bool) {
	instructions, err := decoder.Instructions(u)
	if err != nil {
		decodeFailed(ctx, m, pipe, meta, err)
		return nil, false
	}

	for _, ix := range instructions {
		out, err := d.DecodeInstruction(ix)
		if errors.Is(err, decoder.ErrNoMatch) {
			continue
		}
		if err != nil {
			decodeFailed(ctx, m, pipe, meta, err)
			continue
		}

		decoded = append(decoded, InstructionInput[T]{
			Meta:        meta,
			Signature:   u.Signature,
			Transaction: u,
			Instruction: ix,
			Decoded:     out,
		})
	}

	return decoded, true
}

// InstructionPipe runs its processor once per decoded instruction of every
// transaction, inner instructions included.
type InstructionPipe[T any] struct {
	name      string
	decoder   decoder.InstructionDecoder[T]
	filters   filter.Chain[InstructionInput[T]]
	processor processor.Processor[InstructionInput[T]]
}

var _ Pipe = (*InstructionPipe[any])(nil)

// NewInstructionPipe builds an instruction pipe. d is usually a
// *decoder.Chain when several programs are indexed.
func NewInstructionPipe[T any](
	name string,
	d decoder.InstructionDecoder[T],
	p processor.Processor[InstructionInput[T]],
	filters ...filter.Filter[InstructionInput[T]],
) *InstructionPipe[T] {
	return &InstructionPipe[T]{name: name, decoder: d, filters: filters, processor: p}
}

func (p *InstructionPipe[T]) Name() string      { return p.name }
func (p *InstructionPipe[T]) Kind() update.Kind { return update.KindTransaction }

// Run stops at the first processor error; the remaining instructions of the
// transaction are not processed.
func (p *InstructionPipe[T]) Run(ctx context.Context, env Envelope, m *metrics.Collection) error {
	u, ok := env.Update.(update.Transaction)
	if !ok {
		return mismatch(p, env)
	}

	inputs, ok := decodeTransaction(ctx, m, p.name, p.decoder, metaOf(env), u)
	if !ok {
		return nil
	}
	if len(inputs) == 0 {
		noMatch(ctx, m)
		return nil
	}

	for _, input := range inputs {
		if !p.filters.Matches(input) {
			filteredOut(ctx, m)
			continue
		}

		if err := p.processor.Process(ctx, input, m); err != nil {
			return processFailed(ctx, m, err)
		}
	}

	return nil
}

// TransactionPipe runs its processor once per transaction that has at
// least one decoded instruction.
type TransactionPipe[T any] struct {
	name      string
	decoder   decoder.InstructionDecoder[T]
	filters   filter.Chain[TransactionInput[T]]
	processor processor.Processor[TransactionInput[T]]
}

var _ Pipe = (*TransactionPipe[any])(nil)

// NewTransactionPipe builds a transaction pipe.
func NewTransactionPipe[T any](
	name string,
	d decoder.InstructionDecoder[T],
	p processor.Processor[TransactionInput[T]],
	filters ...filter.Filter[TransactionInput[T]],
) *TransactionPipe[T] {
	return &TransactionPipe[T]{name: name, decoder: d, filters: filters, processor: p}
}

func (p *TransactionPipe[T]) Name() string      { return p.name }
func (p *TransactionPipe[T]) Kind() update.Kind { return update.KindTransaction }

func (p *TransactionPipe[T]) Run(ctx context.Context, env Envelope, m *metrics.Collection) error {
	u, ok := env.Update.(update.Transaction)
	if !ok {
		return mismatch(p, env)
	}
	meta := metaOf(env)

	inputs, ok := decodeTransaction(ctx, m, p.name, p.decoder, meta, u)
	if !ok {
		return nil
	}
	if len(inputs) == 0 {
		noMatch(ctx, m)
		return nil
	}

	input := TransactionInput[T]{Meta: meta, Signature: u.Signature, Transaction: u, Instructions: inputs}
	if !p.filters.Matches(input) {
		filteredOut(ctx, m)
		return nil
	}

	if err := p.processor.Process(ctx, input, m); err != nil {
		return processFailed(ctx, m, err)
	}
	return nil
}
