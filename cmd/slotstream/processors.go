package main

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/gabapcia/slotstream/internal/decoder"
	"github.com/gabapcia/slotstream/internal/filter"
	"github.com/gabapcia/slotstream/internal/metrics"
	"github.com/gabapcia/slotstream/internal/pipe"
	"github.com/gabapcia/slotstream/internal/pkg/logger"
	"github.com/gabapcia/slotstream/internal/pkg/types"
	"github.com/gabapcia/slotstream/internal/programs/system"
	"github.com/gabapcia/slotstream/internal/update"
)

const (
	metricForwarded       = "stream_forwarded"
	metricSystemLamports  = "system_lamports_transferred"
	rawInstructionVariant = "raw"
)

func logBlock(ctx context.Context, in pipe.BlockInput, _ *metrics.Collection) error {
	logger.Info(ctx, "block",
		"datasource.name", in.Datasource,
		"update.slot", in.Slot,
		"block.hash", in.Block.BlockHash.String(),
		"block.parent_slot", in.Block.ParentSlot,
		"block.transactions", in.Block.TransactionCount,
	)
	return nil
}

func logTransaction(ctx context.Context, in pipe.TransactionInput[system.Instruction], _ *metrics.Collection) error {
	names := make([]string, len(in.Instructions))
	for i, ix := range in.Instructions {
		names[i] = ix.Decoded.Data.Name()
	}

	logger.Debug(ctx, "transaction",
		"datasource.name", in.Datasource,
		"update.slot", in.Slot,
		"transaction.signature", in.Signature.String(),
		"transaction.fee", in.Transaction.Meta.Fee,
		"transaction.system_instructions", names,
	)
	return nil
}

func logSystemInstruction(ctx context.Context, in pipe.InstructionInput[system.Instruction], m *metrics.Collection) error {
	kv := []any{
		"datasource.name", in.Datasource,
		"update.slot", in.Slot,
		"instruction.key", in.Key(),
		"instruction.variant", in.Decoded.Variant,
	}

	switch ix := in.Decoded.Data.(type) {
	case system.Transfer:
		kv = append(kv, "transfer.from", ix.From.String(), "transfer.to", ix.To.String(), "transfer.lamports", ix.Lamports)
		if err := m.IncrementCounter(ctx, metricSystemLamports, ix.Lamports); err != nil {
			logger.Warn(ctx, "error recording metric", "metrics.name", metricSystemLamports, "error", err)
		}
	case system.CreateAccount:
		kv = append(kv, "account.address", ix.NewAccount.String(), "account.owner", ix.Owner.String(), "account.space", ix.Space)
	case system.Assign:
		kv = append(kv, "account.address", ix.Account.String(), "account.owner", ix.Owner.String())
	}

	logger.Info(ctx, "system instruction", kv...)
	return nil
}

func logAccountDeletion(ctx context.Context, in pipe.AccountDeletionInput, _ *metrics.Collection) error {
	logger.Info(ctx, "account deleted",
		"datasource.name", in.Datasource,
		"update.slot", in.Slot,
		"account.address", in.Pubkey.String(),
	)
	return nil
}

func logProgramActivity(ctx context.Context, in pipe.InstructionInput[[]byte], _ *metrics.Collection) error {
	logger.Info(ctx, "program invoked",
		"datasource.name", in.Datasource,
		"update.slot", in.Slot,
		"instruction.key", in.Key(),
		"instruction.program", in.Instruction.ProgramID.String(),
		"instruction.inner", in.Instruction.IsInner(),
		"instruction.data_len", len(in.Decoded.Data),
	)
	return nil
}

// rawInstructions matches instructions of the given programs, or of any
// program when none are given, and hands their data over undecoded.
type rawInstructions struct {
	programs types.Set[solana.PublicKey]
}

var _ decoder.InstructionDecoder[[]byte] = rawInstructions{}

func newRawInstructions(programs ...solana.PublicKey) rawInstructions {
	return rawInstructions{programs: types.NewSet(programs...)}
}

func (d rawInstructions) DecodeInstruction(ix decoder.Instruction) (decoder.DecodedInstruction[[]byte], error) {
	if len(d.programs) > 0 {
		if !d.programs.Has(ix.ProgramID) {
			return decoder.DecodedInstruction[[]byte]{}, decoder.ErrNoMatch
		}
	}

	return decoder.DecodedInstruction[[]byte]{
		ProgramID: ix.ProgramID,
		Variant:   rawInstructionVariant,
		Data:      ix.Data,
		Accounts:  ix.Accounts,
	}, nil
}

// touches accepts instructions that reference at least one watched account.
func touches[T any](watched []solana.PublicKey) filter.Filter[pipe.InstructionInput[T]] {
	set := types.NewSet(watched...)

	return filter.Func[pipe.InstructionInput[T]](func(in pipe.InstructionInput[T]) bool {
		for _, meta := range in.Instruction.Accounts {
			if set.Has(meta.PublicKey) {
				return true
			}
		}
		return false
	})
}

func deletedAccountIn(watched []solana.PublicKey) filter.Filter[pipe.AccountDeletionInput] {
	set := types.NewSet(watched...)

	return filter.Func[pipe.AccountDeletionInput](func(in pipe.AccountDeletionInput) bool {
		return set.Has(in.Pubkey)
	})
}

type publisher interface {
	Publish(ctx context.Context, u update.Update) (string, error)
}

// forwarder appends crawled updates to a stream so a later run can replay
// them through the stream datasource.
type forwarder struct {
	publisher publisher
}

func newForwarder(p publisher) *forwarder {
	return &forwarder{publisher: p}
}

func (f *forwarder) transaction(ctx context.Context, in pipe.TransactionInput[[]byte], m *metrics.Collection) error {
	return f.publish(ctx, in.Transaction, m)
}

// block forwards the decoded block header. Transaction bodies travel as
// their own entries.
func (f *forwarder) block(ctx context.Context, in pipe.BlockInput, m *metrics.Collection) error {
	header := in.Block
	header.Transactions = nil
	return f.publish(ctx, update.Block{Slot: in.Slot, Raw: header}, m)
}

func (f *forwarder) publish(ctx context.Context, u update.Update, m *metrics.Collection) error {
	if _, err := f.publisher.Publish(ctx, u); err != nil {
		return err
	}

	if err := m.IncrementCounter(ctx, metrics.PerKind(metricForwarded, u.Kind()), 1); err != nil {
		logger.Warn(ctx, "error recording metric", "metrics.name", metricForwarded, "error", err)
	}
	return nil
}
