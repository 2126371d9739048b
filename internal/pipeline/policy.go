package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabapcia/slotstream/internal/update"
)

// ErrUnknownPolicy is returned by the Parse functions for names they do not
// know.
var ErrUnknownPolicy = errors.New("unknown policy")

// State is the lifecycle stage of a pipeline.
type State int32

const (
	StateConfiguring State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// OverflowPolicy decides what happens when a datasource sends into a full
// queue.
type OverflowPolicy uint8

const (
	// Unbounded never rejects an update; the queue grows with the backlog.
	Unbounded OverflowPolicy = iota
	// Block makes the sender wait for room.
	Block
	// DropOldest evicts the oldest queued update.
	DropOldest
	// DropNewest discards the update being sent.
	DropNewest
)

var overflowPolicyNames = map[OverflowPolicy]string{
	Unbounded:  "unbounded",
	Block:      "block",
	DropOldest: "drop_oldest",
	DropNewest: "drop_newest",
}

func (p OverflowPolicy) String() string {
	if name, ok := overflowPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("overflow(%d)", uint8(p))
}

// ParseOverflowPolicy resolves a policy by its String name, ignoring case.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	for p, name := range overflowPolicyNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: overflow %q", ErrUnknownPolicy, s)
}

// ShutdownStrategy decides what happens to queued updates once the
// pipeline starts draining.
type ShutdownStrategy uint8

const (
	// ProcessPending dispatches every queued update before stopping.
	ProcessPending ShutdownStrategy = iota
	// Immediate discards queued updates.
	Immediate
)

func (s ShutdownStrategy) String() string {
	switch s {
	case ProcessPending:
		return "process_pending"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("shutdown(%d)", uint8(s))
	}
}

// ParseShutdownStrategy resolves "process_pending" or "immediate".
func ParseShutdownStrategy(s string) (ShutdownStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "process_pending":
		return ProcessPending, nil
	case "immediate":
		return Immediate, nil
	}
	return 0, fmt.Errorf("%w: shutdown %q", ErrUnknownPolicy, s)
}

// Severity classifies a processor error.
type Severity uint8

const (
	// Continue logs the error and moves on to the next update.
	Continue Severity = iota
	// Halt drains the pipeline and makes Run return the error.
	Halt
)

// ErrorPolicy classifies processor errors by update kind.
type ErrorPolicy func(kind update.Kind, err error) Severity

// ContinueOnError never halts.
func ContinueOnError(update.Kind, error) Severity { return Continue }

// HaltOnError halts on any processor error.
func HaltOnError(update.Kind, error) Severity { return Halt }

// ParseErrorPolicy resolves "continue" or "halt".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continue":
		return ContinueOnError, nil
	case "halt":
		return HaltOnError, nil
	}
	return nil, fmt.Errorf("%w: error policy %q", ErrUnknownPolicy, s)
}
