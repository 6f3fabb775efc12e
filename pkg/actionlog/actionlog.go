// Package actionlog implements a generic undo/redo history for reversible
// operations. Actions are opaque to the history: it never inspects their
// payload, only the result of running their redo/undo procedures. All
// executions are serialized through a single logical queue so that rapid
// repeated triggers run strictly in request order.
package actionlog

import (
	"context"
)

// Status classifies the outcome of running an action procedure.
type Status string

const (
	// StatusApplied means the procedure ran and changed state.
	StatusApplied Status = "applied"
	// StatusNoOp means the procedure ran but nothing needed to change.
	StatusNoOp Status = "noop"
	// StatusConflict means the procedure's precondition no longer holds.
	// The action is permanently dropped from history.
	StatusConflict Status = "conflict"
)

// Result is the outcome of one redo or undo invocation.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Applied returns a success result.
func Applied() Result { return Result{Status: StatusApplied} }

// NoOp returns a no-change result.
func NoOp() Result { return Result{Status: StatusNoOp} }

// Conflict returns a conflict result with a human-readable message.
func Conflict(msg string) Result { return Result{Status: StatusConflict, Message: msg} }

// Proc is a redo or undo procedure. It may block on storage round-trips;
// the history runs at most one Proc at a time.
type Proc func(ctx context.Context) Result

// Action is a reversible operation with independent redo and undo procedures.
type Action struct {
	Label string
	Redo  Proc
	Undo  Proc
}

// DefaultMaxDepth is the undo stack depth used when none is configured.
const DefaultMaxDepth = 50
