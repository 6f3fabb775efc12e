package actionlog

import (
	"context"
	"sync"
	"time"
)

// History maintains an undo stack and a redo stack of Actions. Undo and redo
// invocations are chained onto a single serial execution queue: each caller
// waits for its predecessor to finish, runs its own procedure, then releases
// the next caller. Two reversal procedures never run concurrently.
type History struct {
	mu       sync.Mutex
	undo     []Action
	redo     []Action
	tail     chan struct{} // closed when the most recently queued op completes
	pending  int
	maxDepth int
	timeout  time.Duration
}

// Option configures a History.
type Option func(*History)

// WithMaxDepth bounds the undo stack; the oldest entry is discarded first.
func WithMaxDepth(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxDepth = n
		}
	}
}

// WithTimeout bounds each redo/undo procedure. A procedure that exceeds the
// timeout surfaces as a Conflict so the stack stays in a well-defined state.
func WithTimeout(d time.Duration) Option {
	return func(h *History) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHistory creates an empty history.
func NewHistory(opts ...Option) *History {
	done := make(chan struct{})
	close(done)
	h := &History{tail: done, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Push appends an already-applied action to the undo stack and clears the
// redo stack: a new action invalidates any previously-undone redo chain.
func (h *History) Push(a Action) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = append(h.undo, a)
	if len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
	h.redo = nil
}

// Do executes the action's redo procedure on the serial queue and, if it
// reports Applied or NoOp, records the action via Push. A Conflict leaves
// history untouched.
func (h *History) Do(ctx context.Context, a Action) Result {
	return h.enqueue(ctx, func(ctx context.Context) Result {
		res := h.run(ctx, a.Redo)
		if res.Status != StatusConflict {
			h.Push(a)
		}
		return res
	})
}

// Undo pops the most recent action and runs its undo procedure. On Applied
// or NoOp the action moves to the redo stack; on Conflict it is dropped
// permanently and the message is returned to the caller.
func (h *History) Undo(ctx context.Context) Result {
	return h.enqueue(ctx, func(ctx context.Context) Result {
		h.mu.Lock()
		n := len(h.undo)
		if n == 0 {
			h.mu.Unlock()
			return NoOp()
		}
		a := h.undo[n-1]
		h.undo = h.undo[:n-1]
		h.mu.Unlock()

		res := h.run(ctx, a.Undo)
		if res.Status != StatusConflict {
			h.mu.Lock()
			h.redo = append(h.redo, a)
			h.mu.Unlock()
		}
		return res
	})
}

// Redo is the mirror of Undo, moving an action back onto the undo stack.
func (h *History) Redo(ctx context.Context) Result {
	return h.enqueue(ctx, func(ctx context.Context) Result {
		h.mu.Lock()
		n := len(h.redo)
		if n == 0 {
			h.mu.Unlock()
			return NoOp()
		}
		a := h.redo[n-1]
		h.redo = h.redo[:n-1]
		h.mu.Unlock()

		res := h.run(ctx, a.Redo)
		if res.Status != StatusConflict {
			h.mu.Lock()
			h.undo = append(h.undo, a)
			h.mu.Unlock()
		}
		return res
	})
}

// CanUndo reports whether at least one action is undoable.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether at least one undone action can be reapplied.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// IsRunning reports whether at least one queued operation has not completed.
func (h *History) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending > 0
}

// Depth returns the current undo and redo stack sizes.
func (h *History) Depth() (undo, redo int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo), len(h.redo)
}

// enqueue chains fn behind all previously queued operations. Each caller
// still receives its own result once its turn completes.
func (h *History) enqueue(ctx context.Context, fn func(context.Context) Result) Result {
	h.mu.Lock()
	prev := h.tail
	done := make(chan struct{})
	h.tail = done
	h.pending++
	h.mu.Unlock()

	defer func() {
		close(done)
		h.mu.Lock()
		h.pending--
		h.mu.Unlock()
	}()

	select {
	case <-prev:
	case <-ctx.Done():
		return Conflict("operation canceled while queued: " + ctx.Err().Error())
	}
	return fn(ctx)
}

// run invokes a procedure under the configured timeout. Abandonment of an
// in-flight procedure surfaces as a Conflict, never as a hung queue entry.
func (h *History) run(ctx context.Context, p Proc) Result {
	if p == nil {
		return NoOp()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resCh := make(chan Result, 1)
	go func() { resCh <- p(ctx) }()
	select {
	case res := <-resCh:
		return res
	case <-ctx.Done():
		return Conflict("operation abandoned: " + ctx.Err().Error())
	}
}
