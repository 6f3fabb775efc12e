package actions

import (
	"sync"
	"time"

	"github.com/terminplan/terminplan/pkg/actionlog"
)

// SessionRegistry hands out one History per editing session. Sessions are
// scoped to a practice so two practices using the same session identifier
// never share a stack.
type SessionRegistry struct {
	mu        sync.Mutex
	histories map[string]*actionlog.History
	maxDepth  int
	timeout   time.Duration
}

func NewSessionRegistry(maxDepth int, timeout time.Duration) *SessionRegistry {
	return &SessionRegistry{
		histories: make(map[string]*actionlog.History),
		maxDepth:  maxDepth,
		timeout:   timeout,
	}
}

func (r *SessionRegistry) Get(practiceID, sessionID string) *actionlog.History {
	key := practiceID + "|" + sessionID
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.histories[key]
	if !ok {
		h = actionlog.NewHistory(
			actionlog.WithMaxDepth(r.maxDepth),
			actionlog.WithTimeout(r.timeout),
		)
		r.histories[key] = h
	}
	return h
}
