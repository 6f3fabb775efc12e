package ruleset

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no rule set exists for the given identifier.
var ErrNotFound = errors.New("rule set not found")

// Repository persists rule-set snapshots and the per-practice pointers to
// the active set and the current unsaved draft. Every mutation is expected
// to run as a single atomic transaction in the backing store.
type Repository interface {
	// Create stores the snapshot, assigning a fresh ID when rs.ID is uuid.Nil.
	Create(ctx context.Context, rs *RuleSet) error
	GetByID(ctx context.Context, id uuid.UUID) (*RuleSet, error)
	GetActive(ctx context.Context, practiceID string) (*RuleSet, error)
	// GetDraft resolves the practice's tracked draft pointer, never by
	// scanning descriptions. Returns ErrNotFound when no draft exists.
	GetDraft(ctx context.Context, practiceID string) (*RuleSet, error)
	ListByPractice(ctx context.Context, practiceID string) ([]*RuleSet, error)

	// CopyReferences copies all rule/practitioner/location/schedule
	// references from one snapshot to another (references, not content).
	CopyReferences(ctx context.Context, fromID, toID uuid.UUID) error

	// ClaimDraft atomically records id as the practice's draft unless one is
	// already tracked, and returns the winning draft id. Two racing callers
	// must never both win.
	ClaimDraft(ctx context.Context, practiceID string, id uuid.UUID) (uuid.UUID, error)
	// ClearDraft drops the draft pointer if it currently points at id.
	ClearDraft(ctx context.Context, practiceID string, id uuid.UUID) error

	// Activate atomically flips the previously active snapshot off and the
	// given one on. No reader may observe zero or two active snapshots.
	Activate(ctx context.Context, practiceID string, id uuid.UUID) error

	UpdateDescription(ctx context.Context, id uuid.UUID, description string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
