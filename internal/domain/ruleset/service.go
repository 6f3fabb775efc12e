package ruleset

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/terminplan/terminplan/internal/domain/rules"
)

// ErrConflict marks expected runtime failures of the version store: the
// requested mutation would violate a store invariant. Callers branch on it
// instead of crashing; nothing here is retried automatically.
var ErrConflict = errors.New("rule set conflict")

// Store owns the DAG of rule-set snapshots and enforces copy-on-write. All
// shared mutable state (the active pointer and the draft pointer) is written
// only through the repository's atomic operations.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// GetOrCreateDraft returns the practice's current draft, creating it from
// the given base snapshot if none exists. The call is idempotent and safe
// under concurrency: when two callers race, the repository's claim decides a
// single winner and the loser's orphaned snapshot is removed.
func (s *Store) GetOrCreateDraft(ctx context.Context, practiceID string, baseID uuid.UUID) (*RuleSet, error) {
	if draft, err := s.repo.GetDraft(ctx, practiceID); err == nil {
		return draft, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("read draft pointer: %w", err)
	}

	base, err := s.repo.GetByID(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("load base rule set: %w", err)
	}
	if base.PracticeID != practiceID {
		return nil, fmt.Errorf("%w: base rule set belongs to another practice", ErrConflict)
	}

	parent := base.ID
	draft := &RuleSet{
		ID:          uuid.New(),
		PracticeID:  practiceID,
		Description: DraftDescription,
		Version:     base.Version + 1,
		ParentID:    &parent,
		IsActive:    false,
	}
	if err := s.repo.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("create draft snapshot: %w", err)
	}
	if err := s.repo.CopyReferences(ctx, base.ID, draft.ID); err != nil {
		return nil, fmt.Errorf("copy references to draft: %w", err)
	}

	winner, err := s.repo.ClaimDraft(ctx, practiceID, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("claim draft pointer: %w", err)
	}
	if winner != draft.ID {
		// Lost the race: another caller's draft is tracked. Drop ours.
		if err := s.repo.Delete(ctx, draft.ID); err != nil {
			return nil, fmt.Errorf("remove losing draft: %w", err)
		}
		return s.repo.GetByID(ctx, winner)
	}
	return draft, nil
}

// Save names the draft and, when activate is set, atomically makes it the
// practice's active snapshot. Saving always clears draft tracking, even
// without activating: the next edit copy-on-writes a fresh draft.
func (s *Store) Save(ctx context.Context, id uuid.UUID, description string, activate bool) error {
	if description == "" || description == DraftDescription {
		return fmt.Errorf("%w: %q is not a valid rule set name", ErrConflict, description)
	}
	rs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	draft, err := s.repo.GetDraft(ctx, rs.PracticeID)
	if err != nil || draft.ID != id {
		return fmt.Errorf("%w: rule set %s is not the tracked draft", ErrConflict, id)
	}

	if err := s.repo.UpdateDescription(ctx, id, description); err != nil {
		return fmt.Errorf("rename draft: %w", err)
	}
	if activate {
		if err := s.repo.Activate(ctx, rs.PracticeID, id); err != nil {
			return fmt.Errorf("activate saved rule set: %w", err)
		}
	}
	if err := s.repo.ClearDraft(ctx, rs.PracticeID, id); err != nil {
		return fmt.Errorf("clear draft pointer: %w", err)
	}
	return nil
}

// Discard hard-deletes the draft. It fails when the target is not the
// tracked draft or is active; saved snapshots are never deleted.
func (s *Store) Discard(ctx context.Context, id uuid.UUID) error {
	rs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rs.IsActive {
		return fmt.Errorf("%w: cannot discard the active rule set", ErrConflict)
	}
	draft, err := s.repo.GetDraft(ctx, rs.PracticeID)
	if err != nil || draft.ID != id {
		return fmt.Errorf("%w: rule set %s is not the tracked draft", ErrConflict, id)
	}
	if err := s.repo.ClearDraft(ctx, rs.PracticeID, id); err != nil {
		return fmt.Errorf("clear draft pointer: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// Activate makes an already-saved snapshot the active one, without going
// through draft/save. Used to roll back to an earlier version.
func (s *Store) Activate(ctx context.Context, id uuid.UUID) error {
	rs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if draft, err := s.repo.GetDraft(ctx, rs.PracticeID); err == nil && draft.ID == id {
		return fmt.Errorf("%w: the unsaved draft cannot be activated; save it first", ErrConflict)
	}
	if err := s.repo.Activate(ctx, rs.PracticeID, id); err != nil {
		return fmt.Errorf("activate rule set: %w", err)
	}
	return nil
}

// Get returns one snapshot by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*RuleSet, error) {
	return s.repo.GetByID(ctx, id)
}

// GetActive returns the practice's active snapshot.
func (s *Store) GetActive(ctx context.Context, practiceID string) (*RuleSet, error) {
	return s.repo.GetActive(ctx, practiceID)
}

// GetDraft returns the practice's tracked draft, or ErrNotFound.
func (s *Store) GetDraft(ctx context.Context, practiceID string) (*RuleSet, error) {
	return s.repo.GetDraft(ctx, practiceID)
}

// History projects the practice's snapshots as a version graph. Parent
// edges are preserved across branches.
func (s *Store) History(ctx context.Context, practiceID string) ([]VersionNode, error) {
	sets, err := s.repo.ListByPractice(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	var draftID uuid.UUID
	if draft, err := s.repo.GetDraft(ctx, practiceID); err == nil {
		draftID = draft.ID
	}

	nodes := make([]VersionNode, 0, len(sets))
	for _, rs := range sets {
		nodes = append(nodes, VersionNode{
			ID:          rs.ID,
			ParentID:    rs.ParentID,
			Description: rs.Description,
			Version:     rs.Version,
			IsActive:    rs.IsActive,
			IsDraft:     rs.ID == draftID,
			CreatedAt:   rs.CreatedAt,
			CreatedBy:   rs.CreatedBy,
		})
	}
	return nodes, nil
}

// EnsureDraft implements rules.DraftGuard: rule mutations must target the
// practice's tracked draft, never a saved snapshot.
func (s *Store) EnsureDraft(ctx context.Context, ruleSetID uuid.UUID) error {
	rs, err := s.repo.GetByID(ctx, ruleSetID)
	if err != nil {
		return err
	}
	draft, err := s.repo.GetDraft(ctx, rs.PracticeID)
	if err != nil || draft.ID != ruleSetID {
		return fmt.Errorf("%w: %s", rules.ErrNotDraft, ruleSetID)
	}
	return nil
}
