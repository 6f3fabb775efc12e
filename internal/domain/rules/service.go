package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DraftGuard is satisfied by the rule-set store. Rule mutations are only
// legal against the practice's current draft; callers acquire the draft
// handle first and every mutation here is scoped to it.
type DraftGuard interface {
	EnsureDraft(ctx context.Context, ruleSetID uuid.UUID) error
}

type Service struct {
	repo  Repository
	draft DraftGuard
}

func NewService(repo Repository, draft DraftGuard) *Service {
	return &Service{repo: repo, draft: draft}
}

// CreateRule validates and stores a new rule inside the given draft.
func (s *Service) CreateRule(ctx context.Context, draftID uuid.UUID, r *Rule) error {
	if err := s.draft.EnsureDraft(ctx, draftID); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	if err := s.repo.Attach(ctx, draftID, r.ID); err != nil {
		return fmt.Errorf("attach rule to draft: %w", err)
	}
	return nil
}

// UpdateRule applies changes to a rule within the draft. A rule row still
// referenced by another rule set is cloned first so saved snapshots stay
// immutable; the returned rule carries the effective (possibly new) ID.
func (s *Service) UpdateRule(ctx context.Context, draftID uuid.UUID, r *Rule) (*Rule, error) {
	if err := s.draft.EnsureDraft(ctx, draftID); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	refs, err := s.repo.CountReferences(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("count rule references: %w", err)
	}
	if refs <= 1 {
		if err := s.repo.Update(ctx, r); err != nil {
			return nil, fmt.Errorf("update rule: %w", err)
		}
		return r, nil
	}

	// Shared row: clone-and-replace within the draft only.
	clone := *r
	clone.ID = uuid.New()
	if err := s.repo.Create(ctx, &clone); err != nil {
		return nil, fmt.Errorf("clone rule: %w", err)
	}
	if err := s.repo.Replace(ctx, draftID, r.ID, clone.ID); err != nil {
		return nil, fmt.Errorf("replace rule in draft: %w", err)
	}
	return &clone, nil
}

// DeleteRule detaches a rule from the draft. The row itself is removed only
// when no other rule set references it.
func (s *Service) DeleteRule(ctx context.Context, draftID, ruleID uuid.UUID) error {
	if err := s.draft.EnsureDraft(ctx, draftID); err != nil {
		return err
	}
	if err := s.repo.Detach(ctx, draftID, ruleID); err != nil {
		return fmt.Errorf("detach rule: %w", err)
	}
	refs, err := s.repo.CountReferences(ctx, ruleID)
	if err != nil {
		return fmt.Errorf("count rule references: %w", err)
	}
	if refs == 0 {
		if err := s.repo.Delete(ctx, ruleID); err != nil {
			return fmt.Errorf("delete rule row: %w", err)
		}
	}
	return nil
}

// RestoreRule reattaches a previously removed rule to the draft. The row is
// recreated when the removal also deleted it; a row that survived as a shared
// reference is attached as-is.
func (s *Service) RestoreRule(ctx context.Context, draftID uuid.UUID, r *Rule) error {
	if err := s.draft.EnsureDraft(ctx, draftID); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, r.ID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("restore rule: %w", err)
		}
		if err := s.repo.Create(ctx, r); err != nil {
			return fmt.Errorf("restore rule row: %w", err)
		}
	}
	if err := s.repo.Attach(ctx, draftID, r.ID); err != nil {
		return fmt.Errorf("reattach rule to draft: %w", err)
	}
	return nil
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByRuleSet returns the rules of any rule set, saved or draft.
func (s *Service) ListByRuleSet(ctx context.Context, ruleSetID uuid.UUID) ([]*Rule, error) {
	return s.repo.ListByRuleSet(ctx, ruleSetID)
}
