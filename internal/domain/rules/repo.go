package rules

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no rule exists for the given identifier.
var ErrNotFound = errors.New("rule not found")

// Repository persists rule rows and their membership in rule sets. Rule rows
// are shared between rule-set snapshots via the membership table; a row is
// only updated in place while exactly one set references it.
type Repository interface {
	// Create stores the rule row, assigning a fresh ID when r.ID is uuid.Nil.
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRuleSet(ctx context.Context, ruleSetID uuid.UUID) ([]*Rule, error)

	// CountReferences reports how many rule sets reference the rule.
	CountReferences(ctx context.Context, ruleID uuid.UUID) (int, error)
	Attach(ctx context.Context, ruleSetID, ruleID uuid.UUID) error
	Detach(ctx context.Context, ruleSetID, ruleID uuid.UUID) error
	// Replace swaps oldRuleID for newRuleID within one rule set, leaving
	// every other set's reference untouched.
	Replace(ctx context.Context, ruleSetID, oldRuleID, newRuleID uuid.UUID) error
}
