package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/terminplan/terminplan/internal/domain/rules"
	"github.com/terminplan/terminplan/internal/domain/ruleset"
	"github.com/terminplan/terminplan/pkg/actionlog"
)

// DraftStore acquires the practice's draft rule set. *ruleset.Store
// satisfies it.
type DraftStore interface {
	GetOrCreateDraft(ctx context.Context, practiceID string, baseID uuid.UUID) (*ruleset.RuleSet, error)
}

// RuleEditor is the slice of the rule service commands mutate through.
type RuleEditor interface {
	GetRule(ctx context.Context, id uuid.UUID) (*rules.Rule, error)
	CreateRule(ctx context.Context, draftID uuid.UUID, r *rules.Rule) error
	UpdateRule(ctx context.Context, draftID uuid.UUID, r *rules.Rule) (*rules.Rule, error)
	DeleteRule(ctx context.Context, draftID, ruleID uuid.UUID) error
	RestoreRule(ctx context.Context, draftID uuid.UUID, r *rules.Rule) error
}

// Dispatcher interprets commands into reversible actions. Every command
// runs in two phases: first the practice draft is acquired (creating it
// copy-on-write from the named base when necessary), then the mutation
// procedures run against that draft. The acquired draft ID is fixed into
// the action's closures, so a later undo that finds the draft gone reports
// a conflict instead of editing a saved snapshot.
type Dispatcher struct {
	drafts DraftStore
	rules  RuleEditor
}

func NewDispatcher(drafts DraftStore, ruleEditor RuleEditor) *Dispatcher {
	return &Dispatcher{drafts: drafts, rules: ruleEditor}
}

// Prepare acquires the draft and builds the reversible action for a command.
// The returned action has not been executed.
func (d *Dispatcher) Prepare(ctx context.Context, practiceID string, cmd Command) (actionlog.Action, error) {
	if err := cmd.Validate(); err != nil {
		return actionlog.Action{}, err
	}
	draft, err := d.drafts.GetOrCreateDraft(ctx, practiceID, cmd.BaseRuleSetID)
	if err != nil {
		return actionlog.Action{}, fmt.Errorf("acquire draft: %w", err)
	}

	switch cmd.Kind {
	case KindCreateRule:
		return d.createRuleAction(draft.ID, cmd)
	case KindUpdateRule:
		return d.updateRuleAction(draft.ID, cmd)
	case KindDeleteRule:
		return d.deleteRuleAction(draft.ID, cmd)
	case KindToggleRule:
		return d.toggleRuleAction(draft.ID, cmd)
	default:
		return actionlog.Action{}, fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
}

func (d *Dispatcher) createRuleAction(draftID uuid.UUID, cmd Command) (actionlog.Action, error) {
	var rule rules.Rule
	if err := json.Unmarshal(cmd.Rule, &rule); err != nil {
		return actionlog.Action{}, fmt.Errorf("decode rule payload: %w", err)
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if err := rule.Validate(); err != nil {
		return actionlog.Action{}, err
	}

	created := rule
	return actionlog.Action{
		Label: labelOr(cmd.Label, "create rule "+rule.Name),
		Redo: func(ctx context.Context) actionlog.Result {
			r := created
			if err := d.rules.CreateRule(ctx, draftID, &r); err != nil {
				return actionlog.Conflict("create rule: " + err.Error())
			}
			return actionlog.Applied()
		},
		Undo: func(ctx context.Context) actionlog.Result {
			current, err := d.rules.GetRule(ctx, created.ID)
			if err != nil {
				return actionlog.Conflict("created rule no longer exists: " + err.Error())
			}
			if !sameRule(current, &created) {
				return actionlog.Conflict("rule was modified after creation; refusing to remove it")
			}
			if err := d.rules.DeleteRule(ctx, draftID, created.ID); err != nil {
				return actionlog.Conflict("remove created rule: " + err.Error())
			}
			return actionlog.Applied()
		},
	}, nil
}

func (d *Dispatcher) updateRuleAction(draftID uuid.UUID, cmd Command) (actionlog.Action, error) {
	var next rules.Rule
	if err := json.Unmarshal(cmd.Rule, &next); err != nil {
		return actionlog.Action{}, fmt.Errorf("decode rule payload: %w", err)
	}
	next.ID = cmd.RuleID
	if err := next.Validate(); err != nil {
		return actionlog.Action{}, err
	}

	// effectiveID tracks the rule row across copy-on-write clones; prior is
	// captured on first execution. Both are only touched by the serialized
	// history queue.
	effectiveID := cmd.RuleID
	var prior *rules.Rule

	return actionlog.Action{
		Label: labelOr(cmd.Label, "update rule "+next.Name),
		Redo: func(ctx context.Context) actionlog.Result {
			current, err := d.rules.GetRule(ctx, effectiveID)
			if err != nil {
				return actionlog.Conflict("rule no longer exists: " + err.Error())
			}
			if prior == nil {
				prior = current
			} else if !sameRule(current, prior) {
				if sameRule(current, &next) {
					return actionlog.NoOp()
				}
				return actionlog.Conflict("rule was modified since this change was undone")
			}
			if sameRule(current, &next) {
				return actionlog.NoOp()
			}
			apply := next
			apply.ID = effectiveID
			updated, err := d.rules.UpdateRule(ctx, draftID, &apply)
			if err != nil {
				return actionlog.Conflict("update rule: " + err.Error())
			}
			effectiveID = updated.ID
			return actionlog.Applied()
		},
		Undo: func(ctx context.Context) actionlog.Result {
			current, err := d.rules.GetRule(ctx, effectiveID)
			if err != nil {
				return actionlog.Conflict("rule no longer exists: " + err.Error())
			}
			if !sameRule(current, &next) {
				if prior != nil && sameRule(current, prior) {
					return actionlog.NoOp()
				}
				return actionlog.Conflict("rule was modified since this change was applied")
			}
			restore := *prior
			restore.ID = effectiveID
			updated, err := d.rules.UpdateRule(ctx, draftID, &restore)
			if err != nil {
				return actionlog.Conflict("restore rule: " + err.Error())
			}
			effectiveID = updated.ID
			return actionlog.Applied()
		},
	}, nil
}

func (d *Dispatcher) deleteRuleAction(draftID uuid.UUID, cmd Command) (actionlog.Action, error) {
	var removed *rules.Rule

	return actionlog.Action{
		Label: labelOr(cmd.Label, "delete rule"),
		Redo: func(ctx context.Context) actionlog.Result {
			current, err := d.rules.GetRule(ctx, cmd.RuleID)
			if err != nil {
				return actionlog.Conflict("rule no longer exists: " + err.Error())
			}
			if removed == nil {
				removed = current
			} else if !sameRule(current, removed) {
				return actionlog.Conflict("rule was modified since this deletion was undone")
			}
			if err := d.rules.DeleteRule(ctx, draftID, cmd.RuleID); err != nil {
				return actionlog.Conflict("delete rule: " + err.Error())
			}
			return actionlog.Applied()
		},
		Undo: func(ctx context.Context) actionlog.Result {
			if removed == nil {
				return actionlog.Conflict("no recorded state to restore")
			}
			r := *removed
			if err := d.rules.RestoreRule(ctx, draftID, &r); err != nil {
				return actionlog.Conflict("restore rule: " + err.Error())
			}
			return actionlog.Applied()
		},
	}, nil
}

func (d *Dispatcher) toggleRuleAction(draftID uuid.UUID, cmd Command) (actionlog.Action, error) {
	desired := *cmd.Enabled
	effectiveID := cmd.RuleID

	setEnabled := func(ctx context.Context, enabled bool) actionlog.Result {
		current, err := d.rules.GetRule(ctx, effectiveID)
		if err != nil {
			return actionlog.Conflict("rule no longer exists: " + err.Error())
		}
		if current.Enabled == enabled {
			return actionlog.NoOp()
		}
		apply := *current
		apply.Enabled = enabled
		updated, err := d.rules.UpdateRule(ctx, draftID, &apply)
		if err != nil {
			return actionlog.Conflict("toggle rule: " + err.Error())
		}
		effectiveID = updated.ID
		return actionlog.Applied()
	}

	verb := "disable"
	if desired {
		verb = "enable"
	}
	// applied guards the undo: a toggle that found the rule already in the
	// desired state must not flip it back.
	var applied bool
	return actionlog.Action{
		Label: labelOr(cmd.Label, verb+" rule"),
		Redo: func(ctx context.Context) actionlog.Result {
			res := setEnabled(ctx, desired)
			applied = res.Status == actionlog.StatusApplied
			return res
		},
		Undo: func(ctx context.Context) actionlog.Result {
			if !applied {
				return actionlog.NoOp()
			}
			return setEnabled(ctx, !desired)
		},
	}, nil
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

// sameRule compares the durable content of two rules, ignoring identity and
// timestamps. Copy-on-write may change a rule's ID without changing what it
// says.
func sameRule(a, b *rules.Rule) bool {
	ca, cb := *a, *b
	ca.ID, cb.ID = uuid.Nil, uuid.Nil
	ca.CreatedAt, cb.CreatedAt = time.Time{}, time.Time{}
	ca.UpdatedAt, cb.UpdatedAt = time.Time{}, time.Time{}
	ja, errA := json.Marshal(ca)
	jb, errB := json.Marshal(cb)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
