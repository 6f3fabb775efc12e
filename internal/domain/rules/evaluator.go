package rules

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlotContext describes one candidate appointment slot. All inputs, including
// the evaluation date, are supplied by the caller: evaluation is a pure
// function with no hidden clock reads.
type SlotContext struct {
	AppointmentType string
	Practitioner    string
	Location        string
	// Start is the candidate slot's start instant.
	Start time.Time
	// EvaluationDate is "today" from the caller's point of view, used for
	// days-ahead conditions.
	EvaluationDate time.Time
}

// DecisionStatus is the outcome for a candidate slot.
type DecisionStatus string

const (
	StatusAvailable DecisionStatus = "available"
	StatusBlocked   DecisionStatus = "blocked"
)

// AppliedLimit records a LIMIT_CONCURRENT rule whose gating conditions
// matched the slot. The evaluator does not own aggregate booking counts, so
// it reports the ceiling and leaves admission to the caller.
type AppliedLimit struct {
	RuleID    uuid.UUID        `json:"rule_id"`
	Daily     bool             `json:"daily"`
	Scope     CountScope       `json:"scope"`
	Ceiling   int              `json:"ceiling"`
	CrossType *CrossTypeClause `json:"cross_type,omitempty"`
}

// Decision is the evaluator's verdict for one slot.
type Decision struct {
	Status        DecisionStatus `json:"status"`
	BlockedByRule *uuid.UUID     `json:"blocked_by_rule,omitempty"`
	Limits        []AppliedLimit `json:"limits,omitempty"`
}

// Evaluate scores a candidate slot against the given rules. Rules run in
// priority order; the first matching BLOCK rule wins and evaluation stops.
// LIMIT_CONCURRENT rules whose non-count conditions match contribute their
// ceiling to the decision without blocking.
//
// Repeated calls with identical inputs yield identical decisions. A rule
// that fails validation aborts evaluation with an error rather than being
// silently skipped: an unenforced rule is a scheduling bug, not a condition
// to recover from.
func Evaluate(ruleList []*Rule, ctx SlotContext) (Decision, error) {
	ordered := make([]*Rule, len(ruleList))
	copy(ordered, ruleList)
	SortRules(ordered)

	decision := Decision{Status: StatusAvailable}
	for _, r := range ordered {
		if !r.Enabled {
			continue
		}
		if err := r.Validate(); err != nil {
			return Decision{}, fmt.Errorf("evaluate: %w", err)
		}
		switch r.Type {
		case RuleTypeBlock:
			matched, err := evalBool(r.Condition, ctx)
			if err != nil {
				return Decision{}, fmt.Errorf("evaluate rule %s: %w", r.ID, err)
			}
			if matched {
				id := r.ID
				decision.Status = StatusBlocked
				decision.BlockedByRule = &id
				return decision, nil
			}
		case RuleTypeLimitConcurrent:
			limit, matched, err := evalLimit(r, ctx)
			if err != nil {
				return Decision{}, fmt.Errorf("evaluate rule %s: %w", r.ID, err)
			}
			if matched {
				decision.Limits = append(decision.Limits, limit)
			}
		}
	}
	return decision, nil
}

// evalBool evaluates a tree of boolean conditions. AND short-circuits on the
// first false child. Capacity and concurrency leaves have no boolean value
// in isolation and are an error here.
func evalBool(c Condition, ctx SlotContext) (bool, error) {
	switch n := c.(type) {
	case And:
		for _, child := range n.Children {
			ok, err := evalBool(child, ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case AppointmentType:
		return member(n.IDs, ctx.AppointmentType) != n.Negate, nil
	case Practitioner:
		return member(n.IDs, ctx.Practitioner) != n.Negate, nil
	case Location:
		return member(n.IDs, ctx.Location) != n.Negate, nil
	case DayOfWeek:
		return int(ctx.Start.Weekday()) == n.Weekday, nil
	case DaysAhead:
		return WholeDaysBetween(ctx.EvaluationDate, ctx.Start) >= n.MinDays, nil
	case DailyCapacity, ConcurrentCount:
		return false, fmt.Errorf("capacity condition has no boolean value outside a LIMIT_CONCURRENT rule")
	default:
		return false, fmt.Errorf("unknown condition node %T", c)
	}
}

// evalLimit evaluates a LIMIT_CONCURRENT rule: all non-count conditions must
// match the slot, and the single count leaf becomes the recorded limit.
func evalLimit(r *Rule, ctx SlotContext) (AppliedLimit, bool, error) {
	limit := AppliedLimit{RuleID: r.ID}
	matched, err := evalGate(r.Condition, ctx, &limit)
	if err != nil {
		return AppliedLimit{}, false, err
	}
	return limit, matched, nil
}

func evalGate(c Condition, ctx SlotContext, limit *AppliedLimit) (bool, error) {
	switch n := c.(type) {
	case And:
		for _, child := range n.Children {
			ok, err := evalGate(child, ctx, limit)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case DailyCapacity:
		limit.Daily = true
		limit.Scope = n.Scope
		limit.Ceiling = n.Threshold
		return true, nil
	case ConcurrentCount:
		limit.Daily = false
		limit.Scope = n.Scope
		limit.Ceiling = n.Threshold
		limit.CrossType = n.CrossType
		return true, nil
	default:
		return evalBool(c, ctx)
	}
}

func member(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// WholeDaysBetween returns the number of whole calendar days from to until,
// ignoring the time of day of both instants.
func WholeDaysBetween(from, until time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	u := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)
	return int(u.Sub(f).Hours() / 24)
}
