package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/terminplan/terminplan/internal/domain/rules"
	"github.com/terminplan/terminplan/internal/domain/ruleset"
	"github.com/terminplan/terminplan/internal/domain/schedule"
)

// Request describes one candidate slot to score. RuleSetID pins the
// evaluation to a specific saved version; Draft evaluates against the
// practice's unsaved draft. When neither is set the active rule set is used.
type Request struct {
	AppointmentType string     `json:"appointment_type"`
	Practitioner    string     `json:"practitioner"`
	Location        string     `json:"location"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	EvaluationDate  time.Time  `json:"evaluation_date,omitempty"`
	RuleSetID       *uuid.UUID `json:"rule_set_id,omitempty"`
	Draft           bool       `json:"draft,omitempty"`
}

func (r *Request) Validate() error {
	if r.AppointmentType == "" {
		return errors.New("appointment_type is required")
	}
	if r.Practitioner == "" {
		return errors.New("practitioner is required")
	}
	if r.Location == "" {
		return errors.New("location is required")
	}
	if r.Start.IsZero() {
		return errors.New("start is required")
	}
	if r.End.IsZero() {
		return errors.New("end is required")
	}
	if !r.Start.Before(r.End) {
		return errors.New("start must be before end")
	}
	return nil
}

// LimitCheck is one LIMIT_CONCURRENT ceiling measured against current
// occupancy. Exceeded means admitting the slot would pass the ceiling.
type LimitCheck struct {
	RuleID    uuid.UUID        `json:"rule_id"`
	Daily     bool             `json:"daily"`
	Scope     rules.CountScope `json:"scope"`
	Ceiling   int              `json:"ceiling"`
	Occupancy int              `json:"occupancy"`
	Exceeded  bool             `json:"exceeded"`
}

// Result is the final verdict for a candidate slot, after limit ceilings
// have been compared against occupancy.
type Result struct {
	Status        rules.DecisionStatus `json:"status"`
	RuleSetID     uuid.UUID            `json:"rule_set_id"`
	BlockedByRule *uuid.UUID           `json:"blocked_by_rule,omitempty"`
	Limits        []LimitCheck         `json:"limits,omitempty"`
}

// RuleSetResolver resolves which rule-set snapshot a request evaluates
// against. *ruleset.Store satisfies it.
type RuleSetResolver interface {
	Get(ctx context.Context, id uuid.UUID) (*ruleset.RuleSet, error)
	GetActive(ctx context.Context, practiceID string) (*ruleset.RuleSet, error)
	GetDraft(ctx context.Context, practiceID string) (*ruleset.RuleSet, error)
}

// RuleLister loads the rules referenced by a rule set.
type RuleLister interface {
	ListByRuleSet(ctx context.Context, ruleSetID uuid.UUID) ([]*rules.Rule, error)
}

// OccupancyCounter supplies the aggregate booking counts the evaluator does
// not own. *schedule.Service satisfies it.
type OccupancyCounter interface {
	CountConcurrent(ctx context.Context, f schedule.OccupancyFilter, start, end time.Time) (int, error)
	CountDaily(ctx context.Context, f schedule.OccupancyFilter, day time.Time) (int, error)
}

type Service struct {
	ruleSets  RuleSetResolver
	ruleStore RuleLister
	occupancy OccupancyCounter
}

func NewService(ruleSets RuleSetResolver, ruleStore RuleLister, occupancy OccupancyCounter) *Service {
	return &Service{ruleSets: ruleSets, ruleStore: ruleStore, occupancy: occupancy}
}

// EvaluateSlot resolves the rule set, runs the pure evaluator, then settles
// every recorded limit against current occupancy. A slot passes only when no
// BLOCK rule matched and no applicable ceiling is already reached.
func (s *Service) EvaluateSlot(ctx context.Context, practiceID string, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rs, err := s.resolveRuleSet(ctx, practiceID, req)
	if err != nil {
		return nil, err
	}

	ruleList, err := s.ruleStore.ListByRuleSet(ctx, rs.ID)
	if err != nil {
		return nil, fmt.Errorf("load rules for set %s: %w", rs.ID, err)
	}

	decision, err := rules.Evaluate(ruleList, rules.SlotContext{
		AppointmentType: req.AppointmentType,
		Practitioner:    req.Practitioner,
		Location:        req.Location,
		Start:           req.Start,
		EvaluationDate:  req.EvaluationDate,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Status: decision.Status, RuleSetID: rs.ID, BlockedByRule: decision.BlockedByRule}
	if decision.Status == rules.StatusBlocked {
		return result, nil
	}

	for _, limit := range decision.Limits {
		check, err := s.settleLimit(ctx, req, limit)
		if err != nil {
			return nil, err
		}
		result.Limits = append(result.Limits, check)
		if check.Exceeded && result.Status == rules.StatusAvailable {
			id := check.RuleID
			result.Status = rules.StatusBlocked
			result.BlockedByRule = &id
		}
	}
	return result, nil
}

func (s *Service) resolveRuleSet(ctx context.Context, practiceID string, req Request) (*ruleset.RuleSet, error) {
	switch {
	case req.RuleSetID != nil:
		return s.ruleSets.Get(ctx, *req.RuleSetID)
	case req.Draft:
		return s.ruleSets.GetDraft(ctx, practiceID)
	default:
		return s.ruleSets.GetActive(ctx, practiceID)
	}
}

// settleLimit measures one applied limit against live occupancy. The primary
// count is over the slot's own appointment type within the limit's scope; a
// cross-type clause suspends the ceiling unless the concurrent count of the
// listed other types satisfies its comparison.
func (s *Service) settleLimit(ctx context.Context, req Request, limit rules.AppliedLimit) (LimitCheck, error) {
	check := LimitCheck{
		RuleID:  limit.RuleID,
		Daily:   limit.Daily,
		Scope:   limit.Scope,
		Ceiling: limit.Ceiling,
	}

	filter := scopeFilter(limit.Scope, req)
	filter.Types = []string{req.AppointmentType}

	var occupancy int
	var err error
	if limit.Daily {
		occupancy, err = s.occupancy.CountDaily(ctx, filter, req.Start)
	} else {
		occupancy, err = s.occupancy.CountConcurrent(ctx, filter, req.Start, req.End)
	}
	if err != nil {
		return LimitCheck{}, fmt.Errorf("count occupancy for rule %s: %w", limit.RuleID, err)
	}
	check.Occupancy = occupancy

	applies := true
	if limit.CrossType != nil {
		applies, err = s.crossTypeApplies(ctx, req, limit)
		if err != nil {
			return LimitCheck{}, err
		}
	}
	check.Exceeded = applies && occupancy >= limit.Ceiling
	return check, nil
}

func (s *Service) crossTypeApplies(ctx context.Context, req Request, limit rules.AppliedLimit) (bool, error) {
	clause := limit.CrossType
	filter := scopeFilter(limit.Scope, req)
	filter.Types = clause.AppointmentTypeIDs

	crossCount, err := s.occupancy.CountConcurrent(ctx, filter, req.Start, req.End)
	if err != nil {
		return false, fmt.Errorf("count cross-type occupancy for rule %s: %w", limit.RuleID, err)
	}
	switch clause.Operator {
	case rules.CompareEquals:
		return crossCount == clause.Threshold, nil
	case rules.CompareGTE:
		return crossCount >= clause.Threshold, nil
	default:
		return false, fmt.Errorf("rule %s: unknown cross-type operator %q", limit.RuleID, clause.Operator)
	}
}

// scopeFilter narrows occupancy counting to the limit's scope. Practice
// scope stays unnarrowed: each practice lives in its own schema, so the
// unfiltered count is already practice-wide.
func scopeFilter(scope rules.CountScope, req Request) schedule.OccupancyFilter {
	var f schedule.OccupancyFilter
	switch scope {
	case rules.ScopePractitioner:
		f.Practitioner = req.Practitioner
	case rules.ScopeLocation:
		f.Location = req.Location
	}
	return f
}
