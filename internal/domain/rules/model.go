package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RuleType distinguishes how a rule affects availability.
type RuleType string

const (
	// RuleTypeBlock removes a slot from availability when its tree matches.
	RuleTypeBlock RuleType = "BLOCK"
	// RuleTypeLimitConcurrent caps how many bookings of a shape may coexist
	// instead of blocking outright.
	RuleTypeLimitConcurrent RuleType = "LIMIT_CONCURRENT"
)

// Rule maps to the rule table. Rule rows referenced by a saved rule set are
// immutable; editing a shared rule inside a draft clones the row.
type Rule struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Type        RuleType  `db:"rule_type" json:"rule_type"`
	Condition   Condition `db:"-" json:"-"`
	Priority    int       `db:"priority" json:"priority"`
	Enabled     bool      `db:"enabled" json:"enabled"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ruleJSON carries the condition tree in its stored envelope form.
type ruleJSON struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        RuleType        `json:"rule_type"`
	Condition   json.RawMessage `json:"condition"`
	Priority    int             `json:"priority"`
	Enabled     bool            `json:"enabled"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	var cond json.RawMessage
	if r.Condition != nil {
		raw, err := MarshalCondition(r.Condition)
		if err != nil {
			return nil, err
		}
		cond = raw
	}
	return json.Marshal(ruleJSON{
		ID: r.ID, Name: r.Name, Description: r.Description, Type: r.Type,
		Condition: cond, Priority: r.Priority, Enabled: r.Enabled,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	})
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var rj ruleJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	r.ID = rj.ID
	r.Name = rj.Name
	r.Description = rj.Description
	r.Type = rj.Type
	r.Priority = rj.Priority
	r.Enabled = rj.Enabled
	r.CreatedAt = rj.CreatedAt
	r.UpdatedAt = rj.UpdatedAt
	if len(rj.Condition) > 0 && !bytes.Equal(rj.Condition, []byte("null")) {
		cond, err := UnmarshalCondition(rj.Condition)
		if err != nil {
			return err
		}
		r.Condition = cond
	}
	return nil
}

// Validate checks the rule as a whole: the condition tree must be well
// formed, and capacity/concurrency leaves are only legal inside
// LIMIT_CONCURRENT rules, which carry exactly one such leaf.
func (r *Rule) Validate() error {
	switch r.Type {
	case RuleTypeBlock, RuleTypeLimitConcurrent:
	default:
		return fmt.Errorf("rule %s: unknown rule type %q", r.ID, r.Type)
	}
	if r.Name == "" {
		return fmt.Errorf("rule %s: name is required", r.ID)
	}
	if err := Validate(r.Condition); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	counts := countLeaves(r.Condition)
	if r.Type == RuleTypeBlock && counts > 0 {
		return fmt.Errorf("rule %s: BLOCK rules must not contain capacity or concurrency conditions", r.ID)
	}
	if r.Type == RuleTypeLimitConcurrent && counts != 1 {
		return fmt.Errorf("rule %s: LIMIT_CONCURRENT rules require exactly one capacity or concurrency condition, found %d", r.ID, counts)
	}
	return nil
}

// SortRules orders rules for evaluation: ascending priority value wins
// precedence, ties break on ascending rule ID so the order is deterministic.
func SortRules(rs []*Rule) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Priority != rs[j].Priority {
			return rs[i].Priority < rs[j].Priority
		}
		return bytes.Compare(rs[i].ID[:], rs[j].ID[:]) < 0
	})
}
