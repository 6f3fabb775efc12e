package actions

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind names a reversible operation a client may request.
type Kind string

const (
	KindCreateRule Kind = "rule.create"
	KindUpdateRule Kind = "rule.update"
	KindDeleteRule Kind = "rule.delete"
	KindToggleRule Kind = "rule.toggle"
)

// Command is a serializable request for one reversible mutation. Every
// command names the rule set it wants to edit; the dispatcher turns that
// into the practice draft before touching any rule.
type Command struct {
	Kind          Kind            `json:"kind"`
	Label         string          `json:"label,omitempty"`
	BaseRuleSetID uuid.UUID       `json:"base_rule_set_id"`
	RuleID        uuid.UUID       `json:"rule_id,omitempty"`
	Rule          json.RawMessage `json:"rule,omitempty"`
	Enabled       *bool           `json:"enabled,omitempty"`
}

func (c *Command) Validate() error {
	if c.BaseRuleSetID == uuid.Nil {
		return errors.New("base_rule_set_id is required")
	}
	switch c.Kind {
	case KindCreateRule:
		if len(c.Rule) == 0 {
			return errors.New("rule payload is required for rule.create")
		}
	case KindUpdateRule:
		if c.RuleID == uuid.Nil {
			return errors.New("rule_id is required for rule.update")
		}
		if len(c.Rule) == 0 {
			return errors.New("rule payload is required for rule.update")
		}
	case KindDeleteRule:
		if c.RuleID == uuid.Nil {
			return errors.New("rule_id is required for rule.delete")
		}
	case KindToggleRule:
		if c.RuleID == uuid.Nil {
			return errors.New("rule_id is required for rule.toggle")
		}
		if c.Enabled == nil {
			return errors.New("enabled is required for rule.toggle")
		}
	default:
		return fmt.Errorf("unknown command kind %q", c.Kind)
	}
	return nil
}

// State is the client-visible snapshot of one session's history.
type State struct {
	CanUndo   bool `json:"can_undo"`
	CanRedo   bool `json:"can_redo"`
	UndoDepth int  `json:"undo_depth"`
	RedoDepth int  `json:"redo_depth"`
	Running   bool `json:"running"`
}
