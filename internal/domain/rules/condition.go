package rules

import (
	"encoding/json"
	"fmt"
)

// Condition is one node of a rule's condition tree. The tree is a sum type:
// each condition kind is its own struct so that an operator/value combination
// that makes no sense for the kind cannot be represented at all. The persisted
// JSON envelope (type/operator/valueIds/valueNumber) is handled by
// MarshalCondition and UnmarshalCondition.
type Condition interface {
	isCondition()
}

// CountScope names the aggregate a capacity or concurrency leaf counts over.
type CountScope string

const (
	ScopePractitioner CountScope = "practitioner"
	ScopeLocation     CountScope = "location"
	ScopePractice     CountScope = "practice"
)

// CompareOp is the comparison used by a cross-type clause.
type CompareOp string

const (
	CompareEquals CompareOp = "EQUALS"
	CompareGTE    CompareOp = "GREATER_THAN_OR_EQUAL"
)

// And evaluates to true iff all children evaluate to true. Evaluation
// short-circuits on the first false child.
type And struct {
	Children []Condition
}

// AppointmentType matches when the slot's appointment type is (or, negated,
// is not) a member of IDs.
type AppointmentType struct {
	IDs    []string
	Negate bool
}

// Practitioner matches on the slot's practitioner identifier.
type Practitioner struct {
	IDs    []string
	Negate bool
}

// Location matches on the slot's location identifier.
type Location struct {
	IDs    []string
	Negate bool
}

// DayOfWeek matches when the slot falls on the given weekday, 0=Sunday
// through 6=Saturday.
type DayOfWeek struct {
	Weekday int
}

// DaysAhead matches when the slot date is at least MinDays whole days after
// the evaluation date.
type DaysAhead struct {
	MinDays int
}

// DailyCapacity caps the number of bookings per day within Scope. It is not
// a boolean gate: the evaluator surfaces it as a limit for the caller to
// check against externally supplied counts.
type DailyCapacity struct {
	Scope     CountScope
	Threshold int
}

// ConcurrentCount caps how many bookings of the rule's shape may coexist at
// the slot's time within Scope. The optional CrossType clause makes the cap
// conditional on a separate count over a different appointment-type set.
type ConcurrentCount struct {
	Scope     CountScope
	Threshold int
	CrossType *CrossTypeClause
}

// CrossTypeClause is the secondary condition of a ConcurrentCount leaf. The
// primary ceiling only applies when the concurrent count of the listed
// appointment types satisfies Operator/Threshold.
type CrossTypeClause struct {
	Operator           CompareOp `json:"operator"`
	Threshold          int       `json:"threshold"`
	AppointmentTypeIDs []string  `json:"appointmentTypeIds"`
}

func (And) isCondition()             {}
func (AppointmentType) isCondition() {}
func (Practitioner) isCondition()    {}
func (Location) isCondition()        {}
func (DayOfWeek) isCondition()       {}
func (DaysAhead) isCondition()       {}
func (DailyCapacity) isCondition()   {}
func (ConcurrentCount) isCondition() {}

// Wire-format discriminators.
const (
	typeAnd             = "AND"
	typeAppointmentType = "APPOINTMENT_TYPE"
	typePractitioner    = "PRACTITIONER"
	typeLocation        = "LOCATION"
	typeDayOfWeek       = "DAY_OF_WEEK"
	typeDaysAhead       = "DAYS_AHEAD"
	typeDailyCapacity   = "DAILY_CAPACITY"
	typeConcurrentCount = "CONCURRENT_COUNT"

	opIs     = "IS"
	opIsNot  = "IS_NOT"
	opEquals = "EQUALS"
	opGTE    = "GREATER_THAN_OR_EQUAL"
)

// conditionJSON is the stored document shape for a condition node.
type conditionJSON struct {
	Type        string            `json:"type"`
	Operator    string            `json:"operator,omitempty"`
	ValueIDs    []string          `json:"valueIds,omitempty"`
	ValueNumber *int              `json:"valueNumber,omitempty"`
	Children    []json.RawMessage `json:"children,omitempty"`
	CrossType   *CrossTypeClause  `json:"crossType,omitempty"`
}

func intPtr(n int) *int { return &n }

// MarshalCondition encodes a condition tree into its stored JSON form.
func MarshalCondition(c Condition) ([]byte, error) {
	env, err := toEnvelope(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func toEnvelope(c Condition) (*conditionJSON, error) {
	switch n := c.(type) {
	case And:
		env := &conditionJSON{Type: typeAnd}
		for _, child := range n.Children {
			raw, err := MarshalCondition(child)
			if err != nil {
				return nil, err
			}
			env.Children = append(env.Children, raw)
		}
		return env, nil
	case AppointmentType:
		return &conditionJSON{Type: typeAppointmentType, Operator: setOp(n.Negate), ValueIDs: n.IDs}, nil
	case Practitioner:
		return &conditionJSON{Type: typePractitioner, Operator: setOp(n.Negate), ValueIDs: n.IDs}, nil
	case Location:
		return &conditionJSON{Type: typeLocation, Operator: setOp(n.Negate), ValueIDs: n.IDs}, nil
	case DayOfWeek:
		return &conditionJSON{Type: typeDayOfWeek, Operator: opEquals, ValueNumber: intPtr(n.Weekday)}, nil
	case DaysAhead:
		return &conditionJSON{Type: typeDaysAhead, Operator: opGTE, ValueNumber: intPtr(n.MinDays)}, nil
	case DailyCapacity:
		return &conditionJSON{
			Type: typeDailyCapacity, Operator: opGTE,
			ValueIDs: []string{string(n.Scope)}, ValueNumber: intPtr(n.Threshold),
		}, nil
	case ConcurrentCount:
		return &conditionJSON{
			Type: typeConcurrentCount, Operator: opGTE,
			ValueIDs: []string{string(n.Scope)}, ValueNumber: intPtr(n.Threshold),
			CrossType: n.CrossType,
		}, nil
	case nil:
		return nil, fmt.Errorf("marshal condition: nil node")
	default:
		return nil, fmt.Errorf("marshal condition: unknown node type %T", c)
	}
}

func setOp(negate bool) string {
	if negate {
		return opIsNot
	}
	return opIs
}

// UnmarshalCondition decodes a stored condition document back into the tree.
// Unknown discriminators and operator/value shapes that do not fit the
// declared type are rejected here, before the tree reaches the validator.
func UnmarshalCondition(data []byte) (Condition, error) {
	var env conditionJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal condition: %w", err)
	}
	return fromEnvelope(&env)
}

func fromEnvelope(env *conditionJSON) (Condition, error) {
	switch env.Type {
	case typeAnd:
		n := And{}
		for _, raw := range env.Children {
			child, err := UnmarshalCondition(raw)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	case typeAppointmentType:
		neg, err := parseSetOp(env)
		if err != nil {
			return nil, err
		}
		return AppointmentType{IDs: env.ValueIDs, Negate: neg}, nil
	case typePractitioner:
		neg, err := parseSetOp(env)
		if err != nil {
			return nil, err
		}
		return Practitioner{IDs: env.ValueIDs, Negate: neg}, nil
	case typeLocation:
		neg, err := parseSetOp(env)
		if err != nil {
			return nil, err
		}
		return Location{IDs: env.ValueIDs, Negate: neg}, nil
	case typeDayOfWeek:
		if env.Operator != opEquals || env.ValueNumber == nil {
			return nil, fmt.Errorf("condition %s: requires EQUALS and valueNumber", env.Type)
		}
		return DayOfWeek{Weekday: *env.ValueNumber}, nil
	case typeDaysAhead:
		if env.Operator != opGTE || env.ValueNumber == nil {
			return nil, fmt.Errorf("condition %s: requires GREATER_THAN_OR_EQUAL and valueNumber", env.Type)
		}
		return DaysAhead{MinDays: *env.ValueNumber}, nil
	case typeDailyCapacity:
		scope, threshold, err := parseCount(env)
		if err != nil {
			return nil, err
		}
		if env.CrossType != nil {
			return nil, fmt.Errorf("condition %s: crossType is only valid on CONCURRENT_COUNT", env.Type)
		}
		return DailyCapacity{Scope: scope, Threshold: threshold}, nil
	case typeConcurrentCount:
		scope, threshold, err := parseCount(env)
		if err != nil {
			return nil, err
		}
		return ConcurrentCount{Scope: scope, Threshold: threshold, CrossType: env.CrossType}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", env.Type)
	}
}

func parseSetOp(env *conditionJSON) (negate bool, err error) {
	switch env.Operator {
	case opIs:
		return false, nil
	case opIsNot:
		return true, nil
	default:
		return false, fmt.Errorf("condition %s: operator must be IS or IS_NOT, got %q", env.Type, env.Operator)
	}
}

func parseCount(env *conditionJSON) (CountScope, int, error) {
	if env.Operator != opGTE {
		return "", 0, fmt.Errorf("condition %s: operator must be GREATER_THAN_OR_EQUAL, got %q", env.Type, env.Operator)
	}
	if len(env.ValueIDs) != 1 {
		return "", 0, fmt.Errorf("condition %s: valueIds must hold exactly the scope", env.Type)
	}
	if env.ValueNumber == nil {
		return "", 0, fmt.Errorf("condition %s: valueNumber (threshold) is required", env.Type)
	}
	scope := CountScope(env.ValueIDs[0])
	switch scope {
	case ScopePractitioner, ScopeLocation, ScopePractice:
	default:
		return "", 0, fmt.Errorf("condition %s: unknown scope %q", env.Type, scope)
	}
	return scope, *env.ValueNumber, nil
}
