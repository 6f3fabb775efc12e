package rules

import "fmt"

// ValidationError identifies the node that makes a condition tree unusable.
// A malformed tree is a caller bug: partial trees are valid builder state but
// must never reach persistence or evaluation.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid condition at %s: %s", e.Path, e.Reason)
}

func invalidAt(path, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks that a condition tree is well-formed. It is pure and is
// invoked at the persistence and evaluation boundaries, not during
// interactive editing.
func Validate(c Condition) error {
	return validateNode(c, "root")
}

func validateNode(c Condition, path string) error {
	switch n := c.(type) {
	case nil:
		return invalidAt(path, "node is nil")
	case And:
		if len(n.Children) == 0 {
			return invalidAt(path, "AND requires at least one child")
		}
		for i, child := range n.Children {
			if err := validateNode(child, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case AppointmentType:
		return validateIDSet(n.IDs, path)
	case Practitioner:
		return validateIDSet(n.IDs, path)
	case Location:
		return validateIDSet(n.IDs, path)
	case DayOfWeek:
		if n.Weekday < 0 || n.Weekday > 6 {
			return invalidAt(path, "weekday must be 0 (Sunday) through 6 (Saturday), got %d", n.Weekday)
		}
		return nil
	case DaysAhead:
		if n.MinDays < 0 {
			return invalidAt(path, "days-ahead minimum must not be negative, got %d", n.MinDays)
		}
		return nil
	case DailyCapacity:
		return validateCount(n.Scope, n.Threshold, path)
	case ConcurrentCount:
		if err := validateCount(n.Scope, n.Threshold, path); err != nil {
			return err
		}
		if ct := n.CrossType; ct != nil {
			if ct.Operator != CompareEquals && ct.Operator != CompareGTE {
				return invalidAt(path, "cross-type operator must be EQUALS or GREATER_THAN_OR_EQUAL")
			}
			if ct.Threshold <= 0 {
				return invalidAt(path, "cross-type threshold must be positive, got %d", ct.Threshold)
			}
			if len(ct.AppointmentTypeIDs) == 0 {
				return invalidAt(path, "cross-type clause requires at least one appointment type")
			}
		}
		return nil
	default:
		return invalidAt(path, "unknown node type %T", c)
	}
}

func validateIDSet(ids []string, path string) error {
	if len(ids) == 0 {
		return invalidAt(path, "identifier set must not be empty")
	}
	for _, id := range ids {
		if id == "" {
			return invalidAt(path, "identifier set contains an empty identifier")
		}
	}
	return nil
}

func validateCount(scope CountScope, threshold int, path string) error {
	switch scope {
	case ScopePractitioner, ScopeLocation, ScopePractice:
	default:
		return invalidAt(path, "scope must be practitioner, location or practice, got %q", scope)
	}
	if threshold <= 0 {
		return invalidAt(path, "threshold must be positive, got %d", threshold)
	}
	return nil
}

// countLeaves returns how many capacity/concurrency leaves the tree holds.
func countLeaves(c Condition) int {
	switch n := c.(type) {
	case And:
		total := 0
		for _, child := range n.Children {
			total += countLeaves(child)
		}
		return total
	case DailyCapacity, ConcurrentCount:
		return 1
	default:
		return 0
	}
}
