package ruleset

import (
	"time"

	"github.com/google/uuid"
)

// DraftDescription is the reserved description of the practice's unsaved
// draft. At most one non-active rule set per practice carries it at a time,
// and Save refuses it as a user-chosen name.
const DraftDescription = "Ungespeicherte Änderungen"

// RuleSet is an immutable snapshot of a practice's scheduling configuration.
// Rules, practitioners, locations and base schedules are referenced through
// membership tables; a new snapshot copies references, not content. The only
// way to change configuration is to create a new snapshot.
type RuleSet struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PracticeID  string     `db:"practice_id" json:"practice_id"`
	Description string     `db:"description" json:"description"`
	Version     int        `db:"version" json:"version"`
	ParentID    *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CreatedBy   string     `db:"created_by" json:"created_by,omitempty"`
}

// IsDraftMarker reports whether the snapshot carries the reserved draft
// description. Whether it actually is the tracked draft is decided by the
// practice-state pointer, not by scanning descriptions.
func (rs *RuleSet) IsDraftMarker() bool {
	return rs.Description == DraftDescription
}

// VersionNode is the read-only projection of one rule set for the version
// graph. Parent edges are preserved across branches: siblings may share a
// parent after taking different edit paths.
type VersionNode struct {
	ID          uuid.UUID  `json:"id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Description string     `json:"description"`
	Version     int        `json:"version"`
	IsActive    bool       `json:"is_active"`
	IsDraft     bool       `json:"is_draft"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by,omitempty"`
}
