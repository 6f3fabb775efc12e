package directory

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Practitioner is a bookable care provider. Code is the stable short
// identifier rule conditions refer to; the UUID is the row identity.
type Practitioner struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Location is a physical or virtual site appointments take place at.
type Location struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentType is a bookable visit kind (e.g. "consult", "followup").
type AppointmentType struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// codePattern constrains the short identifiers referenced from rule
// conditions: lowercase alphanumerics and hyphens.
var codePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

func validateCode(code string) error {
	if code == "" {
		return fmt.Errorf("code is required")
	}
	if !codePattern.MatchString(code) {
		return fmt.Errorf("invalid code %q: lowercase alphanumerics and hyphens only", code)
	}
	return nil
}
