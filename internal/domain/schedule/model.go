package schedule

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// BaseSchedule is one recurring weekly working window for a practitioner at
// a location. Practitioner and Location carry directory codes, not UUIDs,
// matching how rule conditions refer to them.
type BaseSchedule struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Practitioner string    `db:"practitioner" json:"practitioner"`
	Location     string    `db:"location" json:"location"`
	Weekday      int       `db:"weekday" json:"weekday"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Appointment statuses. Cancelled appointments stay in the table but never
// count toward occupancy.
const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

// Appointment is a booked slot.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AppointmentType string    `db:"appointment_type" json:"appointment_type"`
	Practitioner    string    `db:"practitioner" json:"practitioner"`
	Location        string    `db:"location" json:"location"`
	PatientRef      *string   `db:"patient_ref" json:"patient_ref,omitempty"`
	Start           time.Time `db:"start_time" json:"start"`
	End             time.Time `db:"end_time" json:"end"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func (b *BaseSchedule) Validate() error {
	if b.Practitioner == "" {
		return fmt.Errorf("practitioner is required")
	}
	if b.Location == "" {
		return fmt.Errorf("location is required")
	}
	if b.Weekday < 0 || b.Weekday > 6 {
		return fmt.Errorf("weekday must be 0..6, got %d", b.Weekday)
	}
	if !clockPattern.MatchString(b.StartTime) {
		return fmt.Errorf("start_time must be HH:MM, got %q", b.StartTime)
	}
	if !clockPattern.MatchString(b.EndTime) {
		return fmt.Errorf("end_time must be HH:MM, got %q", b.EndTime)
	}
	if b.StartTime >= b.EndTime {
		return fmt.Errorf("start_time %s must be before end_time %s", b.StartTime, b.EndTime)
	}
	return nil
}

func (a *Appointment) Validate() error {
	if a.AppointmentType == "" {
		return fmt.Errorf("appointment_type is required")
	}
	if a.Practitioner == "" {
		return fmt.Errorf("practitioner is required")
	}
	if a.Location == "" {
		return fmt.Errorf("location is required")
	}
	if a.Start.IsZero() || a.End.IsZero() {
		return fmt.Errorf("start and end are required")
	}
	if !a.Start.Before(a.End) {
		return fmt.Errorf("start must be before end")
	}
	switch a.Status {
	case StatusBooked, StatusCancelled:
	default:
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	return nil
}
