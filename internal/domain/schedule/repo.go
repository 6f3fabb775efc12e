package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a schedule or appointment does not exist.
var ErrNotFound = errors.New("schedule entry not found")

// OccupancyFilter narrows occupancy counts to a scope. Empty fields are
// wildcards; a non-empty Types slice restricts to those appointment types.
type OccupancyFilter struct {
	Practitioner string
	Location     string
	Types        []string
}

type BaseScheduleRepository interface {
	// Create stores the schedule, assigning a fresh ID when b.ID is uuid.Nil.
	Create(ctx context.Context, b *BaseSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*BaseSchedule, error)
	Update(ctx context.Context, b *BaseSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*BaseSchedule, int, error)
	ListByPractitioner(ctx context.Context, practitioner string, limit, offset int) ([]*BaseSchedule, int, error)
}

type AppointmentRepository interface {
	// Create stores the appointment, assigning a fresh ID when a.ID is uuid.Nil.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByPractitioner(ctx context.Context, practitioner string, limit, offset int) ([]*Appointment, int, error)

	// CountConcurrent counts booked appointments overlapping [start, end).
	CountConcurrent(ctx context.Context, f OccupancyFilter, start, end time.Time) (int, error)
	// CountDaily counts booked appointments starting on the calendar day of
	// the given instant.
	CountDaily(ctx context.Context, f OccupancyFilter, day time.Time) (int, error)
}
