package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a directory entry does not exist.
var ErrNotFound = errors.New("directory entry not found")

// Create on every repository below assigns a fresh ID when the entity's ID
// is uuid.Nil.

type PractitionerRepository interface {
	Create(ctx context.Context, p *Practitioner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	GetByCode(ctx context.Context, code string) (*Practitioner, error)
	Update(ctx context.Context, p *Practitioner) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error)
}

type LocationRepository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*Location, error)
	GetByCode(ctx context.Context, code string) (*Location, error)
	Update(ctx context.Context, l *Location) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Location, int, error)
}

type AppointmentTypeRepository interface {
	Create(ctx context.Context, at *AppointmentType) error
	GetByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error)
	GetByCode(ctx context.Context, code string) (*AppointmentType, error)
	Update(ctx context.Context, at *AppointmentType) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*AppointmentType, int, error)
}
