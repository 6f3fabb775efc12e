package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	practitioners PractitionerRepository
	locations     LocationRepository
	apptTypes     AppointmentTypeRepository
}

func NewService(p PractitionerRepository, l LocationRepository, at AppointmentTypeRepository) *Service {
	return &Service{practitioners: p, locations: l, apptTypes: at}
}

// -- Practitioner --

func (s *Service) CreatePractitioner(ctx context.Context, p *Practitioner) error {
	if err := validateCode(p.Code); err != nil {
		return err
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.practitioners.Create(ctx, p)
}

func (s *Service) GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return s.practitioners.GetByID(ctx, id)
}

func (s *Service) GetPractitionerByCode(ctx context.Context, code string) (*Practitioner, error) {
	return s.practitioners.GetByCode(ctx, code)
}

func (s *Service) UpdatePractitioner(ctx context.Context, p *Practitioner) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.practitioners.Update(ctx, p)
}

func (s *Service) DeletePractitioner(ctx context.Context, id uuid.UUID) error {
	return s.practitioners.Delete(ctx, id)
}

func (s *Service) ListPractitioners(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	return s.practitioners.List(ctx, limit, offset)
}

// -- Location --

func (s *Service) CreateLocation(ctx context.Context, l *Location) error {
	if err := validateCode(l.Code); err != nil {
		return err
	}
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.locations.Create(ctx, l)
}

func (s *Service) GetLocation(ctx context.Context, id uuid.UUID) (*Location, error) {
	return s.locations.GetByID(ctx, id)
}

func (s *Service) GetLocationByCode(ctx context.Context, code string) (*Location, error) {
	return s.locations.GetByCode(ctx, code)
}

func (s *Service) UpdateLocation(ctx context.Context, l *Location) error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.locations.Update(ctx, l)
}

func (s *Service) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	return s.locations.Delete(ctx, id)
}

func (s *Service) ListLocations(ctx context.Context, limit, offset int) ([]*Location, int, error) {
	return s.locations.List(ctx, limit, offset)
}

// -- AppointmentType --

func (s *Service) CreateAppointmentType(ctx context.Context, at *AppointmentType) error {
	if err := validateCode(at.Code); err != nil {
		return err
	}
	if at.Name == "" {
		return fmt.Errorf("name is required")
	}
	if at.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	return s.apptTypes.Create(ctx, at)
}

func (s *Service) GetAppointmentType(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	return s.apptTypes.GetByID(ctx, id)
}

func (s *Service) GetAppointmentTypeByCode(ctx context.Context, code string) (*AppointmentType, error) {
	return s.apptTypes.GetByCode(ctx, code)
}

func (s *Service) UpdateAppointmentType(ctx context.Context, at *AppointmentType) error {
	if at.Name == "" {
		return fmt.Errorf("name is required")
	}
	if at.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	return s.apptTypes.Update(ctx, at)
}

func (s *Service) DeleteAppointmentType(ctx context.Context, id uuid.UUID) error {
	return s.apptTypes.Delete(ctx, id)
}

func (s *Service) ListAppointmentTypes(ctx context.Context, limit, offset int) ([]*AppointmentType, int, error) {
	return s.apptTypes.List(ctx, limit, offset)
}
