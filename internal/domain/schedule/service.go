package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	schedules    BaseScheduleRepository
	appointments AppointmentRepository
}

func NewService(schedules BaseScheduleRepository, appointments AppointmentRepository) *Service {
	return &Service{schedules: schedules, appointments: appointments}
}

// -- BaseSchedule --

func (s *Service) CreateBaseSchedule(ctx context.Context, b *BaseSchedule) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.schedules.Create(ctx, b)
}

func (s *Service) GetBaseSchedule(ctx context.Context, id uuid.UUID) (*BaseSchedule, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *Service) UpdateBaseSchedule(ctx context.Context, b *BaseSchedule) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.schedules.Update(ctx, b)
}

func (s *Service) DeleteBaseSchedule(ctx context.Context, id uuid.UUID) error {
	return s.schedules.Delete(ctx, id)
}

func (s *Service) ListBaseSchedules(ctx context.Context, limit, offset int) ([]*BaseSchedule, int, error) {
	return s.schedules.List(ctx, limit, offset)
}

func (s *Service) ListBaseSchedulesByPractitioner(ctx context.Context, practitioner string, limit, offset int) ([]*BaseSchedule, int, error) {
	return s.schedules.ListByPractitioner(ctx, practitioner, limit, offset)
}

// -- Appointment --

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.Status == "" {
		a.Status = StatusBooked
	}
	if err := a.Validate(); err != nil {
		return err
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.appointments.Update(ctx, a)
}

// CancelAppointment flips the status without deleting the row, so the
// booking survives in listings but stops counting toward occupancy.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusCancelled {
		return nil
	}
	a.Status = StatusCancelled
	return s.appointments.Update(ctx, a)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) ListAppointmentsByPractitioner(ctx context.Context, practitioner string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPractitioner(ctx, practitioner, limit, offset)
}

// -- Occupancy --

func (s *Service) CountConcurrent(ctx context.Context, f OccupancyFilter, start, end time.Time) (int, error) {
	return s.appointments.CountConcurrent(ctx, f, start, end)
}

func (s *Service) CountDaily(ctx context.Context, f OccupancyFilter, day time.Time) (int, error) {
	return s.appointments.CountDaily(ctx, f, day)
}
