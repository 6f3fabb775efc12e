package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockBaseScheduleRepo struct {
	items map[uuid.UUID]*BaseSchedule
}

func newMockBaseScheduleRepo() *mockBaseScheduleRepo {
	return &mockBaseScheduleRepo{items: make(map[uuid.UUID]*BaseSchedule)}
}

func (m *mockBaseScheduleRepo) Create(_ context.Context, b *BaseSchedule) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *mockBaseScheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*BaseSchedule, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBaseScheduleRepo) Update(_ context.Context, b *BaseSchedule) error {
	if _, ok := m.items[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *mockBaseScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockBaseScheduleRepo) List(_ context.Context, limit, offset int) ([]*BaseSchedule, int, error) {
	out := make([]*BaseSchedule, 0, len(m.items))
	for _, b := range m.items {
		cp := *b
		out = append(out, &cp)
	}
	return out, len(m.items), nil
}

func (m *mockBaseScheduleRepo) ListByPractitioner(_ context.Context, practitioner string, limit, offset int) ([]*BaseSchedule, int, error) {
	var out []*BaseSchedule
	for _, b := range m.items {
		if b.Practitioner == practitioner {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

type mockAppointmentRepo struct {
	items map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.items[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockAppointmentRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	out := make([]*Appointment, 0, len(m.items))
	for _, a := range m.items {
		cp := *a
		out = append(out, &cp)
	}
	return out, len(m.items), nil
}

func (m *mockAppointmentRepo) ListByPractitioner(_ context.Context, practitioner string, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.items {
		if a.Practitioner == practitioner {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) matches(a *Appointment, f OccupancyFilter) bool {
	if a.Status != StatusBooked {
		return false
	}
	if f.Practitioner != "" && a.Practitioner != f.Practitioner {
		return false
	}
	if f.Location != "" && a.Location != f.Location {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if a.AppointmentType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *mockAppointmentRepo) CountConcurrent(_ context.Context, f OccupancyFilter, start, end time.Time) (int, error) {
	n := 0
	for _, a := range m.items {
		if m.matches(a, f) && a.Start.Before(end) && a.End.After(start) {
			n++
		}
	}
	return n, nil
}

func (m *mockAppointmentRepo) CountDaily(_ context.Context, f OccupancyFilter, day time.Time) (int, error) {
	n := 0
	for _, a := range m.items {
		if !m.matches(a, f) {
			continue
		}
		y1, m1, d1 := a.Start.Date()
		y2, m2, d2 := day.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			n++
		}
	}
	return n, nil
}

func newTestService() (*Service, *mockBaseScheduleRepo, *mockAppointmentRepo) {
	schedules := newMockBaseScheduleRepo()
	appointments := newMockAppointmentRepo()
	return NewService(schedules, appointments), schedules, appointments
}

func mustCreateAppointment(t *testing.T, svc *Service, a *Appointment) *Appointment {
	t.Helper()
	if err := svc.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	return a
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

func TestCreateBaseSchedule_Valid(t *testing.T) {
	svc, _, _ := newTestService()

	b := &BaseSchedule{
		Practitioner: "dr-weber",
		Location:     "nord",
		Weekday:      1,
		StartTime:    "08:00",
		EndTime:      "16:30",
	}
	if err := svc.CreateBaseSchedule(context.Background(), b); err != nil {
		t.Fatalf("CreateBaseSchedule: %v", err)
	}
	if b.ID == uuid.Nil {
		t.Error("expected generated id")
	}

	got, err := svc.GetBaseSchedule(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetBaseSchedule: %v", err)
	}
	if got.StartTime != "08:00" || got.Weekday != 1 {
		t.Errorf("unexpected schedule: %+v", got)
	}
}

func TestCreateBaseSchedule_Invalid(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		b    BaseSchedule
	}{
		{"missing practitioner", BaseSchedule{Location: "nord", Weekday: 1, StartTime: "08:00", EndTime: "12:00"}},
		{"weekday too large", BaseSchedule{Practitioner: "dr-weber", Location: "nord", Weekday: 7, StartTime: "08:00", EndTime: "12:00"}},
		{"negative weekday", BaseSchedule{Practitioner: "dr-weber", Location: "nord", Weekday: -1, StartTime: "08:00", EndTime: "12:00"}},
		{"bad clock format", BaseSchedule{Practitioner: "dr-weber", Location: "nord", Weekday: 1, StartTime: "8:00", EndTime: "12:00"}},
		{"out of range clock", BaseSchedule{Practitioner: "dr-weber", Location: "nord", Weekday: 1, StartTime: "24:00", EndTime: "25:00"}},
		{"start not before end", BaseSchedule{Practitioner: "dr-weber", Location: "nord", Weekday: 1, StartTime: "12:00", EndTime: "12:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.b
			if err := svc.CreateBaseSchedule(context.Background(), &b); err == nil {
				t.Errorf("expected validation error for %+v", tc.b)
			}
		})
	}
}

func TestCreateAppointment_DefaultsToBooked(t *testing.T) {
	svc, _, _ := newTestService()

	a := mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult",
		Practitioner:    "dr-weber",
		Location:        "nord",
		Start:           at(t, "2025-03-10T09:00:00Z"),
		End:             at(t, "2025-03-10T09:30:00Z"),
	})
	got, err := svc.GetAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetAppointment: %v", err)
	}
	if got.Status != StatusBooked {
		t.Errorf("status = %q, want %q", got.Status, StatusBooked)
	}
}

func TestCreateAppointment_AssignsDistinctIDs(t *testing.T) {
	svc, _, appointments := newTestService()

	first := mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult",
		Practitioner:    "dr-weber",
		Location:        "nord",
		Start:           at(t, "2025-03-10T09:00:00Z"),
		End:             at(t, "2025-03-10T09:30:00Z"),
	})
	second := mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult",
		Practitioner:    "dr-weber",
		Location:        "nord",
		Start:           at(t, "2025-03-10T10:00:00Z"),
		End:             at(t, "2025-03-10T10:30:00Z"),
	})

	if first.ID == uuid.Nil || second.ID == uuid.Nil {
		t.Fatal("expected generated ids")
	}
	if first.ID == second.ID {
		t.Fatalf("both appointments got id %s", first.ID)
	}
	if len(appointments.items) != 2 {
		t.Errorf("stored %d appointments, want 2", len(appointments.items))
	}
}

func TestCreateAppointment_Invalid(t *testing.T) {
	svc, _, _ := newTestService()

	start := at(t, "2025-03-10T09:00:00Z")
	cases := []struct {
		name string
		a    Appointment
	}{
		{"missing type", Appointment{Practitioner: "dr-weber", Location: "nord", Start: start, End: start.Add(30 * time.Minute)}},
		{"start not before end", Appointment{AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord", Start: start, End: start}},
		{"unknown status", Appointment{AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord", Start: start, End: start.Add(30 * time.Minute), Status: "tentative"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := tc.a
			if err := svc.CreateAppointment(context.Background(), &a); err == nil {
				t.Errorf("expected validation error for %+v", tc.a)
			}
		})
	}
}

func TestCancelAppointment(t *testing.T) {
	svc, _, _ := newTestService()

	a := mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult",
		Practitioner:    "dr-weber",
		Location:        "nord",
		Start:           at(t, "2025-03-10T09:00:00Z"),
		End:             at(t, "2025-03-10T09:30:00Z"),
	})

	if err := svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("CancelAppointment: %v", err)
	}
	got, err := svc.GetAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetAppointment after cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %q, want %q", got.Status, StatusCancelled)
	}

	// Cancelling again is a no-op, not an error.
	if err := svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Errorf("second cancel: %v", err)
	}
}

func TestCancelAppointment_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.CancelAppointment(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCountConcurrent_OverlapsAndFilters(t *testing.T) {
	svc, _, _ := newTestService()

	mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord",
		Start: at(t, "2025-03-10T09:00:00Z"), End: at(t, "2025-03-10T09:30:00Z"),
	})
	mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "checkup", Practitioner: "dr-weber", Location: "nord",
		Start: at(t, "2025-03-10T09:15:00Z"), End: at(t, "2025-03-10T09:45:00Z"),
	})
	// Different practitioner, same slot.
	mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult", Practitioner: "dr-meier", Location: "sued",
		Start: at(t, "2025-03-10T09:00:00Z"), End: at(t, "2025-03-10T09:30:00Z"),
	})
	// Back-to-back: ends exactly when the probe starts, must not count.
	mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord",
		Start: at(t, "2025-03-10T08:30:00Z"), End: at(t, "2025-03-10T09:00:00Z"),
	})

	start := at(t, "2025-03-10T09:00:00Z")
	end := at(t, "2025-03-10T09:30:00Z")

	n, err := svc.CountConcurrent(context.Background(), OccupancyFilter{}, start, end)
	if err != nil {
		t.Fatalf("CountConcurrent: %v", err)
	}
	if n != 3 {
		t.Errorf("unfiltered count = %d, want 3", n)
	}

	n, err = svc.CountConcurrent(context.Background(), OccupancyFilter{Practitioner: "dr-weber"}, start, end)
	if err != nil {
		t.Fatalf("CountConcurrent: %v", err)
	}
	if n != 2 {
		t.Errorf("practitioner count = %d, want 2", n)
	}

	n, err = svc.CountConcurrent(context.Background(), OccupancyFilter{Types: []string{"consult"}}, start, end)
	if err != nil {
		t.Fatalf("CountConcurrent: %v", err)
	}
	if n != 2 {
		t.Errorf("type count = %d, want 2", n)
	}
}

func TestCountConcurrent_ExcludesCancelled(t *testing.T) {
	svc, _, _ := newTestService()

	a := mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord",
		Start: at(t, "2025-03-10T09:00:00Z"), End: at(t, "2025-03-10T09:30:00Z"),
	})
	if err := svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("CancelAppointment: %v", err)
	}

	n, err := svc.CountConcurrent(context.Background(), OccupancyFilter{},
		at(t, "2025-03-10T09:00:00Z"), at(t, "2025-03-10T09:30:00Z"))
	if err != nil {
		t.Fatalf("CountConcurrent: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0 after cancel", n)
	}
}

func TestCountDaily(t *testing.T) {
	svc, _, _ := newTestService()

	mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord",
		Start: at(t, "2025-03-10T09:00:00Z"), End: at(t, "2025-03-10T09:30:00Z"),
	})
	mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord",
		Start: at(t, "2025-03-10T14:00:00Z"), End: at(t, "2025-03-10T14:30:00Z"),
	})
	mustCreateAppointment(t, svc, &Appointment{
		AppointmentType: "consult", Practitioner: "dr-weber", Location: "nord",
		Start: at(t, "2025-03-11T09:00:00Z"), End: at(t, "2025-03-11T09:30:00Z"),
	})

	n, err := svc.CountDaily(context.Background(), OccupancyFilter{Practitioner: "dr-weber"}, at(t, "2025-03-10T00:00:00Z"))
	if err != nil {
		t.Fatalf("CountDaily: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
