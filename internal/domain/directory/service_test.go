package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// -- in-memory mocks --

type mockPractitionerRepo struct {
	items map[uuid.UUID]*Practitioner
}

func newMockPractitionerRepo() *mockPractitionerRepo {
	return &mockPractitionerRepo{items: make(map[uuid.UUID]*Practitioner)}
}

func (m *mockPractitionerRepo) Create(_ context.Context, p *Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockPractitionerRepo) GetByID(_ context.Context, id uuid.UUID) (*Practitioner, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPractitionerRepo) GetByCode(_ context.Context, code string) (*Practitioner, error) {
	for _, p := range m.items {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPractitionerRepo) Update(_ context.Context, p *Practitioner) error {
	if _, ok := m.items[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockPractitionerRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockPractitionerRepo) List(_ context.Context, limit, offset int) ([]*Practitioner, int, error) {
	var out []*Practitioner
	for _, p := range m.items {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(m.items), nil
}

type mockLocationRepo struct {
	items map[uuid.UUID]*Location
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{items: make(map[uuid.UUID]*Location)}
}

func (m *mockLocationRepo) Create(_ context.Context, l *Location) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	m.items[l.ID] = &cp
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id uuid.UUID) (*Location, error) {
	l, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockLocationRepo) GetByCode(_ context.Context, code string) (*Location, error) {
	for _, l := range m.items {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockLocationRepo) Update(_ context.Context, l *Location) error {
	if _, ok := m.items[l.ID]; !ok {
		return ErrNotFound
	}
	cp := *l
	m.items[l.ID] = &cp
	return nil
}

func (m *mockLocationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockLocationRepo) List(_ context.Context, limit, offset int) ([]*Location, int, error) {
	var out []*Location
	for _, l := range m.items {
		cp := *l
		out = append(out, &cp)
	}
	return out, len(m.items), nil
}

type mockAppointmentTypeRepo struct {
	items map[uuid.UUID]*AppointmentType
}

func newMockAppointmentTypeRepo() *mockAppointmentTypeRepo {
	return &mockAppointmentTypeRepo{items: make(map[uuid.UUID]*AppointmentType)}
}

func (m *mockAppointmentTypeRepo) Create(_ context.Context, at *AppointmentType) error {
	if at.ID == uuid.Nil {
		at.ID = uuid.New()
	}
	cp := *at
	m.items[at.ID] = &cp
	return nil
}

func (m *mockAppointmentTypeRepo) GetByID(_ context.Context, id uuid.UUID) (*AppointmentType, error) {
	at, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *at
	return &cp, nil
}

func (m *mockAppointmentTypeRepo) GetByCode(_ context.Context, code string) (*AppointmentType, error) {
	for _, at := range m.items {
		if at.Code == code {
			cp := *at
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockAppointmentTypeRepo) Update(_ context.Context, at *AppointmentType) error {
	if _, ok := m.items[at.ID]; !ok {
		return ErrNotFound
	}
	cp := *at
	m.items[at.ID] = &cp
	return nil
}

func (m *mockAppointmentTypeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockAppointmentTypeRepo) List(_ context.Context, limit, offset int) ([]*AppointmentType, int, error) {
	var out []*AppointmentType
	for _, at := range m.items {
		cp := *at
		out = append(out, &cp)
	}
	return out, len(m.items), nil
}

func newTestService() *Service {
	return NewService(newMockPractitionerRepo(), newMockLocationRepo(), newMockAppointmentTypeRepo())
}

// -- tests --

func TestCreatePractitioner_Valid(t *testing.T) {
	svc := newTestService()

	p := &Practitioner{Code: "dr-weber", Name: "Dr. Weber", Active: true}
	if err := svc.CreatePractitioner(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected an assigned id")
	}

	got, err := svc.GetPractitionerByCode(context.Background(), "dr-weber")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Dr. Weber" {
		t.Errorf("unexpected name %q", got.Name)
	}
}

func TestCreatePractitioner_RejectsBadCode(t *testing.T) {
	svc := newTestService()

	cases := []string{"", "Dr Weber", "UPPER", "-leading", "umlaut-ü"}
	for _, code := range cases {
		err := svc.CreatePractitioner(context.Background(), &Practitioner{Code: code, Name: "X"})
		if err == nil {
			t.Errorf("expected error for code %q", code)
		}
	}
}

func TestCreatePractitioner_RequiresName(t *testing.T) {
	svc := newTestService()
	err := svc.CreatePractitioner(context.Background(), &Practitioner{Code: "dr-weber"})
	if err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestGetPractitioner_NotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetPractitioner(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateLocation_Valid(t *testing.T) {
	svc := newTestService()

	addr := "Hauptstr. 1"
	l := &Location{Code: "nord", Name: "Praxis Nord", Address: &addr, Active: true}
	if err := svc.CreateLocation(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetLocationByCode(context.Background(), "nord")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Address == nil || *got.Address != addr {
		t.Errorf("expected address to round-trip")
	}
}

func TestCreateAppointmentType_RequiresPositiveDuration(t *testing.T) {
	svc := newTestService()

	at := &AppointmentType{Code: "consult", Name: "Erstberatung", DurationMinutes: 0}
	if err := svc.CreateAppointmentType(context.Background(), at); err == nil {
		t.Fatal("expected error for zero duration")
	}

	at.DurationMinutes = 30
	if err := svc.CreateAppointmentType(context.Background(), at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateAppointmentType_NotFound(t *testing.T) {
	svc := newTestService()
	at := &AppointmentType{ID: uuid.New(), Code: "consult", Name: "Erstberatung", DurationMinutes: 30}
	if err := svc.UpdateAppointmentType(context.Background(), at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteLocation_Twice(t *testing.T) {
	svc := newTestService()

	l := &Location{Code: "sued", Name: "Praxis Süd", Active: true}
	if err := svc.CreateLocation(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteLocation(context.Background(), l.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteLocation(context.Background(), l.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
