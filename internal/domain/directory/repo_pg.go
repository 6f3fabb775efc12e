package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terminplan/terminplan/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Practitioner Repository ===========

type practitionerRepoPG struct{ pool *pgxpool.Pool }

func NewPractitionerRepoPG(pool *pgxpool.Pool) PractitionerRepository {
	return &practitionerRepoPG{pool: pool}
}

func (r *practitionerRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const practitionerCols = `id, code, name, specialty, active, created_at, updated_at`

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Specialty, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *practitionerRepoPG) Create(ctx context.Context, p *Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO practitioner (id, code, name, specialty, active)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Code, p.Name, p.Specialty, p.Active)
	return err
}

func (r *practitionerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioner WHERE id = $1`, id))
}

func (r *practitionerRepoPG) GetByCode(ctx context.Context, code string) (*Practitioner, error) {
	return scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioner WHERE code = $1`, code))
}

func (r *practitionerRepoPG) Update(ctx context.Context, p *Practitioner) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE practitioner SET name=$2, specialty=$3, active=$4, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Specialty, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *practitionerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM practitioner WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *practitionerRepoPG) List(ctx context.Context, limit, offset int) ([]*Practitioner, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM practitioner`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+practitionerCols+` FROM practitioner ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Location Repository ===========

type locationRepoPG struct{ pool *pgxpool.Pool }

func NewLocationRepoPG(pool *pgxpool.Pool) LocationRepository {
	return &locationRepoPG{pool: pool}
}

func (r *locationRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const locationCols = `id, code, name, address, active, created_at, updated_at`

func scanLocation(row pgx.Row) (*Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.Address, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepoPG) Create(ctx context.Context, l *Location) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO location (id, code, name, address, active)
		VALUES ($1,$2,$3,$4,$5)`,
		l.ID, l.Code, l.Name, l.Address, l.Active)
	return err
}

func (r *locationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Location, error) {
	return scanLocation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+locationCols+` FROM location WHERE id = $1`, id))
}

func (r *locationRepoPG) GetByCode(ctx context.Context, code string) (*Location, error) {
	return scanLocation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+locationCols+` FROM location WHERE code = $1`, code))
}

func (r *locationRepoPG) Update(ctx context.Context, l *Location) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE location SET name=$2, address=$3, active=$4, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.Name, l.Address, l.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *locationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM location WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *locationRepoPG) List(ctx context.Context, limit, offset int) ([]*Location, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM location`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+locationCols+` FROM location ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}

// =========== AppointmentType Repository ===========

type appointmentTypeRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentTypeRepoPG(pool *pgxpool.Pool) AppointmentTypeRepository {
	return &appointmentTypeRepoPG{pool: pool}
}

func (r *appointmentTypeRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptTypeCols = `id, code, name, duration_minutes, active, created_at, updated_at`

func scanAppointmentType(row pgx.Row) (*AppointmentType, error) {
	var at AppointmentType
	err := row.Scan(&at.ID, &at.Code, &at.Name, &at.DurationMinutes, &at.Active, &at.CreatedAt, &at.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *appointmentTypeRepoPG) Create(ctx context.Context, at *AppointmentType) error {
	if at.ID == uuid.Nil {
		at.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_type (id, code, name, duration_minutes, active)
		VALUES ($1,$2,$3,$4,$5)`,
		at.ID, at.Code, at.Name, at.DurationMinutes, at.Active)
	return err
}

func (r *appointmentTypeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	return scanAppointmentType(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptTypeCols+` FROM appointment_type WHERE id = $1`, id))
}

func (r *appointmentTypeRepoPG) GetByCode(ctx context.Context, code string) (*AppointmentType, error) {
	return scanAppointmentType(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptTypeCols+` FROM appointment_type WHERE code = $1`, code))
}

func (r *appointmentTypeRepoPG) Update(ctx context.Context, at *AppointmentType) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_type SET name=$2, duration_minutes=$3, active=$4, updated_at=NOW()
		WHERE id = $1`,
		at.ID, at.Name, at.DurationMinutes, at.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentTypeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment_type WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentTypeRepoPG) List(ctx context.Context, limit, offset int) ([]*AppointmentType, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment_type`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptTypeCols+` FROM appointment_type ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*AppointmentType
	for rows.Next() {
		at, err := scanAppointmentType(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, at)
	}
	return items, total, rows.Err()
}
