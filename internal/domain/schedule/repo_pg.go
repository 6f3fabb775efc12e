package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// =========== BaseSchedule Repository ===========

type baseScheduleRepoPG struct{ pool *pgxpool.Pool }

func NewBaseScheduleRepoPG(pool *pgxpool.Pool) BaseScheduleRepository {
	return &baseScheduleRepoPG{pool: pool}
}

func (r *baseScheduleRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const baseScheduleCols = `id, practitioner, location, weekday, start_time, end_time, created_at, updated_at`

func scanBaseSchedule(row pgx.Row) (*BaseSchedule, error) {
	var b BaseSchedule
	err := row.Scan(&b.ID, &b.Practitioner, &b.Location, &b.Weekday, &b.StartTime, &b.EndTime, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *baseScheduleRepoPG) Create(ctx context.Context, b *BaseSchedule) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO base_schedule (id, practitioner, location, weekday, start_time, end_time)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.Practitioner, b.Location, b.Weekday, b.StartTime, b.EndTime)
	return err
}

func (r *baseScheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*BaseSchedule, error) {
	return scanBaseSchedule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+baseScheduleCols+` FROM base_schedule WHERE id = $1`, id))
}

func (r *baseScheduleRepoPG) Update(ctx context.Context, b *BaseSchedule) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE base_schedule SET practitioner=$2, location=$3, weekday=$4,
			start_time=$5, end_time=$6, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Practitioner, b.Location, b.Weekday, b.StartTime, b.EndTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *baseScheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM base_schedule WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *baseScheduleRepoPG) List(ctx context.Context, limit, offset int) ([]*BaseSchedule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM base_schedule`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+baseScheduleCols+` FROM base_schedule ORDER BY practitioner, weekday, start_time LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BaseSchedule
	for rows.Next() {
		b, err := scanBaseSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *baseScheduleRepoPG) ListByPractitioner(ctx context.Context, practitioner string, limit, offset int) ([]*BaseSchedule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM base_schedule WHERE practitioner = $1`, practitioner).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+baseScheduleCols+` FROM base_schedule WHERE practitioner = $1 ORDER BY weekday, start_time LIMIT $2 OFFSET $3`,
		practitioner, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BaseSchedule
	for rows.Next() {
		b, err := scanBaseSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const appointmentCols = `id, appointment_type, practitioner, location, patient_ref, start_time, end_time, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.AppointmentType, &a.Practitioner, &a.Location, &a.PatientRef,
		&a.Start, &a.End, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, appointment_type, practitioner, location, patient_ref, start_time, end_time, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.AppointmentType, a.Practitioner, a.Location, a.PatientRef, a.Start, a.End, a.Status)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET appointment_type=$2, practitioner=$3, location=$4,
			patient_ref=$5, start_time=$6, end_time=$7, status=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.AppointmentType, a.Practitioner, a.Location, a.PatientRef, a.Start, a.End, a.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appointmentCols+` FROM appointment ORDER BY start_time DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListByPractitioner(ctx context.Context, practitioner string, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE practitioner = $1`, practitioner).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE practitioner = $1 ORDER BY start_time DESC LIMIT $2 OFFSET $3`,
		practitioner, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// occupancyWhere renders the shared filter clauses for the count queries.
func occupancyWhere(f OccupancyFilter, args []interface{}) (string, []interface{}) {
	clause := ""
	if f.Practitioner != "" {
		args = append(args, f.Practitioner)
		clause += fmt.Sprintf(` AND practitioner = $%d`, len(args))
	}
	if f.Location != "" {
		args = append(args, f.Location)
		clause += fmt.Sprintf(` AND location = $%d`, len(args))
	}
	if len(f.Types) > 0 {
		args = append(args, f.Types)
		clause += fmt.Sprintf(` AND appointment_type = ANY($%d)`, len(args))
	}
	return clause, args
}

func (r *appointmentRepoPG) CountConcurrent(ctx context.Context, f OccupancyFilter, start, end time.Time) (int, error) {
	args := []interface{}{start, end}
	query := `SELECT COUNT(*) FROM appointment
		WHERE status = 'booked' AND start_time < $2 AND end_time > $1`
	clause, args := occupancyWhere(f, args)
	query += clause

	var n int
	err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *appointmentRepoPG) CountDaily(ctx context.Context, f OccupancyFilter, day time.Time) (int, error) {
	args := []interface{}{day}
	query := `SELECT COUNT(*) FROM appointment
		WHERE status = 'booked' AND start_time::date = $1::date`
	clause, args := occupancyWhere(f, args)
	query += clause

	var n int
	err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}
