package rules

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

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres-backed rule repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const ruleCols = `id, name, description, rule_type, condition, priority, enabled, created_at, updated_at`

func scanRule(row pgx.Row) (*Rule, error) {
	var ru Rule
	var cond []byte
	err := row.Scan(&ru.ID, &ru.Name, &ru.Description, &ru.Type, &cond,
		&ru.Priority, &ru.Enabled, &ru.CreatedAt, &ru.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(cond) > 0 {
		ru.Condition, err = UnmarshalCondition(cond)
		if err != nil {
			return nil, err
		}
	}
	return &ru, nil
}

func (r *repoPG) Create(ctx context.Context, ru *Rule) error {
	if ru.ID == uuid.Nil {
		ru.ID = uuid.New()
	}
	cond, err := MarshalCondition(ru.Condition)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO rule (id, name, description, rule_type, condition, priority, enabled)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ru.ID, ru.Name, ru.Description, ru.Type, cond, ru.Priority, ru.Enabled)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return scanRule(r.conn(ctx).QueryRow(ctx, `SELECT `+ruleCols+` FROM rule WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, ru *Rule) error {
	cond, err := MarshalCondition(ru.Condition)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE rule SET name=$2, description=$3, rule_type=$4, condition=$5,
			priority=$6, enabled=$7, updated_at=NOW()
		WHERE id = $1`,
		ru.ID, ru.Name, ru.Description, ru.Type, cond, ru.Priority, ru.Enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM rule WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByRuleSet(ctx context.Context, ruleSetID uuid.UUID) ([]*Rule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+ruleCols+` FROM rule
		JOIN rule_set_rule rsr ON rsr.rule_id = rule.id
		WHERE rsr.rule_set_id = $1
		ORDER BY rule.priority, rule.id`, ruleSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Rule
	for rows.Next() {
		ru, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ru)
	}
	return items, rows.Err()
}

func (r *repoPG) CountReferences(ctx context.Context, ruleID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM rule_set_rule WHERE rule_id = $1`, ruleID).Scan(&n)
	return n, err
}

func (r *repoPG) Attach(ctx context.Context, ruleSetID, ruleID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rule_set_rule (rule_set_id, rule_id) VALUES ($1,$2)
		ON CONFLICT DO NOTHING`, ruleSetID, ruleID)
	return err
}

func (r *repoPG) Detach(ctx context.Context, ruleSetID, ruleID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM rule_set_rule WHERE rule_set_id = $1 AND rule_id = $2`, ruleSetID, ruleID)
	return err
}

func (r *repoPG) Replace(ctx context.Context, ruleSetID, oldRuleID, newRuleID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE rule_set_rule SET rule_id = $3
		WHERE rule_set_id = $1 AND rule_id = $2`, ruleSetID, oldRuleID, newRuleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
