package ruleset

import (
	"context"
	"errors"
	"fmt"

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

// NewRepoPG creates the Postgres-backed rule-set repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) beginTx(ctx context.Context) (pgx.Tx, error) {
	if c := db.ConnFromContext(ctx); c != nil {
		return c.Begin(ctx)
	}
	return r.pool.Begin(ctx)
}

const ruleSetCols = `id, practice_id, description, version, parent_id, is_active, created_at, created_by`

func scanRuleSet(row pgx.Row) (*RuleSet, error) {
	var rs RuleSet
	err := row.Scan(&rs.ID, &rs.PracticeID, &rs.Description, &rs.Version,
		&rs.ParentID, &rs.IsActive, &rs.CreatedAt, &rs.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rs, nil
}

func (r *repoPG) Create(ctx context.Context, rs *RuleSet) error {
	if rs.ID == uuid.Nil {
		rs.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rule_set (id, practice_id, description, version, parent_id, is_active, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rs.ID, rs.PracticeID, rs.Description, rs.Version, rs.ParentID, rs.IsActive, rs.CreatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*RuleSet, error) {
	return scanRuleSet(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleSetCols+` FROM rule_set WHERE id = $1`, id))
}

func (r *repoPG) GetActive(ctx context.Context, practiceID string) (*RuleSet, error) {
	return scanRuleSet(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleSetCols+` FROM rule_set WHERE practice_id = $1 AND is_active`, practiceID))
}

func (r *repoPG) GetDraft(ctx context.Context, practiceID string) (*RuleSet, error) {
	return scanRuleSet(r.conn(ctx).QueryRow(ctx, `
		SELECT `+ruleSetCols+` FROM rule_set
		WHERE id = (SELECT draft_rule_set_id FROM practice_state WHERE practice_id = $1)`,
		practiceID))
}

func (r *repoPG) ListByPractice(ctx context.Context, practiceID string) ([]*RuleSet, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+ruleSetCols+` FROM rule_set
		WHERE practice_id = $1 ORDER BY version, created_at`, practiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RuleSet
	for rows.Next() {
		rs, err := scanRuleSet(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rs)
	}
	return items, rows.Err()
}

// membership tables copied on draft creation
var referenceTables = []string{
	"rule_set_rule",
	"rule_set_practitioner",
	"rule_set_location",
	"rule_set_schedule",
}

func (r *repoPG) CopyReferences(ctx context.Context, fromID, toID uuid.UUID) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, table := range referenceTables {
		ref := refColumn(table)
		_, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (rule_set_id, %s)
			SELECT $1, %s FROM %s WHERE rule_set_id = $2`, table, ref, ref, table),
			toID, fromID)
		if err != nil {
			return fmt.Errorf("copy %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}

func refColumn(table string) string {
	switch table {
	case "rule_set_rule":
		return "rule_id"
	case "rule_set_practitioner":
		return "practitioner_id"
	case "rule_set_location":
		return "location_id"
	default:
		return "schedule_id"
	}
}

func (r *repoPG) ClaimDraft(ctx context.Context, practiceID string, id uuid.UUID) (uuid.UUID, error) {
	// Idempotent upsert keyed on practice: the first claim sticks; a losing
	// caller reads back the winner's id.
	var winner uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO practice_state (practice_id, draft_rule_set_id)
		VALUES ($1, $2)
		ON CONFLICT (practice_id) DO UPDATE
		SET draft_rule_set_id = COALESCE(practice_state.draft_rule_set_id, EXCLUDED.draft_rule_set_id)
		RETURNING draft_rule_set_id`,
		practiceID, id).Scan(&winner)
	if err != nil {
		return uuid.Nil, err
	}
	return winner, nil
}

func (r *repoPG) ClearDraft(ctx context.Context, practiceID string, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE practice_state SET draft_rule_set_id = NULL
		WHERE practice_id = $1 AND draft_rule_set_id = $2`, practiceID, id)
	return err
}

func (r *repoPG) Activate(ctx context.Context, practiceID string, id uuid.UUID) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE rule_set SET is_active = FALSE WHERE practice_id = $1 AND is_active`, practiceID); err != nil {
		return fmt.Errorf("deactivate previous: %w", err)
	}
	tag, err := tx.Exec(ctx,
		`UPDATE rule_set SET is_active = TRUE WHERE id = $1 AND practice_id = $2`, id, practiceID)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO practice_state (practice_id, active_rule_set_id)
		VALUES ($1, $2)
		ON CONFLICT (practice_id) DO UPDATE SET active_rule_set_id = EXCLUDED.active_rule_set_id`,
		practiceID, id); err != nil {
		return fmt.Errorf("record active pointer: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *repoPG) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE rule_set SET description = $2 WHERE id = $1`, id, description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM rule_set WHERE id = $1`, id)
	return err
}
