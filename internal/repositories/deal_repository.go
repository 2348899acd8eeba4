package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealdesk/internal/models"
)

type DealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error)
	Search(ctx context.Context, q string, limit int) ([]models.Deal, error)
	Update(ctx context.Context, id string, patch models.DealPatch, expectedVersion *int64, now time.Time) (*models.Deal, error)
	Move(ctx context.Context, id, stageID string, expectedVersion *int64, now time.Time) (*models.Deal, error)
	BulkUpdate(ctx context.Context, ids []string, status *models.DealStatus, stageID *string, expected map[string]int64, now time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

type dealRepository struct {
	db *sql.DB
}

func NewDealRepository(db *sql.DB) DealRepository {
	return &dealRepository{db: db}
}

const dealColumns = `id, title, value_amount, value_currency, status, stage_id, owner_id,
	organization_id, contact_id, expected_close_date, created_at, updated_at, version`

func scanDeal(row rowScanner) (*models.Deal, error) {
	d := &models.Deal{}
	err := row.Scan(
		&d.ID, &d.Title, &d.ValueAmount, &d.ValueCurrency, &d.Status, &d.StageID, &d.OwnerID,
		&d.OrganizationID, &d.ContactID, &d.ExpectedCloseDate, &d.CreatedAt, &d.UpdatedAt, &d.Version,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *dealRepository) Create(ctx context.Context, deal *models.Deal) error {
	query := `
		INSERT INTO deals (` + dealColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query,
		deal.ID, deal.Title, deal.ValueAmount, deal.ValueCurrency, deal.Status, deal.StageID, deal.OwnerID,
		deal.OrganizationID, deal.ContactID, deal.ExpectedCloseDate, deal.CreatedAt, deal.UpdatedAt, deal.Version,
	)
	if err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

func (r *dealRepository) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	return r.getByID(ctx, r.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *dealRepository) getByID(ctx context.Context, q queryer, id string) (*models.Deal, error) {
	deal, err := scanDeal(q.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get deal %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get deal %s: %w", id, err)
	}
	return deal, nil
}

func (r *dealRepository) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals`
	conditions := []string{}
	args := []any{}
	argID := 1

	if filter.StageID != "" {
		conditions = append(conditions, fmt.Sprintf("stage_id = $%d", argID))
		args = append(args, filter.StageID)
		argID++
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argID))
		args = append(args, filter.OwnerID)
		argID++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, filter.Status)
		argID++
	}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf(`LOWER(title) LIKE $%d ESCAPE '\'`, argID))
		args = append(args, likePattern(filter.Query))
		argID++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, filter.Limit, filter.Offset)

	return r.query(ctx, query, args...)
}

func (r *dealRepository) Search(ctx context.Context, q string, limit int) ([]models.Deal, error) {
	return r.query(ctx, `SELECT `+dealColumns+` FROM deals WHERE LOWER(title) LIKE $1 ESCAPE '\' LIMIT $2`,
		likePattern(q), limit)
}

func (r *dealRepository) query(ctx context.Context, query string, args ...any) ([]models.Deal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}

// Update applies patch in one statement. Columns whose patch value is nil
// keep their stored value. With expectedVersion set the row is only touched
// if its version still matches.
func (r *dealRepository) Update(ctx context.Context, id string, patch models.DealPatch, expectedVersion *int64, now time.Time) (*models.Deal, error) {
	query := `
		UPDATE deals SET
			title = COALESCE($1, title),
			value_amount = COALESCE($2, value_amount),
			value_currency = COALESCE($3, value_currency),
			status = COALESCE($4, status),
			stage_id = COALESCE($5, stage_id),
			owner_id = COALESCE($6, owner_id),
			organization_id = COALESCE($7, organization_id),
			contact_id = COALESCE($8, contact_id),
			expected_close_date = COALESCE($9, expected_close_date),
			updated_at = $10,
			version = version + 1
		WHERE id = $11`
	args := []any{
		patch.Title, patch.ValueAmount, patch.ValueCurrency, patch.Status, patch.StageID,
		patch.OwnerID, patch.OrganizationID, patch.ContactID, patch.ExpectedCloseDate,
		now, id,
	}
	if expectedVersion != nil {
		query += ` AND version = $12`
		args = append(args, *expectedVersion)
	}
	query += ` RETURNING ` + dealColumns

	return r.guardedWrite(ctx, "update", id, query, args...)
}

func (r *dealRepository) Move(ctx context.Context, id, stageID string, expectedVersion *int64, now time.Time) (*models.Deal, error) {
	query := `UPDATE deals SET stage_id = $1, updated_at = $2, version = version + 1 WHERE id = $3`
	args := []any{stageID, now, id}
	if expectedVersion != nil {
		query += ` AND version = $4`
		args = append(args, *expectedVersion)
	}
	query += ` RETURNING ` + dealColumns

	return r.guardedWrite(ctx, "move", id, query, args...)
}

// guardedWrite runs an UPDATE ... RETURNING. No returned row means the deal is
// either gone or its version moved on; a follow-up lookup tells which.
func (r *dealRepository) guardedWrite(ctx context.Context, op, id, query string, args ...any) (*models.Deal, error) {
	deal, err := scanDeal(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return deal, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s deal %s: %w", op, id, err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("%s deal: %w", op, err)
	}
	return nil, fmt.Errorf("%s deal %s: %w", op, id, models.ErrConflict)
}

// BulkUpdate sets status and/or stage on every listed deal and returns the
// number of rows it changed. Without expectations this is a single
// statement. With expectations every guarded row is checked inside one
// transaction and a single stale version aborts the whole batch.
func (r *dealRepository) BulkUpdate(ctx context.Context, ids []string, status *models.DealStatus, stageID *string, expected map[string]int64, now time.Time) (int64, error) {
	const set = `UPDATE deals SET status = COALESCE($1, status), stage_id = COALESCE($2, stage_id),
		updated_at = $3, version = version + 1`

	if len(expected) == 0 {
		args := []any{status, stageID, now}
		for _, id := range ids {
			args = append(args, id)
		}
		res, err := r.db.ExecContext(ctx, set+` WHERE id IN (`+placeholders(4, len(ids))+`)`, args...)
		if err != nil {
			return 0, fmt.Errorf("bulk update deals: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("bulk update rows affected: %w", err)
		}
		return n, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("bulk update begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, id := range ids {
		var (
			res sql.Result
			err error
		)
		if v, ok := expected[id]; ok {
			res, err = tx.ExecContext(ctx, set+` WHERE id = $4 AND version = $5`, status, stageID, now, id, v)
		} else {
			res, err = tx.ExecContext(ctx, set+` WHERE id = $4`, status, stageID, now, id)
		}
		if err != nil {
			return 0, fmt.Errorf("bulk update deal %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("bulk update rows affected: %w", err)
		}
		if n == 0 {
			if _, guarded := expected[id]; guarded {
				_, err := r.getByID(ctx, tx, id)
				switch {
				case err == nil:
					return 0, fmt.Errorf("bulk update deal %s: %w", id, models.ErrConflict)
				case !errors.Is(err, models.ErrNotFound):
					return 0, err
				}
			}
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bulk update commit: %w", err)
	}
	return total, nil
}

// Delete removes the row. Notes, activities and files pointing at the deal
// are left untouched.
func (r *dealRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete deal %s: %w", id, err)
	}
	return nil
}
