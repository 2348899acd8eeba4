package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dealdesk/internal/models"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *models.Activity) error
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
	Update(ctx context.Context, a *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

const activityColumns = `id, deal_id, owner_id, type, subject, due_date, completed_at, created_at, updated_at`

func scanActivity(row rowScanner) (*models.Activity, error) {
	a := &models.Activity{}
	var completedAt sql.NullTime
	err := row.Scan(&a.ID, &a.DealID, &a.OwnerID, &a.Type, &a.Subject, &a.DueDate, &completedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}

func (r *activityRepository) Create(ctx context.Context, a *models.Activity) error {
	query := `INSERT INTO activities (` + activityColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.DealID, a.OwnerID, a.Type, a.Subject, a.DueDate, a.CompletedAt,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	a, err := scanActivity(r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get activity %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get activity %s: %w", id, err)
	}
	return a, nil
}

func (r *activityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities`
	conditions := []string{}
	args := []any{}
	if filter.DealID != "" {
		args = append(args, filter.DealID)
		conditions = append(conditions, fmt.Sprintf("deal_id = $%d", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (r *activityRepository) Update(ctx context.Context, a *models.Activity) error {
	query := `
		UPDATE activities
		SET deal_id = $1, owner_id = $2, type = $3, subject = $4, due_date = $5, completed_at = $6, updated_at = $7
		WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query, a.DealID, a.OwnerID, a.Type, a.Subject, a.DueDate, a.CompletedAt,
		a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update activity %s: %w", a.ID, models.ErrNotFound)
	}
	return nil
}

func (r *activityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
