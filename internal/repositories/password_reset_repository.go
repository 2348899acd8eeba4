package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, pr *models.PasswordReset) error
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, pr *models.PasswordReset) error {
	const q = `
		INSERT INTO password_resets (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.DB.ExecContext(ctx, q, pr.ID, pr.UserID, pr.Token, pr.ExpiresAt, pr.CreatedAt); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	const q = `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1
	`
	pr := &models.PasswordReset{}
	var usedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, token).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get password reset: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get password reset: %w", err)
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return pr, nil
}

// MarkUsed only succeeds once per token.
func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE password_resets SET used_at = $1 WHERE id = $2 AND used_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark password reset used: %w", models.ErrConflict)
	}
	return nil
}
