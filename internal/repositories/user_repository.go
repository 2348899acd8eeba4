package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, userID, hash string, now time.Time) error

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(ctx context.Context, userID string) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, name, email, role, password_hash,
	refresh_token, refresh_expires_at, refresh_revoked,
	created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		rt  sql.NullString
		rte sql.NullTime
		rr  sql.NullBool
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash,
		&rt, &rte, &rr,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	u.RefreshRevoked = rr.Valid && rr.Bool
	return u, nil
}

func (r *userRepository) getOne(ctx context.Context, what, where string, arg any) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by %s: %w", what, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", what, err)
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (id, name, email, role, password_hash, refresh_revoked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, q,
		user.ID, user.Name, user.Email, user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id", "id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", "email = $1", email)
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "refresh token", "refresh_token = $1", token)
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	res := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users
		SET name=$1, email=$2, role=$3, password_hash=$4, updated_at=$5
		WHERE id=$6
	`
	res, err := r.DB.ExecContext(ctx, q,
		user.Name, user.Email, user.Role, user.PasswordHash, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update user %s: %w", user.ID, models.ErrNotFound)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var c int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&c); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return c, nil
}

// UpdatePassword also revokes any refresh token issued before the change.
func (r *userRepository) UpdatePassword(ctx context.Context, userID, hash string, now time.Time) error {
	const q = `
		UPDATE users
		SET password_hash=$1, updated_at=$2,
			refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$3
	`
	res, err := r.DB.ExecContext(ctx, q, hash, now, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update password %s: %w", userID, models.ErrNotFound)
	}
	return nil
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	if _, err := r.DB.ExecContext(ctx, q, token, expiresAt, userID); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// RotateRefresh swaps oldToken for newToken in one statement, so a refresh
// token can be redeemed at most once.
func (r *userRepository) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	q := `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE refresh_token=$3 AND refresh_revoked=FALSE
		RETURNING ` + userColumns
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, newToken, newExpiresAt, oldToken))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rotate refresh token: %w", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return u, nil
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`, userID)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
