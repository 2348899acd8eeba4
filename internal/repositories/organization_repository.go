package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dealdesk/internal/models"
)

type OrganizationRepository interface {
	Create(ctx context.Context, o *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	Search(ctx context.Context, q string, limit int) ([]models.Organization, error)
	Update(ctx context.Context, o *models.Organization) error
	Delete(ctx context.Context, id string) error
}

type organizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

const organizationColumns = `id, name, domain, industry, created_at, updated_at`

func scanOrganization(row rowScanner) (*models.Organization, error) {
	o := &models.Organization{}
	if err := row.Scan(&o.ID, &o.Name, &o.Domain, &o.Industry, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *organizationRepository) Create(ctx context.Context, o *models.Organization) error {
	query := `INSERT INTO organizations (` + organizationColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, o.ID, o.Name, o.Domain, o.Industry, o.CreatedAt, o.UpdatedAt); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	o, err := scanOrganization(r.db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get organization %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", id, err)
	}
	return o, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	return r.query(ctx, `SELECT `+organizationColumns+` FROM organizations ORDER BY name`)
}

func (r *organizationRepository) Search(ctx context.Context, q string, limit int) ([]models.Organization, error) {
	return r.query(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE LOWER(name) LIKE $1 ESCAPE '\' LIMIT $2`,
		likePattern(q), limit)
}

func (r *organizationRepository) query(ctx context.Context, query string, args ...any) ([]models.Organization, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []models.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, *o)
	}
	return orgs, rows.Err()
}

func (r *organizationRepository) Update(ctx context.Context, o *models.Organization) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET name = $1, domain = $2, industry = $3, updated_at = $4 WHERE id = $5`,
		o.Name, o.Domain, o.Industry, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update organization %s: %w", o.ID, models.ErrNotFound)
	}
	return nil
}

func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return nil
}
