package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dealdesk/internal/models"
)

type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	Search(ctx context.Context, q string, limit int) ([]models.Contact, error)
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id string) error
}

type contactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

const contactColumns = `id, organization_id, first_name, last_name, email, phone, title, created_at, updated_at`

func scanContact(row rowScanner) (*models.Contact, error) {
	c := &models.Contact{}
	err := row.Scan(&c.ID, &c.OrganizationID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Title,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contactRepository) Create(ctx context.Context, c *models.Contact) error {
	query := `INSERT INTO contacts (` + contactColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OrganizationID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get contact %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get contact %s: %w", id, err)
	}
	return c, nil
}

func (r *contactRepository) List(ctx context.Context) ([]models.Contact, error) {
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY last_name, first_name`)
}

func (r *contactRepository) Search(ctx context.Context, q string, limit int) ([]models.Contact, error) {
	return r.query(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE LOWER(first_name) LIKE $1 ESCAPE '\' OR LOWER(last_name) LIKE $1 ESCAPE '\'
			OR LOWER(COALESCE(email, '')) LIKE $1 ESCAPE '\'
		LIMIT $2`, likePattern(q), limit)
}

func (r *contactRepository) query(ctx context.Context, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *contactRepository) Update(ctx context.Context, c *models.Contact) error {
	query := `
		UPDATE contacts
		SET organization_id = $1, first_name = $2, last_name = $3, email = $4, phone = $5, title = $6, updated_at = $7
		WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query, c.OrganizationID, c.FirstName, c.LastName, c.Email, c.Phone, c.Title,
		c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update contact %s: %w", c.ID, models.ErrNotFound)
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}
