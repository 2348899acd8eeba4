package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dealdesk/internal/models"
)

type NoteRepository interface {
	Create(ctx context.Context, n *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context, dealID string) ([]models.Note, error)
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id string) error
}

type noteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepository{db: db}
}

const noteColumns = `id, deal_id, author_id, content, created_at, updated_at`

func scanNote(row rowScanner) (*models.Note, error) {
	n := &models.Note{}
	if err := row.Scan(&n.ID, &n.DealID, &n.AuthorID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *noteRepository) Create(ctx context.Context, n *models.Note) error {
	query := `INSERT INTO notes (` + noteColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.DealID, n.AuthorID, n.Content, n.CreatedAt, n.UpdatedAt); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *noteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get note %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}

// List returns every note, or only those attached to dealID when it is set.
func (r *noteRepository) List(ctx context.Context, dealID string) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes`
	args := []any{}
	if dealID != "" {
		query += ` WHERE deal_id = $1`
		args = append(args, dealID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (r *noteRepository) Update(ctx context.Context, n *models.Note) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notes SET content = $1, updated_at = $2 WHERE id = $3`,
		n.Content, n.UpdatedAt, n.ID)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if c, _ := res.RowsAffected(); c == 0 {
		return fmt.Errorf("update note %s: %w", n.ID, models.ErrNotFound)
	}
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
