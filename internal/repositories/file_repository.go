package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dealdesk/internal/models"
)

type FileRepository interface {
	Create(ctx context.Context, f *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context, dealID string) ([]models.File, error)
	Delete(ctx context.Context, id string) error
}

type fileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) FileRepository {
	return &fileRepository{db: db}
}

const fileColumns = `id, deal_id, uploader_id, filename, mime_type, size_bytes, storage_path, created_at`

func scanFile(row rowScanner) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.DealID, &f.UploaderID, &f.Filename, &f.MimeType, &f.SizeBytes, &f.StoragePath, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *fileRepository) Create(ctx context.Context, f *models.File) error {
	query := `INSERT INTO files (` + fileColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.DealID, f.UploaderID, f.Filename, f.MimeType, f.SizeBytes,
		f.StoragePath, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get file %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return f, nil
}

func (r *fileRepository) List(ctx context.Context, dealID string) ([]models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files`
	args := []any{}
	if dealID != "" {
		query += ` WHERE deal_id = $1`
		args = append(args, dealID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
