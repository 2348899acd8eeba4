package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dealdesk/internal/models"
)

type PipelineRepository interface {
	Create(ctx context.Context, p *models.Pipeline) error
	GetByID(ctx context.Context, id string) (*models.Pipeline, error)
	List(ctx context.Context) ([]models.Pipeline, error)
	Update(ctx context.Context, p *models.Pipeline) error
	Delete(ctx context.Context, id string) error

	CreateStage(ctx context.Context, s *models.Stage) error
	GetStage(ctx context.Context, id string) (*models.Stage, error)
	ListStages(ctx context.Context, pipelineID string) ([]models.Stage, error)
	UpdateStage(ctx context.Context, s *models.Stage) error
	DeleteStage(ctx context.Context, id string) error
}

type pipelineRepository struct {
	db *sql.DB
}

func NewPipelineRepository(db *sql.DB) PipelineRepository {
	return &pipelineRepository{db: db}
}

func (r *pipelineRepository) Create(ctx context.Context, p *models.Pipeline) error {
	query := `INSERT INTO pipelines (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	return nil
}

func (r *pipelineRepository) GetByID(ctx context.Context, id string) (*models.Pipeline, error) {
	p := &models.Pipeline{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM pipelines WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pipeline %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline %s: %w", id, err)
	}
	return p, nil
}

func (r *pipelineRepository) List(ctx context.Context) ([]models.Pipeline, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM pipelines ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := []models.Pipeline{}
	for rows.Next() {
		var p models.Pipeline
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, rows.Err()
}

func (r *pipelineRepository) Update(ctx context.Context, p *models.Pipeline) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pipelines SET name = $1, updated_at = $2 WHERE id = $3`, p.Name, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update pipeline: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update pipeline %s: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

func (r *pipelineRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pipelines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pipeline: %w", err)
	}
	return nil
}

const stageColumns = `id, pipeline_id, name, order_index, created_at, updated_at`

func scanStage(row rowScanner) (*models.Stage, error) {
	s := &models.Stage{}
	if err := row.Scan(&s.ID, &s.PipelineID, &s.Name, &s.OrderIndex, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pipelineRepository) CreateStage(ctx context.Context, s *models.Stage) error {
	query := `INSERT INTO stages (` + stageColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.PipelineID, s.Name, s.OrderIndex, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create stage: %w", err)
	}
	return nil
}

func (r *pipelineRepository) GetStage(ctx context.Context, id string) (*models.Stage, error) {
	s, err := scanStage(r.db.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM stages WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get stage %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stage %s: %w", id, err)
	}
	return s, nil
}

func (r *pipelineRepository) ListStages(ctx context.Context, pipelineID string) ([]models.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE pipeline_id = $1 ORDER BY order_index, created_at`, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	stages := []models.Stage{}
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, *s)
	}
	return stages, rows.Err()
}

func (r *pipelineRepository) UpdateStage(ctx context.Context, s *models.Stage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stages SET name = $1, order_index = $2, updated_at = $3 WHERE id = $4`,
		s.Name, s.OrderIndex, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update stage %s: %w", s.ID, models.ErrNotFound)
	}
	return nil
}

func (r *pipelineRepository) DeleteStage(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	return nil
}
