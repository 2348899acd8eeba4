package services

import (
	"context"
	"strings"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

type PipelineService interface {
	Create(ctx context.Context, name string) (*models.Pipeline, error)
	Get(ctx context.Context, id string) (*models.Pipeline, error)
	List(ctx context.Context) ([]models.Pipeline, error)
	Update(ctx context.Context, id string, patch models.PipelinePatch) (*models.Pipeline, error)
	Delete(ctx context.Context, id string) error

	CreateStage(ctx context.Context, pipelineID string, req models.StageRequest) (*models.Stage, error)
	ListStages(ctx context.Context, pipelineID string) ([]models.Stage, error)
	GetStage(ctx context.Context, id string) (*models.Stage, error)
	UpdateStage(ctx context.Context, id string, req models.StageRequest) (*models.Stage, error)
	DeleteStage(ctx context.Context, id string) error
}

type pipelineService struct {
	repo repositories.PipelineRepository
	now  Clock
}

func NewPipelineService(repo repositories.PipelineRepository, now Clock) PipelineService {
	return &pipelineService{repo: repo, now: now}
}

func (s *pipelineService) Create(ctx context.Context, name string) (*models.Pipeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.Invalid("name is required")
	}
	now := s.now()
	p := &models.Pipeline{ID: newID(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *pipelineService) Get(ctx context.Context, id string) (*models.Pipeline, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *pipelineService) List(ctx context.Context) ([]models.Pipeline, error) {
	return s.repo.List(ctx)
}

func (s *pipelineService) Update(ctx context.Context, id string, patch models.PipelinePatch) (*models.Pipeline, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if p.Name = strings.TrimSpace(*patch.Name); p.Name == "" {
			return nil, models.Invalid("name cannot be empty")
		}
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the pipeline row only. Its stages and their deals stay.
func (s *pipelineService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// CreateStage appends the stage after the existing ones unless an order
// index is given.
func (s *pipelineService) CreateStage(ctx context.Context, pipelineID string, req models.StageRequest) (*models.Stage, error) {
	if _, err := s.repo.GetByID(ctx, pipelineID); err != nil {
		return nil, err
	}
	name := ""
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if name == "" {
		return nil, models.Invalid("name is required")
	}
	order := 0
	if req.OrderIndex != nil {
		order = *req.OrderIndex
	} else {
		existing, err := s.repo.ListStages(ctx, pipelineID)
		if err != nil {
			return nil, err
		}
		order = len(existing)
	}

	now := s.now()
	st := &models.Stage{ID: newID(), PipelineID: pipelineID, Name: name, OrderIndex: order, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.CreateStage(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *pipelineService) ListStages(ctx context.Context, pipelineID string) ([]models.Stage, error) {
	if _, err := s.repo.GetByID(ctx, pipelineID); err != nil {
		return nil, err
	}
	return s.repo.ListStages(ctx, pipelineID)
}

func (s *pipelineService) GetStage(ctx context.Context, id string) (*models.Stage, error) {
	return s.repo.GetStage(ctx, id)
}

func (s *pipelineService) UpdateStage(ctx context.Context, id string, req models.StageRequest) (*models.Stage, error) {
	st, err := s.repo.GetStage(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if st.Name = strings.TrimSpace(*req.Name); st.Name == "" {
			return nil, models.Invalid("name cannot be empty")
		}
	}
	if req.OrderIndex != nil {
		st.OrderIndex = *req.OrderIndex
	}
	st.UpdatedAt = s.now()
	if err := s.repo.UpdateStage(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *pipelineService) DeleteStage(ctx context.Context, id string) error {
	return s.repo.DeleteStage(ctx, id)
}
