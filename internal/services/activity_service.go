package services

import (
	"context"
	"strings"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

type ActivityService interface {
	Create(ctx context.Context, in models.ActivityPatch) (*models.Activity, error)
	Get(ctx context.Context, id string) (*models.Activity, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
	Update(ctx context.Context, id string, patch models.ActivityPatch) (*models.Activity, error)
	Delete(ctx context.Context, id string) error
}

type activityService struct {
	repo repositories.ActivityRepository
	now  Clock
}

func NewActivityService(repo repositories.ActivityRepository, now Clock) ActivityService {
	return &activityService{repo: repo, now: now}
}

func applyActivityPatch(a *models.Activity, p models.ActivityPatch) error {
	if p.DealID != nil {
		a.DealID = p.DealID
	}
	if p.OwnerID != nil {
		a.OwnerID = strings.TrimSpace(*p.OwnerID)
	}
	if p.Type != nil {
		a.Type = strings.TrimSpace(*p.Type)
	}
	if p.Subject != nil {
		a.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.DueDate != nil {
		if !validDate(p.DueDate) {
			return models.Invalid("due_date must be YYYY-MM-DD")
		}
		a.DueDate = p.DueDate
	}
	if p.CompletedAt != nil {
		t := p.CompletedAt.UTC()
		a.CompletedAt = &t
	}
	if a.OwnerID == "" || a.Type == "" || a.Subject == "" {
		return models.Invalid("owner_id, type and subject are required")
	}
	return nil
}

func (s *activityService) Create(ctx context.Context, in models.ActivityPatch) (*models.Activity, error) {
	a := &models.Activity{ID: newID()}
	if err := applyActivityPatch(a, in); err != nil {
		return nil, err
	}
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *activityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *activityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	return s.repo.List(ctx, filter)
}

func (s *activityService) Update(ctx context.Context, id string, patch models.ActivityPatch) (*models.Activity, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyActivityPatch(a, patch); err != nil {
		return nil, err
	}
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *activityService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

type NoteService interface {
	Create(ctx context.Context, in models.Note) (*models.Note, error)
	Get(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context, dealID string) ([]models.Note, error)
	Update(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, id string) error
}

type noteService struct {
	repo repositories.NoteRepository
	now  Clock
}

func NewNoteService(repo repositories.NoteRepository, now Clock) NoteService {
	return &noteService{repo: repo, now: now}
}

func (s *noteService) Create(ctx context.Context, in models.Note) (*models.Note, error) {
	n := &models.Note{
		ID:       newID(),
		DealID:   in.DealID,
		AuthorID: strings.TrimSpace(in.AuthorID),
		Content:  strings.TrimSpace(in.Content),
	}
	if n.AuthorID == "" || n.Content == "" {
		return nil, models.Invalid("author_id and content are required")
	}
	n.CreatedAt = s.now()
	n.UpdatedAt = n.CreatedAt
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *noteService) Get(ctx context.Context, id string) (*models.Note, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *noteService) List(ctx context.Context, dealID string) ([]models.Note, error) {
	return s.repo.List(ctx, dealID)
}

func (s *noteService) Update(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Content != nil {
		if n.Content = strings.TrimSpace(*patch.Content); n.Content == "" {
			return nil, models.Invalid("content cannot be empty")
		}
	}
	n.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *noteService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
