package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
	"dealdesk/internal/utils"
)

// WebhookService manages webhook subscriptions. Nothing is dispatched to
// them; they are stored for an external delivery worker.
type WebhookService interface {
	Create(ctx context.Context, req models.CreateWebhookRequest) (*models.Webhook, error)
	Get(ctx context.Context, id string) (*models.Webhook, error)
	List(ctx context.Context) ([]models.Webhook, error)
	Update(ctx context.Context, id string, patch models.WebhookPatch) (*models.Webhook, error)
	Delete(ctx context.Context, id string) error
}

type webhookService struct {
	repo repositories.WebhookRepository
	now  Clock
}

func NewWebhookService(repo repositories.WebhookRepository, now Clock) WebhookService {
	return &webhookService{repo: repo, now: now}
}

func validWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return models.Invalid("url must be an absolute http(s) URL")
	}
	return nil
}

func cleanEvents(events []string) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (s *webhookService) Create(ctx context.Context, req models.CreateWebhookRequest) (*models.Webhook, error) {
	rawURL := strings.TrimSpace(req.URL)
	if err := validWebhookURL(rawURL); err != nil {
		return nil, err
	}
	secret := strings.TrimSpace(req.Secret)
	if secret == "" {
		var err error
		if secret, err = utils.NewToken(16); err != nil {
			return nil, fmt.Errorf("webhook secret: %w", err)
		}
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.now()
	w := &models.Webhook{
		ID:        newID(),
		URL:       rawURL,
		Events:    cleanEvents(req.Events),
		Secret:    secret,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *webhookService) Get(ctx context.Context, id string) (*models.Webhook, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *webhookService) List(ctx context.Context) ([]models.Webhook, error) {
	return s.repo.List(ctx)
}

func (s *webhookService) Update(ctx context.Context, id string, patch models.WebhookPatch) (*models.Webhook, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.URL != nil {
		u := strings.TrimSpace(*patch.URL)
		if err := validWebhookURL(u); err != nil {
			return nil, err
		}
		w.URL = u
	}
	if patch.Events != nil {
		w.Events = cleanEvents(patch.Events)
	}
	if patch.Secret != nil {
		if w.Secret = strings.TrimSpace(*patch.Secret); w.Secret == "" {
			return nil, models.Invalid("secret cannot be empty")
		}
	}
	if patch.Active != nil {
		w.Active = *patch.Active
	}
	w.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *webhookService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
