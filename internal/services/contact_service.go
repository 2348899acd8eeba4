package services

import (
	"context"
	"strings"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

type ContactService interface {
	Create(ctx context.Context, in models.ContactPatch) (*models.Contact, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	Update(ctx context.Context, id string, patch models.ContactPatch) (*models.Contact, error)
	Delete(ctx context.Context, id string) error
}

type contactService struct {
	repo repositories.ContactRepository
	now  Clock
}

func NewContactService(repo repositories.ContactRepository, now Clock) ContactService {
	return &contactService{repo: repo, now: now}
}

func applyContactPatch(c *models.Contact, p models.ContactPatch) error {
	if p.OrganizationID != nil {
		c.OrganizationID = p.OrganizationID
	}
	if p.FirstName != nil {
		c.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		c.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Email != nil {
		c.Email = trimPtr(p.Email)
	}
	if p.Phone != nil {
		c.Phone = trimPtr(p.Phone)
	}
	if p.Title != nil {
		c.Title = trimPtr(p.Title)
	}
	if c.FirstName == "" || c.LastName == "" {
		return models.Invalid("first_name and last_name are required")
	}
	return nil
}

func (s *contactService) Create(ctx context.Context, in models.ContactPatch) (*models.Contact, error) {
	c := &models.Contact{ID: newID()}
	if err := applyContactPatch(c, in); err != nil {
		return nil, err
	}
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *contactService) List(ctx context.Context) ([]models.Contact, error) {
	return s.repo.List(ctx)
}

func (s *contactService) Update(ctx context.Context, id string, patch models.ContactPatch) (*models.Contact, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyContactPatch(c, patch); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

type OrganizationService interface {
	Create(ctx context.Context, in models.OrganizationPatch) (*models.Organization, error)
	Get(ctx context.Context, id string) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	Update(ctx context.Context, id string, patch models.OrganizationPatch) (*models.Organization, error)
	Delete(ctx context.Context, id string) error
}

type organizationService struct {
	repo repositories.OrganizationRepository
	now  Clock
}

func NewOrganizationService(repo repositories.OrganizationRepository, now Clock) OrganizationService {
	return &organizationService{repo: repo, now: now}
}

func applyOrganizationPatch(o *models.Organization, p models.OrganizationPatch) error {
	if p.Name != nil {
		o.Name = strings.TrimSpace(*p.Name)
	}
	if p.Domain != nil {
		o.Domain = trimPtr(p.Domain)
	}
	if p.Industry != nil {
		o.Industry = trimPtr(p.Industry)
	}
	if o.Name == "" {
		return models.Invalid("name is required")
	}
	return nil
}

func (s *organizationService) Create(ctx context.Context, in models.OrganizationPatch) (*models.Organization, error) {
	o := &models.Organization{ID: newID()}
	if err := applyOrganizationPatch(o, in); err != nil {
		return nil, err
	}
	o.CreatedAt = s.now()
	o.UpdatedAt = o.CreatedAt
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *organizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *organizationService) List(ctx context.Context) ([]models.Organization, error) {
	return s.repo.List(ctx)
}

func (s *organizationService) Update(ctx context.Context, id string, patch models.OrganizationPatch) (*models.Organization, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyOrganizationPatch(o, patch); err != nil {
		return nil, err
	}
	o.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete leaves contacts and deals that reference the organization as they are.
func (s *organizationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
