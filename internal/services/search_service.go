package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

const SearchLimit = 20

type SearchService interface {
	Search(ctx context.Context, q string) (*models.SearchResult, error)
}

type searchService struct {
	deals    repositories.DealRepository
	contacts repositories.ContactRepository
	orgs     repositories.OrganizationRepository
}

func NewSearchService(deals repositories.DealRepository, contacts repositories.ContactRepository, orgs repositories.OrganizationRepository) SearchService {
	return &searchService{deals: deals, contacts: contacts, orgs: orgs}
}

// Search runs the three family queries concurrently. The first failure
// cancels the others and is returned.
func (s *searchService) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, models.Invalid("q is required")
	}

	res := &models.SearchResult{
		Deals:         []models.Deal{},
		Contacts:      []models.Contact{},
		Organizations: []models.Organization{},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deals, err := s.deals.Search(gctx, q, SearchLimit)
		if err == nil && deals != nil {
			res.Deals = deals
		}
		return err
	})
	g.Go(func() error {
		contacts, err := s.contacts.Search(gctx, q, SearchLimit)
		if err == nil && contacts != nil {
			res.Contacts = contacts
		}
		return err
	})
	g.Go(func() error {
		orgs, err := s.orgs.Search(gctx, q, SearchLimit)
		if err == nil && orgs != nil {
			res.Organizations = orgs
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
