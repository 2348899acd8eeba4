package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
)

const (
	DefaultDealLimit = 50
	MaxDealLimit     = 500
	defaultCurrency  = "EUR"
)

type DealService interface {
	Create(ctx context.Context, req models.CreateDealRequest) (*models.Deal, error)
	Get(ctx context.Context, id string) (*models.Deal, error)
	List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error)
	// Update, Move and BulkUpdate take the version the caller last saw;
	// nil skips the check.
	Update(ctx context.Context, id string, patch models.DealPatch, expectedVersion *int64) (*models.Deal, error)
	Move(ctx context.Context, id, stageID string, expectedVersion *int64) (*models.Deal, error)
	BulkUpdate(ctx context.Context, req models.BulkDealRequest) (*models.BulkDealResult, error)
	Delete(ctx context.Context, id string) error
}

type dealService struct {
	repo       repositories.DealRepository
	notifier   DealNotifier
	onConflict func()
	now        Clock
	logger     *zap.Logger
}

// NewDealService wires the deal rules. onConflict runs once per rejected
// stale write and may be nil.
func NewDealService(repo repositories.DealRepository, notifier DealNotifier, onConflict func(), now Clock, logger *zap.Logger) DealService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if onConflict == nil {
		onConflict = func() {}
	}
	return &dealService{repo: repo, notifier: notifier, onConflict: onConflict, now: now, logger: logger}
}

func (s *dealService) Create(ctx context.Context, req models.CreateDealRequest) (*models.Deal, error) {
	title := strings.TrimSpace(req.Title)
	stageID := strings.TrimSpace(req.StageID)
	ownerID := strings.TrimSpace(req.OwnerID)
	if title == "" || stageID == "" || ownerID == "" {
		return nil, models.Invalid("title, stage_id and owner_id are required")
	}
	status := req.Status
	if status == "" {
		status = models.DealOpen
	}
	if !status.Valid() {
		return nil, models.Invalid("status must be one of open, won, lost")
	}
	if !validDate(req.ExpectedCloseDate) {
		return nil, models.Invalid("expected_close_date must be YYYY-MM-DD")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.ValueCurrency))
	if currency == "" {
		currency = defaultCurrency
	}
	var amount float64
	if req.ValueAmount != nil {
		amount = *req.ValueAmount
	}

	now := s.now()
	deal := &models.Deal{
		ID:                newID(),
		Title:             title,
		ValueAmount:       amount,
		ValueCurrency:     currency,
		Status:            status,
		StageID:           stageID,
		OwnerID:           ownerID,
		OrganizationID:    req.OrganizationID,
		ContactID:         req.ContactID,
		ExpectedCloseDate: req.ExpectedCloseDate,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}
	if err := s.repo.Create(ctx, deal); err != nil {
		return nil, err
	}
	return deal, nil
}

func (s *dealService) Get(ctx context.Context, id string) (*models.Deal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *dealService) List(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	if filter.Status != "" && !models.DealStatus(filter.Status).Valid() {
		return nil, models.Invalid("status must be one of open, won, lost")
	}
	filter.Limit, filter.Offset = NormalizePage(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}

// NormalizePage applies the default and maximum page size to a deal listing.
func NormalizePage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultDealLimit
	case limit > MaxDealLimit:
		limit = MaxDealLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validatePatch(p models.DealPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return models.Invalid("title cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return models.Invalid("status must be one of open, won, lost")
	}
	if p.StageID != nil && strings.TrimSpace(*p.StageID) == "" {
		return models.Invalid("stage_id cannot be empty")
	}
	if p.OwnerID != nil && strings.TrimSpace(*p.OwnerID) == "" {
		return models.Invalid("owner_id cannot be empty")
	}
	if !validDate(p.ExpectedCloseDate) {
		return models.Invalid("expected_close_date must be YYYY-MM-DD")
	}
	return nil
}

func (s *dealService) Update(ctx context.Context, id string, patch models.DealPatch, expectedVersion *int64) (*models.Deal, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	patch.Title = trimPtr(patch.Title)
	if patch.ValueCurrency != nil {
		c := strings.ToUpper(strings.TrimSpace(*patch.ValueCurrency))
		patch.ValueCurrency = &c
	}

	// only a write that itself sets a closing status may notify
	closing := patch.Status != nil && patch.Status.Closed()
	var before models.DealStatus
	if closing {
		prev, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		before = prev.Status
	}
	deal, err := s.repo.Update(ctx, id, patch, expectedVersion, s.now())
	if err != nil {
		return nil, s.observe(err)
	}
	if closing && *patch.Status != before {
		s.notifyClosed(ctx, deal)
	}
	return deal, nil
}

func (s *dealService) Move(ctx context.Context, id, stageID string, expectedVersion *int64) (*models.Deal, error) {
	stageID = strings.TrimSpace(stageID)
	if stageID == "" {
		return nil, models.Invalid("stage_id is required")
	}
	deal, err := s.repo.Move(ctx, id, stageID, expectedVersion, s.now())
	if err != nil {
		return nil, s.observe(err)
	}
	return deal, nil
}

// BulkUpdate reports how many rows it changed next to how many ids were
// submitted; ids that match no deal are skipped.
func (s *dealService) BulkUpdate(ctx context.Context, req models.BulkDealRequest) (*models.BulkDealResult, error) {
	if len(req.IDs) == 0 {
		return nil, models.Invalid("ids must not be empty")
	}
	if req.Status == nil && req.StageID == nil {
		return nil, models.Invalid("status or stage_id is required")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, models.Invalid("status must be one of open, won, lost")
	}
	if req.StageID != nil && strings.TrimSpace(*req.StageID) == "" {
		return nil, models.Invalid("stage_id cannot be empty")
	}

	// duplicates would bump a version twice inside one batch
	seen := make(map[string]struct{}, len(req.IDs))
	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, models.Invalid("ids must not be empty")
	}

	n, err := s.repo.BulkUpdate(ctx, ids, req.Status, trimPtr(req.StageID), req.Versions, s.now())
	if err != nil {
		return nil, s.observe(err)
	}
	return &models.BulkDealResult{Updated: n, Submitted: len(req.IDs)}, nil
}

func (s *dealService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *dealService) observe(err error) error {
	if errors.Is(err, models.ErrConflict) {
		s.onConflict()
	}
	return err
}

func (s *dealService) notifyClosed(ctx context.Context, deal *models.Deal) {
	if err := s.notifier.DealClosed(ctx, deal); err != nil {
		s.logger.Warn("deal closed notification failed", zap.String("deal_id", deal.ID), zap.Error(err))
	}
}
