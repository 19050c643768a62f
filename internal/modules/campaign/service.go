package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"givehub/internal/domain"
	validation "givehub/internal/pkg/validator"

	"gorm.io/gorm"
)

// Service covers campaign reads and creation. Campaign aggregate totals are
// never written here; only donation settlement touches RaisedAmount and
// DonorCount.
type Service struct {
	campaigns  campaignRepo
	categories categoryRepo
}

func NewService(campaigns campaignRepo, categories categoryRepo) *Service {
	return &Service{campaigns: campaigns, categories: categories}
}

func (s *Service) Create(ctx context.Context, organizerID int64, req CreateCampaignRequest) (*domain.Campaign, error) {
	if !req.EndDate.After(time.Now().Add(24 * time.Hour)) {
		return nil, fmt.Errorf("%w: end date must be at least 1 day in the future", ErrValidation)
	}
	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("%w: unknown category", ErrValidation)
	}

	c := &domain.Campaign{
		Title:       req.Title,
		Description: req.Description,
		Organizer:   req.Organizer,
		OrganizerID: organizerID,
		CategoryID:  req.CategoryID,
		GoalAmount:  req.GoalAmount,
		CoverImage:  req.CoverImage,
		Status:      domain.CampaignPending,
		EndDate:     req.EndDate,
	}
	if fields := validation.Validate(c); fields != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, fields)
	}
	if err := s.campaigns.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, q ListCampaignsQuery) (*ListCampaignsResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 12
	}
	offset := (q.Page - 1) * q.Limit

	items, total, err := s.campaigns.List(ctx, domain.CampaignApproved, q.CategoryID, q.Limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListCampaignsResponse{
		Items:      items,
		Pagination: Pagination{Page: q.Page, Limit: q.Limit, Total: total},
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// View counting is best-effort.
	_ = s.campaigns.IncrementViews(ctx, id)
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}
