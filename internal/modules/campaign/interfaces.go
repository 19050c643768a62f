package campaign

import (
	"context"

	"givehub/internal/domain"
)

type campaignRepo interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id int64) (*domain.Campaign, error)
	List(ctx context.Context, status domain.CampaignStatus, categoryID int64, limit, offset int) ([]domain.Campaign, int64, error)
	IncrementViews(ctx context.Context, id int64) error
}

type categoryRepo interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
}
