package repository

import (
	"context"

	"givehub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) WithTx(tx *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: tx}
}

func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*domain.Campaign, error) {
	var c domain.Campaign
	if err := r.db.WithContext(ctx).Preload("Category").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Campaign, error) {
	var c domain.Campaign
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context, status domain.CampaignStatus, categoryID int64, limit, offset int) ([]domain.Campaign, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Campaign{}).Where("status = ?", status)
	if categoryID > 0 {
		q = q.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Campaign
	err := q.Preload("Category").Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// IncrementTotals applies a settled donation to the campaign aggregates as a
// single relative UPDATE, so concurrent settlements never lose increments.
func (r *CampaignRepository) IncrementTotals(ctx context.Context, id int64, amount int64) error {
	res := r.db.WithContext(ctx).Model(&domain.Campaign{}).Where("id = ?", id).Updates(map[string]interface{}{
		"raised_amount": gorm.Expr("raised_amount + ?", amount),
		"donor_count":   gorm.Expr("donor_count + ?", 1),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CampaignRepository) IncrementViews(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&domain.Campaign{}).Where("id = ?", id).
		Update("views", gorm.Expr("views + 1")).Error
}
