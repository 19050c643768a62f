package repository

import (
	"context"
	"errors"
	"time"

	"givehub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// WithTx rebinds the repository to a transaction session so settlement can
// run every read and write through one unit of work.
func (r *DonationRepository) WithTx(tx *gorm.DB) *DonationRepository {
	return &DonationRepository{db: tx}
}

func (r *DonationRepository) Create(ctx context.Context, d *domain.Donation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*domain.Donation, error) {
	var d domain.Donation
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DonationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Donation, error) {
	var d domain.Donation
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DonationRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Donation, error) {
	var d domain.Donation
	if err := r.db.WithContext(ctx).Where("provider_order_id = ?", orderID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// FindOtherByPaymentID returns a donation other than excludeID that holds
// paymentID, or nil when no such row exists. onlySuccess narrows the search
// to settled donations.
func (r *DonationRepository) FindOtherByPaymentID(ctx context.Context, paymentID string, excludeID int64, onlySuccess bool) (*domain.Donation, error) {
	q := r.db.WithContext(ctx).Where("provider_payment_id = ? AND id <> ?", paymentID, excludeID)
	if onlySuccess {
		q = q.Where("status = ?", domain.DonationSuccess)
	}
	var d domain.Donation
	if err := q.First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// MarkFailed demotes a pending donation to failed and reports whether the
// row moved. Success and failed are terminal states, so the write is guarded
// on status: when a concurrent settlement wins the race the update touches
// zero rows and the settled donation is left intact.
func (r *DonationRepository) MarkFailed(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("id = ? AND status = ?", id, domain.DonationPending).
		Update("status", domain.DonationFailed)
	return res.RowsAffected > 0, res.Error
}

// ReleasePaymentID clears the payment id from an abandoned pending/failed
// row so the current settlement can take it over without tripping the
// unique index. Success rows are never touched here.
func (r *DonationRepository) ReleasePaymentID(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("id = ? AND status <> ?", id, domain.DonationSuccess).
		Update("provider_payment_id", nil).Error
}

// SaveSettlement stamps the verified payment onto the donation. The sparse
// unique index on provider_payment_id is the final arbiter; duplicate-key
// errors surface to the caller for translation.
func (r *DonationRepository) SaveSettlement(ctx context.Context, d *domain.Donation) error {
	return r.db.WithContext(ctx).Model(&domain.Donation{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"status":              d.Status,
		"provider_payment_id": d.ProviderPaymentID,
		"provider_signature":  d.ProviderSignature,
		"certificate_number":  d.CertificateNumber,
	}).Error
}

func (r *DonationRepository) SetCertificate(ctx context.Context, id int64, number, url string, sent bool, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Donation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"certificate_number": number,
		"certificate_url":    url,
		"certificate_sent":   sent,
		"updated_at":         at,
	}).Error
}

func (r *DonationRepository) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]domain.Donation, error) {
	var out []domain.Donation
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND status = ?", campaignID, domain.DonationSuccess).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}
