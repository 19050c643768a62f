package repository

import (
	"context"
	"errors"

	"givehub/internal/domain"

	"gorm.io/gorm"
)

type PaymentVerificationRepository struct {
	db *gorm.DB
}

func NewPaymentVerificationRepository(db *gorm.DB) *PaymentVerificationRepository {
	return &PaymentVerificationRepository{db: db}
}

func (r *PaymentVerificationRepository) WithTx(tx *gorm.DB) *PaymentVerificationRepository {
	return &PaymentVerificationRepository{db: tx}
}

func (r *PaymentVerificationRepository) Create(ctx context.Context, v *domain.PaymentVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *PaymentVerificationRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.PaymentVerification, error) {
	var v domain.PaymentVerification
	if err := r.db.WithContext(ctx).Where("provider_payment_id = ?", paymentID).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
