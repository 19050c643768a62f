package domain

import "time"

type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

// PaymentVerification is the secondary ledger: one row per externally verified
// payment id, independent of the donations table. The unique index here backs
// up the sparse unique index on donations.provider_payment_id.
type PaymentVerification struct {
	ID                int64              `gorm:"primaryKey" json:"id"`
	DonationID        int64              `gorm:"index;not null" json:"donation_id"`
	ProviderPaymentID string             `gorm:"type:varchar(64);uniqueIndex;not null" json:"provider_payment_id"`
	ProviderOrderID   string             `gorm:"type:varchar(64);not null" json:"provider_order_id"`
	Amount            int64              `gorm:"not null" json:"amount"`
	Currency          string             `gorm:"type:varchar(3);default:'INR'" json:"currency"`
	Status            VerificationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	VerifiedAt        time.Time          `json:"verified_at"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func (PaymentVerification) TableName() string { return "payment_verifications" }
