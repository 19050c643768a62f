package domain

import "time"

type DonationStatus string

const (
	DonationPending DonationStatus = "pending"
	DonationSuccess DonationStatus = "success"
	DonationFailed  DonationStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodUPI      PaymentMethod = "upi"
)

// Donation is one attempted contribution. Amount is stored in rupees (the
// platform display unit); the gateway reports paise. ProviderPaymentID is a
// pointer on purpose: the sparse unique index must never see an empty string
// for a pending donation, only absence.
type Donation struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	CampaignID int64  `gorm:"index;not null" json:"campaign_id" validate:"required"`
	DonorID    *int64 `gorm:"index" json:"donor_id,omitempty"`

	Amount        int64          `gorm:"not null" json:"amount" validate:"required,gt=0"`
	IsAnonymous   bool           `json:"is_anonymous"`
	PaymentMethod PaymentMethod  `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        DonationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	ProviderOrderID   string  `gorm:"type:varchar(64);index" json:"provider_order_id"`
	ProviderPaymentID *string `gorm:"type:varchar(64);uniqueIndex" json:"provider_payment_id,omitempty"`
	ProviderSignature string  `gorm:"type:varchar(128)" json:"-"`

	DonorName  string `gorm:"type:varchar(120);not null" json:"donor_name"`
	DonorEmail string `gorm:"type:varchar(254);not null;index" json:"donor_email"`
	DonorPhone string `gorm:"type:varchar(20)" json:"donor_phone,omitempty"`
	DonorPAN   string `gorm:"type:varchar(10)" json:"donor_pan,omitempty"`
	Message    string `gorm:"type:text" json:"message,omitempty"`

	CertificateNumber *string `gorm:"type:varchar(40);uniqueIndex" json:"certificate_number,omitempty"`
	CertificateURL    string  `gorm:"type:text" json:"certificate_url,omitempty"`
	CertificateSent   bool    `json:"certificate_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Campaign *Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
}

func (Donation) TableName() string { return "donations" }
