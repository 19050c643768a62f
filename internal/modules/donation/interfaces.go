package donation

import (
	"context"

	"givehub/internal/domain"
)

type donationRepo interface {
	Create(ctx context.Context, d *domain.Donation) error
	GetByID(ctx context.Context, id int64) (*domain.Donation, error)
	GetByOrderID(ctx context.Context, orderID string) (*domain.Donation, error)
	FindOtherByPaymentID(ctx context.Context, paymentID string, excludeID int64, onlySuccess bool) (*domain.Donation, error)
	MarkFailed(ctx context.Context, id int64) (bool, error)
	ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]domain.Donation, error)
}

type campaignReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Campaign, error)
}

type verificationReader interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.PaymentVerification, error)
}

// settler is the atomic settlement unit (see Settlement). Split out so the
// funnel above it can be tested without a database.
type settler interface {
	Settle(ctx context.Context, donationID int64, paymentID, signature string) (*domain.Donation, error)
}

// postSettlementHook receives the donation id after settlement commits. It
// runs out-of-band and must never fail the settlement.
type postSettlementHook interface {
	HandlePostSettlement(donationID int64)
}
