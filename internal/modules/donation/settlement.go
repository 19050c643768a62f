package donation

import (
	"context"
	"errors"
	"strings"
	"time"

	"givehub/internal/domain"
	"givehub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Settlement is the atomic unit that marks a donation successful, stamps the
// verified payment id, writes the verification ledger row and applies the
// campaign increments. All of it runs through one UnitOfWork; on deployments
// without transactional support the writes degrade to sequential execution
// (the UnitOfWork logs that), and the unique index on the payment id remains
// the final arbiter either way.
type Settlement struct {
	uow           *repository.UnitOfWork
	donations     *repository.DonationRepository
	campaigns     *repository.CampaignRepository
	verifications *repository.PaymentVerificationRepository
	loggerf       func(format string, args ...interface{})
}

func NewSettlement(
	uow *repository.UnitOfWork,
	donations *repository.DonationRepository,
	campaigns *repository.CampaignRepository,
	verifications *repository.PaymentVerificationRepository,
	loggerf func(format string, args ...interface{}),
) *Settlement {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Settlement{
		uow:           uow,
		donations:     donations,
		campaigns:     campaigns,
		verifications: verifications,
		loggerf:       loggerf,
	}
}

func (s *Settlement) Settle(ctx context.Context, donationID int64, paymentID, signature string) (*domain.Donation, error) {
	var settled *domain.Donation

	err := s.uow.Run(ctx, func(tx *gorm.DB) error {
		donations := s.donations.WithTx(tx)
		campaigns := s.campaigns.WithTx(tx)
		verifications := s.verifications.WithTx(tx)

		d, err := donations.GetByIDForUpdate(ctx, donationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDonationNotFound
			}
			return err
		}

		// Re-run the guard under lock: the other entry of the dual-entry
		// trigger may have settled between the pre-check and here.
		if d.Status == domain.DonationSuccess {
			if d.ProviderPaymentID != nil && *d.ProviderPaymentID == paymentID {
				settled = d
				return nil
			}
			return ErrDonationConflict
		}

		other, err := donations.FindOtherByPaymentID(ctx, paymentID, d.ID, false)
		if err != nil {
			return err
		}
		if other != nil {
			if other.Status == domain.DonationSuccess {
				return ErrPaymentConflict
			}
			// Abandoned pending/failed holder: release the id so this
			// settlement can take it over.
			if err := donations.ReleasePaymentID(ctx, other.ID); err != nil {
				return err
			}
			s.loggerf("level=info msg=superseding stale payment id holder payment_id=%s stale_donation_id=%d", paymentID, other.ID)
		}

		certNumber := newCertificateNumber()
		pid := paymentID
		d.Status = domain.DonationSuccess
		d.ProviderPaymentID = &pid
		d.ProviderSignature = signature
		d.CertificateNumber = &certNumber

		if err := donations.SaveSettlement(ctx, d); err != nil {
			return translateDuplicate(err)
		}

		if err := verifications.Create(ctx, &domain.PaymentVerification{
			DonationID:        d.ID,
			ProviderPaymentID: paymentID,
			ProviderOrderID:   d.ProviderOrderID,
			Amount:            d.Amount,
			Currency:          "INR",
			Status:            domain.VerificationVerified,
			VerifiedAt:        time.Now().UTC(),
		}); err != nil {
			return translateDuplicate(err)
		}

		// The increment is re-derived from the donation amount, applied
		// exactly once for this donation (the success transition above is
		// one-way and guarded).
		if err := campaigns.IncrementTotals(ctx, d.CampaignID, d.Amount); err != nil {
			s.loggerf("level=error msg=campaign increment failed donation_id=%d campaign_id=%d amount=%d err=%v", d.ID, d.CampaignID, d.Amount, err)
			return err
		}

		settled = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func newCertificateNumber() string {
	return "80G-" + strings.ToUpper(uuid.NewString()[:8])
}

// translateDuplicate maps storage-level unique violations on the payment id
// to the same conflict error the guard produces, so callers never see a raw
// constraint error.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrPaymentConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrPaymentConflict
	}
	return err
}
