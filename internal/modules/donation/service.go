package donation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"givehub/internal/domain"
	"givehub/internal/gateway"
	"givehub/internal/pkg/retry"
	validation "givehub/internal/pkg/validator"

	"gorm.io/gorm"
)

const providerAttempts = 3

// var so tests can shrink the backoff.
var providerBaseDelay = time.Second

// Service runs the verification funnel shared by the synchronous client call
// and the asynchronous webhook: signature check, amount reconciliation,
// idempotency guard, settlement, post-settlement hook. Correctness under
// concurrent callers rests on the settlement transaction and the unique
// index on the payment id, never on in-process state.
type Service struct {
	donations     donationRepo
	campaigns     campaignReader
	verifications verificationReader
	settlement    settler
	client        gateway.Client
	hook          postSettlementHook
	keySecret     string
	webhookSecret string
	loggerf       func(format string, args ...interface{})
}

func NewService(
	donations donationRepo,
	campaigns campaignReader,
	verifications verificationReader,
	settlement settler,
	client gateway.Client,
	hook postSettlementHook,
	keySecret, webhookSecret string,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		donations:     donations,
		campaigns:     campaigns,
		verifications: verifications,
		settlement:    settlement,
		client:        client,
		hook:          hook,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		loggerf:       loggerf,
	}
}

// CreateOrder validates the request, creates the provider order and persists
// a pending donation. The payment id stays absent (nil) until settlement so
// the sparse unique index never sees placeholder values.
func (s *Service) CreateOrder(ctx context.Context, donorID *int64, req CreateOrderRequest) (*CreateOrderResponse, error) {
	campaign, err := s.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.Status != domain.CampaignApproved {
		return nil, fmt.Errorf("%w: campaign is not accepting donations", ErrValidation)
	}

	receipt := fmt.Sprintf("rcpt_%d_%d", req.CampaignID, time.Now().UnixNano())

	var order *gateway.OrderEntity
	err = retry.Do(ctx, providerAttempts, providerBaseDelay, gateway.IsTransient, func() error {
		var cerr error
		order, cerr = s.client.CreateOrder(ctx, req.Amount, receipt)
		return cerr
	})
	if err != nil {
		if gateway.IsTransient(err) {
			s.loggerf("level=warn msg=provider order creation unreachable campaign_id=%d err=%v", req.CampaignID, err)
			return nil, ErrGatewayUnavailable
		}
		return nil, fmt.Errorf("create provider order: %w", err)
	}

	if req.IsAnonymous {
		donorID = nil
	}

	d := &domain.Donation{
		CampaignID:      req.CampaignID,
		DonorID:         donorID,
		Amount:          req.Amount,
		IsAnonymous:     req.IsAnonymous,
		PaymentMethod:   domain.PaymentMethodRazorpay,
		Status:          domain.DonationPending,
		ProviderOrderID: order.ID,
		DonorName:       req.DonorName,
		DonorEmail:      req.DonorEmail,
		DonorPhone:      req.DonorPhone,
		DonorPAN:        req.DonorPAN,
		Message:         req.Message,
	}
	if fields := validation.Validate(d); fields != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, fields)
	}
	if err := s.donations.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("save donation: %w", err)
	}

	s.loggerf("level=info msg=donation order created donation_id=%d campaign_id=%d order_id=%s amount=%d", d.ID, d.CampaignID, order.ID, d.Amount)

	return &CreateOrderResponse{
		Order:      OrderPayload{ID: order.ID, Amount: req.Amount * 100, Currency: "INR"},
		DonationID: d.ID,
	}, nil
}

// VerifyPayment is the synchronous entry of the dual-entry trigger.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*domain.Donation, error) {
	d, err := s.donations.GetByID(ctx, req.DonationID)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}

	if settled, done, err := s.guard(ctx, d, req.ProviderPaymentID); done || err != nil {
		return settled, err
	}

	// Signature is the primary trust decision; a mismatch is terminal for
	// this attempt and marks the donation failed with no other side effects.
	if !gateway.VerifyPaymentSignature(req.ProviderOrderID, req.ProviderPaymentID, req.ProviderSignature, s.keySecret) {
		s.loggerf("level=warn msg=signature verification failed donation_id=%d payment_id=%s", d.ID, req.ProviderPaymentID)
		return s.failAttempt(ctx, d.ID, req.ProviderPaymentID, ErrSignatureMismatch)
	}

	if err := s.reconcileAmount(ctx, d, req.ProviderOrderID, req.ProviderPaymentID); err != nil {
		return s.failAttempt(ctx, d.ID, req.ProviderPaymentID, err)
	}

	settled, err := s.settlement.Settle(ctx, d.ID, req.ProviderPaymentID, req.ProviderSignature)
	if err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=payment verified donation_id=%d payment_id=%s", d.ID, req.ProviderPaymentID)
	s.dispatchHook(settled.ID)
	return settled, nil
}

// HandleWebhook is the asynchronous entry of the dual-entry trigger. The
// webhook is authenticated by the HMAC over the raw body, then funnels into
// the same guard and settlement the synchronous path uses.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (*WebhookResult, error) {
	if signatureHeader == "" || !gateway.VerifyWebhookSignature(rawBody, signatureHeader, s.webhookSecret) {
		return nil, ErrWebhookSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body", ErrValidation)
	}

	if event.Event != "payment.captured" {
		s.loggerf("level=info msg=unhandled webhook event event=%s", event.Event)
		return &WebhookResult{Message: "Event received"}, nil
	}

	payment := event.Payload.Payment.Entity
	d, err := s.donations.GetByOrderID(ctx, payment.OrderID)
	if err != nil {
		if errorsIsNotFound(err) {
			s.loggerf("level=warn msg=webhook for unknown order order_id=%s payment_id=%s", payment.OrderID, payment.ID)
			return nil, ErrDonationNotFound
		}
		return nil, err
	}

	if settled, done, err := s.guard(ctx, d, payment.ID); done || err != nil {
		if done && err == nil && settled != nil {
			// The other entry won the race; the webhook acks benignly.
			return &WebhookResult{Message: "Already verified"}, nil
		}
		return nil, err
	}

	// The captured event's amount is authoritative here; the body HMAC has
	// already proven it came from the provider.
	if payment.Amount != d.Amount*100 {
		s.loggerf("level=warn msg=webhook amount mismatch donation_id=%d expected=%d got=%d", d.ID, d.Amount*100, payment.Amount)
		return nil, ErrAmountMismatch
	}

	settled, err := s.settlement.Settle(ctx, d.ID, payment.ID, payment.Signature)
	if err != nil {
		return nil, err
	}

	s.loggerf("level=info msg=payment verified via webhook donation_id=%d payment_id=%s", d.ID, payment.ID)
	s.dispatchHook(settled.ID)
	return &WebhookResult{Message: "Webhook processed successfully"}, nil
}

// ListByCampaign returns the campaign's donor wall: recent successful
// donations with anonymous donors masked.
func (s *Service) ListByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]domain.Donation, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, err := s.donations.ListByCampaign(ctx, campaignID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].IsAnonymous {
			items[i].DonorName = "Anonymous"
			items[i].DonorEmail = ""
			items[i].DonorPhone = ""
		}
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Donation, error) {
	d, err := s.donations.GetByID(ctx, id)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return d, nil
}

// guard performs the pre-mutation idempotency checks. done=true with a
// donation means the payment was already applied here (benign retry);
// done=true with an error means the payment id is not available to this
// donation. The settlement transaction re-runs these checks under lock; this
// pass exists to produce clean errors before any mutation.
func (s *Service) guard(ctx context.Context, d *domain.Donation, paymentID string) (*domain.Donation, bool, error) {
	if d.Status == domain.DonationSuccess {
		if d.ProviderPaymentID != nil && *d.ProviderPaymentID == paymentID {
			s.loggerf("level=info msg=payment already verified donation_id=%d payment_id=%s", d.ID, paymentID)
			return d, true, nil
		}
		return nil, true, ErrDonationConflict
	}

	other, err := s.donations.FindOtherByPaymentID(ctx, paymentID, d.ID, true)
	if err != nil {
		return nil, true, err
	}
	if other != nil {
		s.loggerf("level=warn msg=payment id already consumed payment_id=%s donation_id=%d holder_id=%d", paymentID, d.ID, other.ID)
		return nil, true, ErrPaymentConflict
	}

	ledger, err := s.verifications.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, true, err
	}
	if ledger != nil && ledger.Status == domain.VerificationVerified {
		if ledger.DonationID != d.ID {
			s.loggerf("level=warn msg=payment id already in verification ledger payment_id=%s ledger_donation_id=%d", paymentID, ledger.DonationID)
			return nil, true, ErrPaymentConflict
		}
		return d, true, nil
	}

	// A pending/failed donation holding this payment id may be superseded;
	// the settlement transaction releases it under lock.
	return nil, false, nil
}

// failAttempt marks the donation failed after a terminal verification error.
// The write only demotes a pending row: success is terminal, and the webhook
// may have settled the donation between the guard pre-check and this point.
// Zero rows moved means exactly that race, so the fresh state is re-read and
// answered through the guard like any other retry.
func (s *Service) failAttempt(ctx context.Context, id int64, paymentID string, cause error) (*domain.Donation, error) {
	demoted, err := s.donations.MarkFailed(ctx, id)
	if err != nil {
		s.loggerf("level=error msg=failed to mark donation failed donation_id=%d err=%v", id, err)
		return nil, cause
	}
	if demoted {
		return nil, cause
	}

	cur, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return nil, cause
	}
	if settled, done, gerr := s.guard(ctx, cur, paymentID); done {
		if gerr != nil {
			return nil, gerr
		}
		if settled != nil {
			s.loggerf("level=info msg=donation settled concurrently during failed attempt donation_id=%d payment_id=%s", id, paymentID)
			return settled, nil
		}
	}
	return nil, cause
}

// reconcileAmount fetches the authoritative payment and order records and
// compares both against the stored amount, converting from minor units.
// Persistent network failure is tolerated: the signature remains the trust
// anchor and reconciliation is belt-and-suspenders.
func (s *Service) reconcileAmount(ctx context.Context, d *domain.Donation, orderID, paymentID string) error {
	var payment *gateway.PaymentEntity
	err := retry.Do(ctx, providerAttempts, providerBaseDelay, gateway.IsTransient, func() error {
		var ferr error
		payment, ferr = s.client.FetchPayment(ctx, paymentID)
		return ferr
	})
	if err != nil {
		if gateway.IsTransient(err) {
			s.loggerf("level=warn msg=amount reconciliation skipped, provider unreachable donation_id=%d err=%v", d.ID, err)
			return nil
		}
		s.loggerf("level=warn msg=payment fetch rejected donation_id=%d payment_id=%s err=%v", d.ID, paymentID, err)
		return ErrAmountMismatch
	}

	var order *gateway.OrderEntity
	err = retry.Do(ctx, providerAttempts, providerBaseDelay, gateway.IsTransient, func() error {
		var ferr error
		order, ferr = s.client.FetchOrder(ctx, orderID)
		return ferr
	})
	if err != nil {
		if gateway.IsTransient(err) {
			s.loggerf("level=warn msg=amount reconciliation skipped, provider unreachable donation_id=%d err=%v", d.ID, err)
			return nil
		}
		s.loggerf("level=warn msg=order fetch rejected donation_id=%d order_id=%s err=%v", d.ID, orderID, err)
		return ErrAmountMismatch
	}

	expected := d.Amount * 100
	if payment.Amount != expected || order.Amount != expected {
		s.loggerf("level=warn msg=amount mismatch donation_id=%d expected=%d payment=%d order=%d", d.ID, expected, payment.Amount, order.Amount)
		return ErrAmountMismatch
	}
	return nil
}

// dispatchHook fires the post-settlement pipeline out-of-band. The HTTP
// response never waits for it and its failures never surface to the caller.
func (s *Service) dispatchHook(donationID int64) {
	if s.hook == nil {
		return
	}
	go s.hook.HandlePostSettlement(donationID)
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
