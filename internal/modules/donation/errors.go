package donation

import "errors"

var (
	ErrDonationNotFound = errors.New("donation not found")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrValidation       = errors.New("validation error")

	// Terminal verification outcomes: the donation is marked failed.
	ErrSignatureMismatch = errors.New("payment verification failed")
	ErrAmountMismatch    = errors.New("payment amount mismatch")

	// Idempotency conflicts: expected under racing dual-entry triggers,
	// reported with a clean message instead of a raw constraint violation.
	ErrPaymentConflict  = errors.New("this payment has already been processed for another donation")
	ErrDonationConflict = errors.New("donation already has a different successful payment")

	// Transient gateway failure: the donation stays pending so the same
	// verification call can be retried later.
	ErrGatewayUnavailable = errors.New("payment gateway unreachable, please try again")

	ErrWebhookSignature = errors.New("invalid webhook signature")
)
