package donation

import "givehub/internal/domain"

type CreateOrderRequest struct {
	CampaignID  int64  `json:"campaignId" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	DonorName   string `json:"donorName" binding:"required"`
	DonorEmail  string `json:"donorEmail" binding:"required,email"`
	DonorPhone  string `json:"donorPhone"`
	DonorPAN    string `json:"donorPan"`
	Message     string `json:"message"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type OrderPayload struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units, as the gateway reports it
	Currency string `json:"currency"`
}

type CreateOrderResponse struct {
	Order      OrderPayload `json:"order"`
	DonationID int64        `json:"donationId"`
}

type VerifyPaymentRequest struct {
	DonationID        int64  `json:"donationId" binding:"required"`
	ProviderOrderID   string `json:"providerOrderId" binding:"required"`
	ProviderPaymentID string `json:"providerPaymentId" binding:"required"`
	ProviderSignature string `json:"providerSignature" binding:"required"`
}

type VerifyPaymentResponse struct {
	Donation *domain.Donation `json:"donation"`
}

// webhookEvent mirrors the provider's webhook body shape.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity webhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type webhookPaymentEntity struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"` // minor units
	Status    string `json:"status"`
	Signature string `json:"signature"`
}

type WebhookResult struct {
	Message string `json:"message"`
}
