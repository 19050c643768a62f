package donation

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"givehub/internal/middleware"
	"givehub/internal/pkg/response"
)

type Handler struct {
	service *Service
	loggerf func(format string, args ...interface{})
}

func NewHandler(service *Service, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{service: service, loggerf: loggerf}
}

// RegisterRoutes attaches the donation endpoints. The group is expected to
// carry optional auth: guest donations are allowed, the webhook is
// authenticated by its signature alone.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/donation/create-order", h.CreateOrder)
	rg.POST("/donation/verify", h.VerifyPayment)
	rg.GET("/donation/:id", h.GetDonation)
	rg.GET("/campaigns/:id/donations", h.ListByCampaign)
}

func (h *Handler) RegisterWebhookRoute(rg *gin.RouterGroup) {
	rg.POST("/donation/webhook", h.Webhook)
}

// CreateOrder godoc
// @Summary      Create a provider order for a donation
// @Tags         Donations
// @Accept       json
// @Produce      json
// @Param        body body CreateOrderRequest true "Order payload"
// @Router       /donation/create-order [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	resp, err := h.service.CreateOrder(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Order created successfully", resp)
}

// VerifyPayment godoc
// @Summary      Verify a completed payment and settle the donation
// @Tags         Donations
// @Accept       json
// @Produce      json
// @Param        body body VerifyPaymentRequest true "Verification payload"
// @Router       /donation/verify [post]
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	d, err := h.service.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Payment verified successfully", VerifyPaymentResponse{Donation: d})
}

// Webhook godoc
// @Summary      Provider webhook endpoint (signature-authenticated)
// @Tags         Donations
// @Accept       json
// @Produce      json
// @Router       /donation/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Unable to read body")
		return
	}
	signature := c.GetHeader("X-Razorpay-Signature")

	result, err := h.service.HandleWebhook(c.Request.Context(), rawBody, signature)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Webhook received", result)
}

func (h *Handler) GetDonation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid donation id")
		return
	}
	d, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Donation retrieved", gin.H{"donation": d})
}

// ListByCampaign serves the public donor wall for a campaign.
func (h *Handler) ListByCampaign(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid campaign id")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	items, err := h.service.ListByCampaign(c.Request.Context(), campaignID, limit, (page-1)*limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Donations retrieved", gin.H{"donations": items})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDonationNotFound), errors.Is(err, ErrCampaignNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSignatureMismatch), errors.Is(err, ErrAmountMismatch):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDonationConflict):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPaymentConflict):
		// Expected under racing dual-entry triggers, so no severe logging.
		response.Error(c, http.StatusBadRequest, "This payment has already been processed. If you closed the payment dialog, please try making a new donation.")
	case errors.Is(err, ErrWebhookSignature):
		response.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrGatewayUnavailable):
		response.Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		h.loggerf("level=error msg=donation request failed err=%v", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}
