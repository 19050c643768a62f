package gateway

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

type razorpayClient struct {
	rz *razorpay.Client
}

// NewRazorpayClient wraps the official SDK behind the Client capability.
// Returns ErrNotConfigured when credentials are missing so callers can fail
// fast at startup instead of on the first donation.
func NewRazorpayClient(keyID, keySecret string) (Client, error) {
	if keyID == "" || keySecret == "" {
		return nil, ErrNotConfigured
	}
	return &razorpayClient{rz: razorpay.NewClient(keyID, keySecret)}, nil
}

func (c *razorpayClient) CreateOrder(ctx context.Context, amount int64, receipt string) (*OrderEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"amount":   amount * 100, // rupees to paise
		"currency": "INR",
		"receipt":  receipt,
	}
	body, err := c.rz.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return orderFromMap(body), nil
}

func (c *razorpayClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := c.rz.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}
	return &PaymentEntity{
		ID:      asString(body["id"]),
		OrderID: asString(body["order_id"]),
		Amount:  asInt64(body["amount"]),
		Status:  asString(body["status"]),
		Method:  asString(body["method"]),
	}, nil
}

func (c *razorpayClient) FetchOrder(ctx context.Context, orderID string) (*OrderEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := c.rz.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	return orderFromMap(body), nil
}

func orderFromMap(body map[string]interface{}) *OrderEntity {
	return &OrderEntity{
		ID:      asString(body["id"]),
		Amount:  asInt64(body["amount"]),
		Status:  asString(body["status"]),
		Receipt: asString(body["receipt"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// The SDK decodes JSON numbers as float64; amounts fit comfortably.
func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
