package gateway

import (
	"context"
	"errors"
	"net"
)

var ErrNotConfigured = errors.New("payment gateway is not configured")

// PaymentEntity is the provider's authoritative payment record.
// Amount is in minor units (paise).
type PaymentEntity struct {
	ID      string
	OrderID string
	Amount  int64
	Status  string
	Method  string
}

// OrderEntity is the provider's authoritative order record.
// Amount is in minor units (paise).
type OrderEntity struct {
	ID      string
	Amount  int64
	Status  string
	Receipt string
}

// Client is the capability the settlement core needs from the payment
// provider. It is constructed once at startup and injected, never held as a
// package-level singleton.
type Client interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (*OrderEntity, error)
	FetchPayment(ctx context.Context, paymentID string) (*PaymentEntity, error)
	FetchOrder(ctx context.Context, orderID string) (*OrderEntity, error)
}

// IsTransient reports whether err is a network-class failure worth retrying
// (timeouts, connection resets, DNS failures). Provider 4xx responses and
// validation errors are terminal and must never be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
