package donation

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"givehub/internal/domain"
	"givehub/internal/gateway"
)

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

func init() {
	providerBaseDelay = time.Millisecond
}

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeDonations struct {
	mu     sync.Mutex
	rows   map[int64]*domain.Donation
	nextID int64

	// runs before MarkFailed takes the lock, to stage a racing settlement
	beforeMarkFailed func()
}

func newFakeDonations() *fakeDonations {
	return &fakeDonations{rows: map[int64]*domain.Donation{}, nextID: 1}
}

func (f *fakeDonations) add(d *domain.Donation) *domain.Donation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == 0 {
		d.ID = f.nextID
		f.nextID++
	}
	f.rows[d.ID] = d
	return d
}

func (f *fakeDonations) Create(_ context.Context, d *domain.Donation) error {
	f.add(d)
	return nil
}

func (f *fakeDonations) GetByID(_ context.Context, id int64) (*domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDonations) GetByOrderID(_ context.Context, orderID string) (*domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.rows {
		if d.ProviderOrderID == orderID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDonations) FindOtherByPaymentID(_ context.Context, paymentID string, excludeID int64, onlySuccess bool) (*domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.rows {
		if d.ID == excludeID || d.ProviderPaymentID == nil || *d.ProviderPaymentID != paymentID {
			continue
		}
		if onlySuccess && d.Status != domain.DonationSuccess {
			continue
		}
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDonations) MarkFailed(_ context.Context, id int64) (bool, error) {
	if f.beforeMarkFailed != nil {
		f.beforeMarkFailed()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if d.Status != domain.DonationPending {
		return false, nil
	}
	d.Status = domain.DonationFailed
	return true, nil
}

func (f *fakeDonations) ListByCampaign(_ context.Context, campaignID int64, limit, offset int) ([]domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Donation
	for _, d := range f.rows {
		if d.CampaignID == campaignID && d.Status == domain.DonationSuccess {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeCampaigns struct{ campaign *domain.Campaign }

func (f *fakeCampaigns) GetByID(_ context.Context, id int64) (*domain.Campaign, error) {
	if f.campaign == nil || f.campaign.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.campaign, nil
}

type fakeVerifications struct{ rows map[string]*domain.PaymentVerification }

func (f *fakeVerifications) GetByPaymentID(_ context.Context, paymentID string) (*domain.PaymentVerification, error) {
	if f.rows == nil {
		return nil, nil
	}
	return f.rows[paymentID], nil
}

// fakeSettler applies the settlement against the fake store so guard logic
// sees the post-settlement state on subsequent calls.
type fakeSettler struct {
	store *fakeDonations
	calls int
	fail  error
}

func (f *fakeSettler) Settle(_ context.Context, donationID int64, paymentID, signature string) (*domain.Donation, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	d := f.store.rows[donationID]
	d.Status = domain.DonationSuccess
	d.ProviderPaymentID = &paymentID
	d.ProviderSignature = signature
	cp := *d
	return &cp, nil
}

type fakeGateway struct {
	order      *gateway.OrderEntity
	orderErr   error
	payment    *gateway.PaymentEntity
	paymentErr error
	fetchOrder *gateway.OrderEntity
	fetchErr   error
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount int64, receipt string) (*gateway.OrderEntity, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	if f.order != nil {
		return f.order, nil
	}
	return &gateway.OrderEntity{ID: "order_NEW", Amount: amount * 100, Status: "created", Receipt: receipt}, nil
}

func (f *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.PaymentEntity, error) {
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	if f.payment != nil {
		return f.payment, nil
	}
	return nil, errors.New("no payment configured")
}

func (f *fakeGateway) FetchOrder(_ context.Context, orderID string) (*gateway.OrderEntity, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.fetchOrder != nil {
		return f.fetchOrder, nil
	}
	return nil, errors.New("no order configured")
}

type fakeHook struct {
	mu    sync.Mutex
	calls []int64
	done  chan struct{}
}

func newFakeHook() *fakeHook { return &fakeHook{done: make(chan struct{}, 8)} }

func (f *fakeHook) HandlePostSettlement(donationID int64) {
	f.mu.Lock()
	f.calls = append(f.calls, donationID)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakeHook) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("post-settlement hook was not invoked")
	}
}

type fixture struct {
	svc       *Service
	donations *fakeDonations
	settler   *fakeSettler
	gw        *fakeGateway
	hook      *fakeHook
	pending   *domain.Donation
}

func newFixture() *fixture {
	donations := newFakeDonations()
	pending := donations.add(&domain.Donation{
		CampaignID:      5,
		Amount:          500,
		Status:          domain.DonationPending,
		ProviderOrderID: "order_TEST1",
		DonorName:       "Asha Rao",
		DonorEmail:      "asha@example.com",
	})
	settler := &fakeSettler{store: donations}
	gw := &fakeGateway{
		payment:    &gateway.PaymentEntity{ID: "pay_TEST1", OrderID: "order_TEST1", Amount: 50000, Status: "captured"},
		fetchOrder: &gateway.OrderEntity{ID: "order_TEST1", Amount: 50000, Status: "paid"},
	}
	hook := newFakeHook()
	svc := NewService(
		donations,
		&fakeCampaigns{campaign: &domain.Campaign{ID: 5, Status: domain.CampaignApproved}},
		&fakeVerifications{},
		settler,
		gw,
		hook,
		testKeySecret,
		testWebhookSecret,
		nil,
	)
	return &fixture{svc: svc, donations: donations, settler: settler, gw: gw, hook: hook, pending: pending}
}

func verifyReq(d *domain.Donation, paymentID string) VerifyPaymentRequest {
	return VerifyPaymentRequest{
		DonationID:        d.ID,
		ProviderOrderID:   d.ProviderOrderID,
		ProviderPaymentID: paymentID,
		ProviderSignature: sign(d.ProviderOrderID, paymentID),
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	donorID := int64(9)

	resp, err := f.svc.CreateOrder(context.Background(), &donorID, CreateOrderRequest{
		CampaignID: 5,
		Amount:     500,
		DonorName:  "Asha Rao",
		DonorEmail: "asha@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_NEW", resp.Order.ID)
	assert.Equal(t, int64(50000), resp.Order.Amount)
	assert.Equal(t, "INR", resp.Order.Currency)

	d, err := f.donations.GetByID(context.Background(), resp.DonationID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationPending, d.Status)
	assert.Nil(t, d.ProviderPaymentID)
	require.NotNil(t, d.DonorID)
	assert.Equal(t, int64(9), *d.DonorID)
}

func TestCreateOrderAnonymousDropsDonorID(t *testing.T) {
	f := newFixture()
	donorID := int64(9)

	resp, err := f.svc.CreateOrder(context.Background(), &donorID, CreateOrderRequest{
		CampaignID:  5,
		Amount:      500,
		DonorName:   "Asha Rao",
		DonorEmail:  "asha@example.com",
		IsAnonymous: true,
	})
	require.NoError(t, err)

	d, err := f.donations.GetByID(context.Background(), resp.DonationID)
	require.NoError(t, err)
	assert.Nil(t, d.DonorID)
	assert.True(t, d.IsAnonymous)
}

func TestCreateOrderCampaignNotApproved(t *testing.T) {
	f := newFixture()
	f.svc.campaigns = &fakeCampaigns{campaign: &domain.Campaign{ID: 5, Status: domain.CampaignPending}}

	_, err := f.svc.CreateOrder(context.Background(), nil, CreateOrderRequest{
		CampaignID: 5, Amount: 500, DonorName: "A", DonorEmail: "a@b.c",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderProviderUnreachable(t *testing.T) {
	f := newFixture()
	f.gw.orderErr = &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	_, err := f.svc.CreateOrder(context.Background(), nil, CreateOrderRequest{
		CampaignID: 5, Amount: 500, DonorName: "A", DonorEmail: "a@b.c",
	})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestVerifyPayment(t *testing.T) {
	f := newFixture()

	settled, err := f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_TEST1"))
	require.NoError(t, err)
	assert.Equal(t, domain.DonationSuccess, settled.Status)
	require.NotNil(t, settled.ProviderPaymentID)
	assert.Equal(t, "pay_TEST1", *settled.ProviderPaymentID)
	assert.Equal(t, 1, f.settler.calls)

	f.hook.wait(t)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	f := newFixture()
	req := verifyReq(f.pending, "pay_TEST1")
	req.ProviderSignature = "deadbeef"

	_, err := f.svc.VerifyPayment(context.Background(), req)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Zero(t, f.settler.calls)

	d, _ := f.donations.GetByID(context.Background(), f.pending.ID)
	assert.Equal(t, domain.DonationFailed, d.Status)
}

func TestVerifyPaymentBadSignatureAfterWebhookSettles(t *testing.T) {
	f := newFixture()

	// The webhook settles the donation while a stale client verify call is
	// between its guard pre-check and the failure write. The settled row must
	// stay success and the caller is answered like any other retry.
	f.donations.beforeMarkFailed = func() {
		_, err := f.settler.Settle(context.Background(), f.pending.ID, "pay_TEST1", sign("order_TEST1", "pay_TEST1"))
		require.NoError(t, err)
	}

	req := verifyReq(f.pending, "pay_TEST1")
	req.ProviderSignature = "deadbeef"

	settled, err := f.svc.VerifyPayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationSuccess, settled.Status)

	d, _ := f.donations.GetByID(context.Background(), f.pending.ID)
	assert.Equal(t, domain.DonationSuccess, d.Status)
	assert.Equal(t, 1, f.settler.calls)
}

func TestVerifyPaymentAmountMismatch(t *testing.T) {
	f := newFixture()
	f.gw.payment = &gateway.PaymentEntity{ID: "pay_TEST1", OrderID: "order_TEST1", Amount: 100, Status: "captured"}

	_, err := f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_TEST1"))
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Zero(t, f.settler.calls)

	d, _ := f.donations.GetByID(context.Background(), f.pending.ID)
	assert.Equal(t, domain.DonationFailed, d.Status)
}

func TestVerifyPaymentReconciliationSkippedWhenProviderUnreachable(t *testing.T) {
	f := newFixture()
	f.gw.paymentErr = &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	// Signature trust carries the decision when the provider cannot be
	// reached for reconciliation.
	settled, err := f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_TEST1"))
	require.NoError(t, err)
	assert.Equal(t, domain.DonationSuccess, settled.Status)
	f.hook.wait(t)
}

func TestVerifyPaymentIdempotentRetry(t *testing.T) {
	f := newFixture()
	req := verifyReq(f.pending, "pay_TEST1")

	first, err := f.svc.VerifyPayment(context.Background(), req)
	require.NoError(t, err)
	f.hook.wait(t)

	second, err := f.svc.VerifyPayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.DonationSuccess, second.Status)
	assert.Equal(t, 1, f.settler.calls, "settlement must run exactly once")
}

func TestVerifyPaymentDonationConflict(t *testing.T) {
	f := newFixture()
	_, err := f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_TEST1"))
	require.NoError(t, err)
	f.hook.wait(t)

	_, err = f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_OTHER"))
	assert.ErrorIs(t, err, ErrDonationConflict)
}

func TestVerifyPaymentPaymentConflict(t *testing.T) {
	f := newFixture()
	paymentID := "pay_TEST1"
	f.donations.add(&domain.Donation{
		CampaignID:        5,
		Amount:            500,
		Status:            domain.DonationSuccess,
		ProviderOrderID:   "order_OTHER",
		ProviderPaymentID: &paymentID,
	})

	_, err := f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_TEST1"))
	assert.ErrorIs(t, err, ErrPaymentConflict)
	assert.Zero(t, f.settler.calls)
}

func TestVerifyPaymentLedgerConflict(t *testing.T) {
	f := newFixture()
	f.svc.verifications = &fakeVerifications{rows: map[string]*domain.PaymentVerification{
		"pay_TEST1": {DonationID: 999, ProviderPaymentID: "pay_TEST1", Status: domain.VerificationVerified},
	}}

	_, err := f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_TEST1"))
	assert.ErrorIs(t, err, ErrPaymentConflict)
}

func TestVerifyPaymentNotFound(t *testing.T) {
	f := newFixture()
	req := verifyReq(f.pending, "pay_TEST1")
	req.DonationID = 404

	_, err := f.svc.VerifyPayment(context.Background(), req)
	assert.ErrorIs(t, err, ErrDonationNotFound)
}

func TestListByCampaignMasksAnonymousDonors(t *testing.T) {
	f := newFixture()
	pid1, pid2 := "pay_A", "pay_B"
	f.donations.add(&domain.Donation{
		CampaignID: 5, Amount: 500, Status: domain.DonationSuccess,
		ProviderPaymentID: &pid1, DonorName: "Asha Rao", DonorEmail: "asha@example.com",
	})
	f.donations.add(&domain.Donation{
		CampaignID: 5, Amount: 200, Status: domain.DonationSuccess, IsAnonymous: true,
		ProviderPaymentID: &pid2, DonorName: "Ravi Kumar", DonorEmail: "ravi@example.com",
	})

	items, err := f.svc.ListByCampaign(context.Background(), 5, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, d := range items {
		if d.IsAnonymous {
			assert.Equal(t, "Anonymous", d.DonorName)
			assert.Empty(t, d.DonorEmail)
		} else {
			assert.Equal(t, "Asha Rao", d.DonorName)
		}
	}
}

func webhookBody(t *testing.T, event, paymentID, orderID string, amount int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       paymentID,
					"order_id": orderID,
					"amount":   amount,
					"status":   "captured",
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestHandleWebhook(t *testing.T) {
	f := newFixture()
	body := webhookBody(t, "payment.captured", "pay_TEST1", "order_TEST1", 50000)

	res, err := f.svc.HandleWebhook(context.Background(), body, signBody(body))
	require.NoError(t, err)
	assert.Equal(t, "Webhook processed successfully", res.Message)
	assert.Equal(t, 1, f.settler.calls)
	f.hook.wait(t)

	d, _ := f.donations.GetByID(context.Background(), f.pending.ID)
	assert.Equal(t, domain.DonationSuccess, d.Status)
}

func TestHandleWebhookBadSignature(t *testing.T) {
	f := newFixture()
	body := webhookBody(t, "payment.captured", "pay_TEST1", "order_TEST1", 50000)

	_, err := f.svc.HandleWebhook(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, ErrWebhookSignature)

	_, err = f.svc.HandleWebhook(context.Background(), body, "")
	assert.ErrorIs(t, err, ErrWebhookSignature)
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture()
	body := webhookBody(t, "payment.failed", "pay_TEST1", "order_TEST1", 50000)

	res, err := f.svc.HandleWebhook(context.Background(), body, signBody(body))
	require.NoError(t, err)
	assert.Equal(t, "Event received", res.Message)
	assert.Zero(t, f.settler.calls)
}

func TestHandleWebhookAfterVerifyIsBenign(t *testing.T) {
	f := newFixture()
	_, err := f.svc.VerifyPayment(context.Background(), verifyReq(f.pending, "pay_TEST1"))
	require.NoError(t, err)
	f.hook.wait(t)

	body := webhookBody(t, "payment.captured", "pay_TEST1", "order_TEST1", 50000)
	res, err := f.svc.HandleWebhook(context.Background(), body, signBody(body))
	require.NoError(t, err)
	assert.Equal(t, "Already verified", res.Message)
	assert.Equal(t, 1, f.settler.calls, "settlement must run exactly once")
}

func TestHandleWebhookAmountMismatch(t *testing.T) {
	f := newFixture()
	body := webhookBody(t, "payment.captured", "pay_TEST1", "order_TEST1", 100)

	_, err := f.svc.HandleWebhook(context.Background(), body, signBody(body))
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Zero(t, f.settler.calls)
}

func TestHandleWebhookUnknownOrder(t *testing.T) {
	f := newFixture()
	body := webhookBody(t, "payment.captured", "pay_TEST1", "order_UNKNOWN", 50000)

	_, err := f.svc.HandleWebhook(context.Background(), body, signBody(body))
	assert.ErrorIs(t, err, ErrDonationNotFound)
}
