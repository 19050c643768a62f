package certificate

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"givehub/internal/domain"
)

type fakeDonations struct {
	donation *domain.Donation
	recorded bool
	sent     bool
	url      string
}

func (f *fakeDonations) GetByID(_ context.Context, id int64) (*domain.Donation, error) {
	if f.donation == nil || f.donation.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.donation, nil
}

func (f *fakeDonations) SetCertificate(_ context.Context, _ int64, _, url string, sent bool, _ time.Time) error {
	f.recorded = true
	f.sent = sent
	f.url = url
	return nil
}

type fakeCampaigns struct{ campaign *domain.Campaign }

func (f *fakeCampaigns) GetByID(_ context.Context, id int64) (*domain.Campaign, error) {
	if f.campaign == nil || f.campaign.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.campaign, nil
}

type memStore struct{ saved map[string][]byte }

func (s *memStore) Save(_ context.Context, number string, pdf []byte) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[number] = pdf
	return "/certificates/" + number + ".pdf", nil
}

type recordingMailer struct {
	sent int
	fail error
}

func (m *recordingMailer) SendCertificate(_ context.Context, _ *domain.Donation, _ string, _ []byte) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent++
	return nil
}

func discardLogf(string, ...interface{}) {}

func settledDonation() *domain.Donation {
	number := "80G-AB12CD34"
	paymentID := "pay_TEST123"
	return &domain.Donation{
		ID:                1,
		CampaignID:        5,
		Amount:            500,
		Status:            domain.DonationSuccess,
		ProviderPaymentID: &paymentID,
		CertificateNumber: &number,
		DonorName:         "Asha Rao",
		DonorEmail:        "asha@example.com",
	}
}

func TestHandlePostSettlement(t *testing.T) {
	donations := &fakeDonations{donation: settledDonation()}
	campaigns := &fakeCampaigns{campaign: &domain.Campaign{ID: 5, Title: "Clean Water for Rajasthan"}}
	store := &memStore{}
	mailer := &recordingMailer{}
	svc := NewService(donations, campaigns, store, mailer, discardLogf)

	svc.HandlePostSettlement(1)

	require.True(t, donations.recorded)
	assert.True(t, donations.sent)
	assert.Equal(t, "/certificates/80G-AB12CD34.pdf", donations.url)
	assert.Equal(t, 1, mailer.sent)

	pdf := store.saved["80G-AB12CD34"]
	require.NotEmpty(t, pdf)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestHandlePostSettlementNilLogger(t *testing.T) {
	// The pipeline runs on a detached goroutine, so a nil logger must be
	// defaulted in the constructor rather than crash the process mid-flight.
	donations := &fakeDonations{donation: settledDonation()}
	campaigns := &fakeCampaigns{campaign: &domain.Campaign{ID: 5, Title: "Clean Water"}}
	svc := NewService(donations, campaigns, &memStore{}, &recordingMailer{}, nil)

	svc.HandlePostSettlement(1)

	require.True(t, donations.recorded)
	assert.True(t, donations.sent)
}

func TestHandlePostSettlementSkipsUnsettled(t *testing.T) {
	d := settledDonation()
	d.Status = domain.DonationPending
	d.CertificateNumber = nil
	donations := &fakeDonations{donation: d}
	store := &memStore{}
	mailer := &recordingMailer{}
	svc := NewService(donations, &fakeCampaigns{}, store, mailer, discardLogf)

	svc.HandlePostSettlement(1)

	assert.False(t, donations.recorded)
	assert.Empty(t, store.saved)
	assert.Zero(t, mailer.sent)
}

func TestHandlePostSettlementMailFailureStillRecordsURL(t *testing.T) {
	donations := &fakeDonations{donation: settledDonation()}
	campaigns := &fakeCampaigns{campaign: &domain.Campaign{ID: 5, Title: "Clean Water"}}
	mailer := &recordingMailer{fail: assert.AnError}
	svc := NewService(donations, campaigns, &memStore{}, mailer, discardLogf)

	svc.HandlePostSettlement(1)

	require.True(t, donations.recorded)
	assert.False(t, donations.sent)
	assert.NotEmpty(t, donations.url)
}
