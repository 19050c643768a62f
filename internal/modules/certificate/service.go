package certificate

import (
	"context"
	"time"

	"givehub/internal/domain"
)

const pipelineTimeout = 30 * time.Second

// Service runs the post-settlement pipeline: render the 80G receipt,
// persist it, record the URL on the donation and email the donor. Every
// step is best effort; a failure here never unwinds a settled payment.
type Service struct {
	donations donationRepo
	campaigns campaignReader
	store     Store
	mailer    Mailer
	loggerf   func(format string, args ...interface{})
}

func NewService(donations donationRepo, campaigns campaignReader, store Store, mailer Mailer, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{donations: donations, campaigns: campaigns, store: store, mailer: mailer, loggerf: loggerf}
}

// HandlePostSettlement is invoked after a donation settles. It runs on its
// own deadline rather than the request context, which is usually gone by
// the time the pipeline starts.
func (s *Service) HandlePostSettlement(donationID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	d, err := s.donations.GetByID(ctx, donationID)
	if err != nil {
		s.loggerf("certificate: load donation failed donation_id=%d err=%v", donationID, err)
		return
	}
	if d.Status != domain.DonationSuccess || d.CertificateNumber == nil {
		s.loggerf("certificate: skip donation_id=%d status=%s", d.ID, d.Status)
		return
	}
	if d.CertificateSent {
		return
	}

	campaignTitle := "a GiveHub campaign"
	if c, err := s.campaigns.GetByID(ctx, d.CampaignID); err == nil {
		campaignTitle = c.Title
	} else {
		s.loggerf("certificate: load campaign failed donation_id=%d campaign_id=%d err=%v", d.ID, d.CampaignID, err)
	}

	issuedAt := time.Now()
	pdf, err := renderPDF(d, campaignTitle, issuedAt)
	if err != nil {
		s.loggerf("certificate: render failed donation_id=%d err=%v", d.ID, err)
		return
	}

	url := d.CertificateURL
	if url == "" {
		url, err = s.store.Save(ctx, *d.CertificateNumber, pdf)
		if err != nil {
			s.loggerf("certificate: store failed donation_id=%d err=%v", d.ID, err)
			return
		}
	}

	sent := false
	if err := s.mailer.SendCertificate(ctx, d, campaignTitle, pdf); err != nil {
		s.loggerf("certificate: email failed donation_id=%d email=%s err=%v", d.ID, d.DonorEmail, err)
	} else {
		sent = true
	}

	if err := s.donations.SetCertificate(ctx, d.ID, *d.CertificateNumber, url, sent, issuedAt); err != nil {
		s.loggerf("certificate: record failed donation_id=%d err=%v", d.ID, err)
		return
	}
	s.loggerf("certificate: issued donation_id=%d number=%s sent=%t", d.ID, *d.CertificateNumber, sent)
}
