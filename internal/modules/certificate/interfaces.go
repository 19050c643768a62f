package certificate

import (
	"context"
	"time"

	"givehub/internal/domain"
)

type donationRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Donation, error)
	SetCertificate(ctx context.Context, id int64, number, url string, sent bool, at time.Time) error
}

type campaignReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Campaign, error)
}

// Store persists a rendered certificate and returns the URL it can be
// served from.
type Store interface {
	Save(ctx context.Context, number string, pdf []byte) (string, error)
}

// Mailer delivers the certificate to the donor. Implementations must not
// block settlement; the pipeline already runs off the request path.
type Mailer interface {
	SendCertificate(ctx context.Context, d *domain.Donation, campaignTitle string, pdf []byte) error
}
