package certificate

import (
	"context"
	"fmt"
	"io"
	"log"

	"gopkg.in/gomail.v2"

	"givehub/internal/domain"
)

// SMTPMailer sends the certificate as a PDF attachment through a plain
// SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendCertificate(_ context.Context, d *domain.Donation, campaignTitle string, pdf []byte) error {
	number := ""
	if d.CertificateNumber != nil {
		number = *d.CertificateNumber
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", d.DonorEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Your donation certificate %s", number))
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Dear %s,</p>"+
			"<p>Thank you for your donation of INR %d towards <b>%s</b>.</p>"+
			"<p>Your 80G certificate <b>%s</b> is attached.</p>",
		d.DonorName, d.Amount, campaignTitle, number))
	msg.Attach(number+".pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))

	return m.dialer.DialAndSend(msg)
}

// DevConsoleMailer logs instead of sending. Used when SMTP is not
// configured so local settlement flows still complete.
type DevConsoleMailer struct{}

func (DevConsoleMailer) SendCertificate(_ context.Context, d *domain.Donation, campaignTitle string, pdf []byte) error {
	log.Printf("[DEV-EMAIL] certificate email=%s campaign=%q bytes=%d", d.DonorEmail, campaignTitle, len(pdf))
	return nil
}
