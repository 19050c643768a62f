package certificate

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"givehub/internal/domain"
)

// renderPDF lays out the 80G donation receipt. Landscape A4, centered
// blocks, no external assets so the binary stays self-contained.
func renderPDF(d *domain.Donation, campaignTitle string, issuedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(30, 64, 124)
	pdf.CellFormat(0, 16, "Donation Certificate", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 8, "Eligible for deduction under Section 80G", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	name := d.DonorName
	if d.IsAnonymous {
		name = "Anonymous Donor"
	}
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "This is to certify that", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "has generously donated", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, fmt.Sprintf("INR %d", d.Amount), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("towards \"%s\"", campaignTitle), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	number := ""
	if d.CertificateNumber != nil {
		number = *d.CertificateNumber
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 7, fmt.Sprintf("Certificate No: %s", number), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Date of Issue: %s", issuedAt.Format("02 Jan 2006")), "", 1, "C", false, 0, "")
	if d.DonorPAN != "" {
		pdf.CellFormat(0, 7, fmt.Sprintf("Donor PAN: %s", d.DonorPAN), "", 1, "C", false, 0, "")
	}
	if d.ProviderPaymentID != nil {
		pdf.CellFormat(0, 7, fmt.Sprintf("Payment Reference: %s", *d.ProviderPaymentID), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
