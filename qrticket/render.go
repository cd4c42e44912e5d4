package qrticket

import (
	"bytes"
	"fmt"

	"eventpass/models"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// RenderPNG returns the ticket's QR code as a PNG image.
func RenderPNG(t *models.Ticket, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(Encode(t), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrticket: render png: %w", err)
	}
	return png, nil
}

// TicketPDF renders a single-page eTicket with the event details and
// the embedded QR code.
func TicketPDF(t *models.Ticket, event *models.Event) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetAutoPageBreak(false, 0)

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, "EVENT PASS")
	pdf.Ln(20)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, event.Name)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Venue: %s", event.Venue))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Starts: %s", event.StartTime.Format("Mon, 2 Jan 2006 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Attendee: %s", t.AttendeeName))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Pass: %s", t.Kind))

	png, err := RenderPNG(t, 256)
	if err != nil {
		return nil, err
	}
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(png))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Present this QR code at the entrance for check-in.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("qrticket: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
