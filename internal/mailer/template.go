package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/queue"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Booking Confirmed: {{.EventName}}</title>
</head>
<body style="margin:0;padding:0;background:#f0eef8;font-family:Helvetica,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding:40px 16px;">
    <tr><td align="center">
      <table width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:14px;max-width:560px;width:100%;">
        <tr>
          <td style="background:#2d1b69;padding:36px 40px;text-align:center;">
            <p style="color:#e9d8ff;font-size:11px;letter-spacing:3px;text-transform:uppercase;margin:0 0 10px;">Booking Confirmed</p>
            <h1 style="color:#ffffff;font-size:26px;margin:0;">{{.EventName}}</h1>
          </td>
        </tr>
        <tr>
          <td style="padding:30px 40px 12px;">
            <p style="font-size:16px;margin:0 0 8px;">Hello, <strong>{{.Name}}</strong></p>
            <p style="font-size:14px;margin:0;">Your seat is reserved. Show the QR code below at the entrance and the staff will scan it to check you in.</p>
          </td>
        </tr>
        <tr>
          <td style="padding:16px 40px 24px;">
            <table width="100%" cellpadding="7" cellspacing="0" style="background:#f7f4ff;border-radius:10px;">
              <tr><td>Show Date</td><td><strong>{{.ShowDate}}</strong></td></tr>
              <tr><td>Ticket Type</td><td><strong>{{.TicketType}}</strong></td></tr>
              <tr><td>Quantity</td><td><strong>{{.Quantity}}</strong></td></tr>
              <tr><td>Booking ID</td><td style="font-family:monospace;word-break:break-all;">{{.TicketID}}</td></tr>
            </table>
          </td>
        </tr>
        <tr>
          <td style="padding:0 40px 28px;text-align:center;">
            <p style="font-size:11px;text-transform:uppercase;letter-spacing:2px;margin:0 0 14px;">Scan at Entrance</p>
            {{if .QRURL}}<img src="{{.QRURL}}" alt="Entry QR Code" width="200" height="200" style="display:block;margin:0 auto;" />
            {{else}}<p style="color:#888;font-size:13px;">QR code unavailable</p>{{end}}
            <p style="font-size:12px;margin:12px 0 0;">Screenshot or print this email and bring it to the venue.</p>
          </td>
        </tr>
        {{if .ReceiptPending}}
        <tr>
          <td style="padding:0 40px 24px;">
            <div style="background:#fff7ed;border-left:4px solid #ea6d0a;padding:14px 18px;">
              <p style="font-size:13px;margin:0;"><strong>Receipt not yet uploaded.</strong><br>
              Please upload your payment receipt via the registration page to fully confirm your booking.</p>
            </div>
          </td>
        </tr>
        {{end}}
        <tr>
          <td style="background:#f7f4ff;padding:20px 40px;text-align:center;">
            <p style="font-size:12px;margin:0;">This is an automated confirmation, please do not reply to this email.<br>See you at the show!</p>
          </td>
        </tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

type confirmationView struct {
	EventName      string
	Name           string
	ShowDate       string
	TicketType     string
	Quantity       string
	TicketID       string
	QRURL          string
	ReceiptPending bool
}

func renderConfirmation(ev queue.TicketRegisteredEvent, qrURL string) (string, error) {
	eventName := ev.EventName
	if eventName == "" {
		eventName = "Theatre Event"
	}
	date := FormatShowDate(ev.ShowDate)
	if ev.ShowTime != "" {
		date += ", " + ev.ShowTime
	}
	v := confirmationView{
		EventName:      eventName,
		Name:           ev.Name,
		ShowDate:       date,
		TicketType:     ev.TicketType,
		Quantity:       QuantityLabel(ev.Quantity),
		TicketID:       ev.TicketID,
		QRURL:          qrURL,
		ReceiptPending: ev.PaymentStatus == model.PaymentPending,
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatShowDate turns "2026-04-19" into "Sunday, 19 April 2026".  Input
// that is not an ISO date is returned unchanged.
func FormatShowDate(iso string) string {
	d, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return d.Format("Monday, 2 January 2006")
}

// QuantityLabel renders "1 ticket" or "N tickets".
func QuantityLabel(n int) string {
	if n == 1 {
		return "1 ticket"
	}
	return fmt.Sprintf("%d tickets", n)
}
