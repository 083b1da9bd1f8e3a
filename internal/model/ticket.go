package model

import "time"

// Payment states a ticket can be in.  The state is derived at creation
// from whether a receipt was supplied and is never taken from the client.
const (
	PaymentPending         = "pending"
	PaymentReceiptUploaded = "receipt_uploaded"
)

// Legacy ticket type names used when no structured type list is configured.
const (
	TypeEarlyBird = "Early Bird"
	TypeStandard  = "Standard"
)

// Ticket is one registration for a show date.  The opaque ID doubles as
// the QR payload scanned at the door.
//
// Fields:
//  ID              – unguessable URL-safe identifier (primary key).
//  Name            – holder name.
//  Email           – lower-cased holder email.
//  Phone           – holder phone.
//  TicketType      – free-form type name matched against the catalog.
//  ShowDate        – ISO date string matched against the configured dates.
//  Quantity        – number of admissions, 1..10.
//  ReceiptData     – base64 data URI of the payment receipt (nullable).
//  ReceiptFilename – original receipt filename (nullable).
//  PaymentStatus   – pending or receipt_uploaded.
//  CheckedIn       – whether the ticket was scanned at the door.
//  CheckedInAt     – when it was scanned; non-nil iff CheckedIn.
//  CreatedAt       – insert timestamp.
type Ticket struct {
	ID              string     `json:"ticket_id"`        // tickets.ticket_id
	Name            string     `json:"name"`             // tickets.name
	Email           string     `json:"email"`            // tickets.email
	Phone           string     `json:"phone"`            // tickets.phone
	TicketType      string     `json:"ticket_type"`      // tickets.ticket_type
	ShowDate        string     `json:"show_date"`        // tickets.show_date
	Quantity        int        `json:"quantity"`         // tickets.quantity
	ReceiptData     *string    `json:"-"`                // tickets.receipt_data (nullable)
	ReceiptFilename *string    `json:"receipt_filename"` // tickets.receipt_filename (nullable)
	PaymentStatus   string     `json:"payment_status"`   // tickets.payment_status
	CheckedIn       bool       `json:"checked_in"`       // tickets.checked_in
	CheckedInAt     *time.Time `json:"checked_in_at"`    // tickets.checked_in_at (nullable)
	CreatedAt       time.Time  `json:"created_at"`       // tickets.created_at
}

// HasReceipt reports whether receipt data was stored with the ticket.
func (t *Ticket) HasReceipt() bool {
	return t.ReceiptData != nil && *t.ReceiptData != ""
}

// ShortID is the first eight characters of the ID, used in audit details.
func (t *Ticket) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	return t.ID[:8]
}
