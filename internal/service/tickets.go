package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

// TicketStore is the ticket persistence used by the admin operations.
type TicketStore interface {
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	List(ctx context.Context) ([]model.Ticket, error)
	Update(ctx context.Context, t *model.Ticket) error
	Delete(ctx context.Context, id string) error
}

// ErrNoReceipt is returned by Receipt for a ticket without receipt data.
var ErrNoReceipt = errors.New("no receipt uploaded for this ticket")

// TicketList is the admin ticket listing.  Total counts rows;
// TotalTickets sums quantities.
type TicketList struct {
	Total        int            `json:"total"`
	TotalTickets int            `json:"total_tickets"`
	CheckedIn    int            `json:"checked_in"`
	Tickets      []model.Ticket `json:"tickets"`
}

// TicketUpdate is a partial edit.  Nil fields are left unchanged.
type TicketUpdate struct {
	Name          *string `json:"name" validate:"omitnil,required,max=255"`
	Email         *string `json:"email" validate:"omitnil,required,ticketemail,max=255"`
	Phone         *string `json:"phone" validate:"omitnil,required,max=64"`
	TicketType    *string `json:"ticket_type" validate:"omitnil,required,max=64"`
	ShowDate      *string `json:"show_date" validate:"omitnil,required,max=32"`
	Quantity      *int    `json:"quantity" validate:"omitnil,min=1,max=10"`
	PaymentStatus *string `json:"payment_status" validate:"omitnil,oneof=pending receipt_uploaded"`
}

func (u *TicketUpdate) normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(u.Name)
	trim(u.Phone)
	trim(u.TicketType)
	trim(u.ShowDate)
	trim(u.PaymentStatus)
	if u.Email != nil {
		*u.Email = strings.ToLower(strings.TrimSpace(*u.Email))
	}
}

// TicketAdmin implements the administrative ticket operations.  Edits
// are overrides and are not checked against capacity.
type TicketAdmin struct {
	store TicketStore
	audit *AuditRecorder
	log   logrus.FieldLogger
}

// NewTicketAdmin returns a TicketAdmin.
func NewTicketAdmin(store TicketStore, audit *AuditRecorder, log logrus.FieldLogger) *TicketAdmin {
	return &TicketAdmin{store: store, audit: audit, log: log}
}

// List returns all tickets, newest first, with totals.
func (s *TicketAdmin) List(ctx context.Context) (*TicketList, error) {
	tickets, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	out := &TicketList{Total: len(tickets), Tickets: tickets}
	for _, t := range tickets {
		out.TotalTickets += t.Quantity
		if t.CheckedIn {
			out.CheckedIn++
		}
	}
	return out, nil
}

// Receipt returns the ticket with its receipt data.  ErrNoReceipt is
// returned when nothing was uploaded.
func (s *TicketAdmin) Receipt(ctx context.Context, id string) (*model.Ticket, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.HasReceipt() {
		return nil, ErrNoReceipt
	}
	return t, nil
}

// Update applies u to the ticket and records an edit_ticket entry listing
// every changed field.  repository.ErrTicketNotFound is returned for an
// unknown id.
func (s *TicketAdmin) Update(ctx context.Context, role, id string, u TicketUpdate) (*model.Ticket, error) {
	u.normalize()
	if err := validateStruct(&u); err != nil {
		return nil, err
	}
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var changes []string
	setText := func(field string, dst *string, v *string) {
		if v != nil && *v != *dst {
			changes = append(changes, fmt.Sprintf("%s: '%s' -> '%s'", field, *dst, *v))
			*dst = *v
		}
	}
	setText("name", &t.Name, u.Name)
	setText("email", &t.Email, u.Email)
	setText("phone", &t.Phone, u.Phone)
	setText("ticket_type", &t.TicketType, u.TicketType)
	setText("show_date", &t.ShowDate, u.ShowDate)
	if u.Quantity != nil && *u.Quantity != t.Quantity {
		changes = append(changes, fmt.Sprintf("quantity: %d -> %d", t.Quantity, *u.Quantity))
		t.Quantity = *u.Quantity
	}
	setText("payment_status", &t.PaymentStatus, u.PaymentStatus)

	if len(changes) > 0 {
		if err := s.store.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("update ticket %s: %w", id, err)
		}
	}
	detail := fmt.Sprintf("Edited ticket for %s (ID: %s...)", t.Name, t.ShortID())
	if len(changes) > 0 {
		detail += "; changes: " + strings.Join(changes, ", ")
	}
	s.audit.Record(ctx, role, model.ActionEditTicket, detail)
	return t, nil
}

// Delete removes a ticket and records a delete_ticket entry describing
// it.  repository.ErrTicketNotFound is returned for an unknown id.
func (s *TicketAdmin) Delete(ctx context.Context, role, id string) error {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, role, model.ActionDeleteTicket, fmt.Sprintf(
		"Deleted ticket for %s (%s) - %s, %s x%d (ID: %s...)",
		t.Name, t.Email, t.ShowDate, t.TicketType, t.Quantity, t.ShortID()))
	s.log.WithField("ticket_id", id).Info("ticket deleted")
	return nil
}

var _ TicketStore = (*repository.TicketRepo)(nil)
