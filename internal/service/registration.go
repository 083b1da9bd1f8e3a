package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/metrics"
	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/queue"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
	"github.com/iliyamo/theatre-ticketing/internal/utils"
)

// RegistrationRequest is the body of POST /api/register.  Quantity
// defaults to 1 when omitted.
type RegistrationRequest struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Email           string  `json:"email" validate:"required,ticketemail,max=255"`
	Phone           string  `json:"phone" validate:"required,max=64"`
	TicketType      string  `json:"ticket_type" validate:"required,max=64"`
	ShowDate        string  `json:"show_date" validate:"required,max=32"`
	Quantity        *int    `json:"quantity" validate:"omitnil,min=1,max=10"`
	ReceiptData     *string `json:"receipt_data"`
	ReceiptFilename *string `json:"receipt_filename"`
}

// normalize trims the text fields and lower-cases the email.
func (r *RegistrationRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.TicketType = strings.TrimSpace(r.TicketType)
	r.ShowDate = strings.TrimSpace(r.ShowDate)
}

func (r *RegistrationRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// ReservationStore runs a capacity check and insert under the lock of
// one show date.
type ReservationStore interface {
	Reserve(ctx context.Context, showDate string, fn func(repository.ReservationTx) error) error
}

// Notifier hands a registration event to the email pipeline.
type Notifier interface {
	Publish(ctx context.Context, ev queue.TicketRegisteredEvent) error
}

// Registrar accepts or rejects registrations and stores accepted ones.
type Registrar struct {
	settings      *SettingsResolver
	store         ReservationStore
	notifier      Notifier
	notifyTimeout time.Duration
	log           logrus.FieldLogger

	now   func() time.Time
	newID func() (string, error)
}

// NewRegistrar returns a Registrar.  A nil notifier disables
// notifications.
func NewRegistrar(settings *SettingsResolver, store ReservationStore, notifier Notifier, notifyTimeout time.Duration, log logrus.FieldLogger) *Registrar {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &Registrar{
		settings:      settings,
		store:         store,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         utils.NewTicketID,
	}
}

// Register validates req, checks capacity and stores the ticket.  The
// check and the insert run in one unit of work locked on the show date,
// so concurrent registrations for a date cannot oversell it.  A
// rejection is a *CapacityError and writes nothing.  After the ticket is
// stored the notifier is called; its failure is logged and never
// returned.
func (r *Registrar) Register(ctx context.Context, req RegistrationRequest) (*model.Ticket, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		metrics.Registrations.WithLabelValues("invalid").Inc()
		return nil, err
	}
	settings, err := r.settings.Resolve(ctx)
	if err != nil {
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, err
	}
	cat := settings.Catalog()
	qty := req.quantity()

	id, err := r.newID()
	if err != nil {
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("generate ticket id: %w", err)
	}
	t := &model.Ticket{
		ID:              id,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		TicketType:      req.TicketType,
		ShowDate:        req.ShowDate,
		Quantity:        qty,
		ReceiptData:     req.ReceiptData,
		ReceiptFilename: req.ReceiptFilename,
		PaymentStatus:   model.PaymentPending,
		CreatedAt:       r.now(),
	}
	if t.HasReceipt() {
		t.PaymentStatus = model.PaymentReceiptUploaded
	}

	start := time.Now()
	err = r.store.Reserve(ctx, req.ShowDate, func(tx repository.ReservationTx) error {
		if _, err := CheckCapacity(ctx, tx, cat, req.ShowDate, req.TicketType, qty); err != nil {
			return err
		}
		return tx.Insert(ctx, t)
	})
	metrics.ReservationDuration.Observe(time.Since(start).Seconds())

	log := r.log.WithFields(logrus.Fields{
		"show_date":   req.ShowDate,
		"ticket_type": req.TicketType,
		"quantity":    qty,
	})
	var capErr *CapacityError
	switch {
	case errors.As(err, &capErr):
		metrics.Registrations.WithLabelValues("rejected").Inc()
		log.WithField("remaining", capErr.Remaining).Info("registration rejected")
		return nil, err
	case err != nil:
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reserve ticket: %w", err)
	}
	metrics.Registrations.WithLabelValues("accepted").Inc()
	metrics.TicketsSold.WithLabelValues(soldLabels(cat, t.ShowDate, t.TicketType)...).Add(float64(qty))
	log.WithField("ticket_id", t.ID).Info("ticket registered")

	r.notify(ctx, t, settings.EventName, cat.TimeFor(t.ShowDate))
	return t, nil
}

// otherLabel stands in for dates and types outside the catalog, which
// clients may send freely.
const otherLabel = "other"

// soldLabels returns the show_date and ticket_type label values, keeping
// the label set bounded by the catalog.
func soldLabels(cat model.Catalog, date, ticketType string) []string {
	if !cat.HasDate(date) {
		date = otherLabel
	}
	if !cat.Types.Known(ticketType) {
		ticketType = otherLabel
	}
	return []string{date, ticketType}
}

// notify publishes the registration event under the notify timeout.
func (r *Registrar) notify(ctx context.Context, t *model.Ticket, eventName, showTime string) {
	if r.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.notifyTimeout)
	defer cancel()
	log := r.log.WithField("ticket_id", t.ID)
	defer func() {
		if p := recover(); p != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			log.WithField("panic", p).Error("notifier panicked")
		}
	}()
	ev := queue.TicketRegisteredEvent{
		TicketID:      t.ID,
		Name:          t.Name,
		Email:         t.Email,
		TicketType:    t.TicketType,
		ShowDate:      t.ShowDate,
		ShowTime:      showTime,
		Quantity:      t.Quantity,
		PaymentStatus: t.PaymentStatus,
		EventName:     eventName,
		RegisteredAt:  t.CreatedAt.Format(time.RFC3339),
	}
	if err := r.notifier.Publish(ctx, ev); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		log.WithError(err).Error("failed to queue confirmation email")
		return
	}
	metrics.Notifications.WithLabelValues("queued").Inc()
}
