package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/metrics"
	"github.com/iliyamo/theatre-ticketing/internal/model"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
)

// CheckInStore performs the conditional check-in write.
type CheckInStore interface {
	MarkCheckedIn(ctx context.Context, id string, at time.Time) (*model.Ticket, error)
}

// AlreadyCheckedInError is returned for a repeat scan.  At is the time of
// the first, successful scan.
type AlreadyCheckedInError struct {
	Ticket *model.Ticket
	At     time.Time
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("Ticket already checked in at %s.", e.At.UTC().Format("15:04:05"))
}

func (e *AlreadyCheckedInError) Unwrap() error { return repository.ErrAlreadyCheckedIn }

// CheckInResult is a successful check-in.
type CheckInResult struct {
	Ticket  *model.Ticket
	Message string
}

// CheckIn moves tickets from not-checked-in to checked-in, once.
type CheckIn struct {
	store CheckInStore
	audit *AuditRecorder
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewCheckIn returns a CheckIn service.
func NewCheckIn(store CheckInStore, audit *AuditRecorder, log logrus.FieldLogger) *CheckIn {
	return &CheckIn{store: store, audit: audit, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// CheckIn marks the ticket as used.  An unknown id yields
// repository.ErrTicketNotFound; a ticket scanned before yields
// *AlreadyCheckedInError and its stored time is left untouched.
func (s *CheckIn) CheckIn(ctx context.Context, role, ticketID string) (*CheckInResult, error) {
	if ticketID == "" {
		metrics.CheckIns.WithLabelValues("not_found").Inc()
		return nil, repository.ErrTicketNotFound
	}
	t, err := s.store.MarkCheckedIn(ctx, ticketID, s.now())
	switch {
	case errors.Is(err, repository.ErrAlreadyCheckedIn):
		metrics.CheckIns.WithLabelValues("already").Inc()
		at := time.Time{}
		if t != nil && t.CheckedInAt != nil {
			at = *t.CheckedInAt
		}
		return nil, &AlreadyCheckedInError{Ticket: t, At: at}
	case errors.Is(err, repository.ErrTicketNotFound):
		metrics.CheckIns.WithLabelValues("not_found").Inc()
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("check in %s: %w", ticketID, err)
	}
	metrics.CheckIns.WithLabelValues("success").Inc()
	s.audit.Record(ctx, role, model.ActionCheckin,
		fmt.Sprintf("Checked in %s (%s, %s x%d)", t.Name, t.ShowDate, t.TicketType, t.Quantity))
	s.log.WithField("ticket_id", t.ID).Info("ticket checked in")
	return &CheckInResult{Ticket: t, Message: fmt.Sprintf("Welcome, %s!", t.Name)}, nil
}
