// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations counts registration attempts by outcome
	// (accepted, rejected, invalid, error).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// TicketsSold counts admissions accepted, by show date and type.
	TicketsSold = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_sold_total",
			Help: "Admissions accepted by show date and ticket type",
		},
		[]string{"show_date", "ticket_type"},
	)

	// CheckIns counts door scans by outcome (success, already, not_found).
	CheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_checkins_total",
			Help: "Check-in scans by outcome",
		},
		[]string{"outcome"},
	)

	// Notifications counts hand-offs to the notifier (queued, failed).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_notifications_total",
			Help: "Registration notifications handed to the notifier",
		},
		[]string{"status"},
	)

	// Emails counts confirmation emails by status (sent, skipped, failed).
	Emails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_emails_total",
			Help: "Confirmation emails by delivery status",
		},
		[]string{"status"},
	)

	// AuditFailures counts audit entries that could not be written.
	AuditFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_audit_write_failures_total",
			Help: "Audit log writes that failed and were dropped",
		},
	)

	// ReservationDuration observes the locked check-and-insert section.
	ReservationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketing_reservation_duration_seconds",
			Help:    "Time spent holding the show date lock",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)
)
