// Package queue defines the notification payload handed off after a
// registration commits, and the two ways it travels to the email worker:
// a RabbitMQ queue or an in-process buffered channel.
package queue

import "context"

// TicketRegisteredQueue is the durable queue carrying registration events.
const TicketRegisteredQueue = "ticket.registered"

// TicketRegisteredEvent is published once a registration is stored.  It
// carries everything the confirmation email needs so the worker never
// reads the primary database.
type TicketRegisteredEvent struct {
	TicketID      string `json:"ticket_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	TicketType    string `json:"ticket_type"`
	ShowDate      string `json:"show_date"`
	ShowTime      string `json:"show_time"`
	Quantity      int    `json:"quantity"`
	PaymentStatus string `json:"payment_status"`
	EventName     string `json:"event_name"`
	RegisteredAt  string `json:"registered_at"`
}

// Handler processes one event.  A returned error is logged by the caller
// and the event is dropped.
type Handler func(ctx context.Context, ev TicketRegisteredEvent) error
