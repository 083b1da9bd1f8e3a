// Package repository holds the raw-SQL data access for tickets, settings
// and the audit log, plus the sentinel errors shared between them.
// Handlers and services distinguish failure cases with errors.Is rather
// than inspecting driver errors.
package repository

import "errors"

// ErrTicketNotFound is returned when no ticket has the requested ID.
// Handlers translate this into an HTTP 404 response.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrAlreadyCheckedIn is returned by MarkCheckedIn when the ticket was
// scanned before.  The ticket returned alongside it carries the original
// check-in time.  Handlers translate this into an HTTP 409 response.
var ErrAlreadyCheckedIn = errors.New("ticket already checked in")
