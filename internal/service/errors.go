// Package service implements the registration core: settings resolution,
// capacity decisions, ticket writes, check-in and audit recording, plus
// the admin operations built on them.
package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed input.  Messages are meant to be
// shown to the caller as-is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// CapacityError rejects a registration that would exceed a limit.
// TicketType is empty when the venue-wide capacity was the binding one.
type CapacityError struct {
	Remaining  int
	TicketType string
	legacyEB   bool
}

func (e *CapacityError) Error() string {
	switch {
	case e.TicketType == "":
		return fmt.Sprintf("Only %d ticket(s) remaining for this date. Please reduce your quantity.", e.Remaining)
	case e.legacyEB:
		return fmt.Sprintf("Only %d Early Bird ticket(s) remaining for this date. Please reduce your quantity or choose Standard.", e.Remaining)
	default:
		return fmt.Sprintf("Only %d %s ticket(s) remaining for this date.", e.Remaining, e.TicketType)
	}
}
