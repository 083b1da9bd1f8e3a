package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// ticketIDBytes is the entropy of a ticket id: 128 bits.
const ticketIDBytes = 16

// NewTicketID returns a random URL-safe identifier (22 characters,
// unpadded base64url).  It is the ticket's primary key and its QR payload.
func NewTicketID() (string, error) {
	buf := make([]byte, ticketIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
