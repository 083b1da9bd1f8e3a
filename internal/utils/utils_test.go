package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewTicketID(t *testing.T) {
	urlSafe := regexp.MustCompile(`^[A-Za-z0-9_-]{22}$`)
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewTicketID()
		require.NoError(t, err)
		assert.Regexp(t, urlSafe, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestKeyRing(t *testing.T) {
	hash := func(k string) string {
		h, err := HashKey(k, bcrypt.MinCost)
		require.NoError(t, err)
		return h
	}
	ring := NewKeyRing(
		KeyEntry{Access: "dashboard", Hash: hash("dash-key")},
		KeyEntry{Access: "finance", Hash: ""},
		KeyEntry{Access: "scanner", Hash: hash("scan-key")},
	)
	assert.Equal(t, 2, ring.Len(), "unset tiers are dropped")

	access, ok := ring.Match(" scan-key ")
	assert.True(t, ok)
	assert.Equal(t, "scanner", access)

	_, ok = ring.Match("")
	assert.False(t, ok, "empty key never matches an unset tier")
	_, ok = ring.Match("wrong")
	assert.False(t, ok)
}

func TestRoleTokenRoundTrip(t *testing.T) {
	tok, err := NewRoleToken("s3cret", "finance", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	access, err := ParseRoleToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "finance", access)
}

func TestRoleTokenRejected(t *testing.T) {
	tok, err := NewRoleToken("s3cret", "scanner", time.Hour)
	require.NoError(t, err)
	expired, err := NewRoleToken("s3cret", "scanner", -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"access": "dashboard",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct{ secret, token string }{
		"wrong secret": {"other", tok.Token},
		"tampered":     {"s3cret", tok.Token + "x"},
		"expired":      {"s3cret", expired.Token},
		"alg none":     {"s3cret", none},
		"secret unset": {"", tok.Token},
		"not a token":  {"s3cret", "garbage"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRoleToken(tc.secret, tc.token)
			assert.ErrorIs(t, err, ErrInvalidRoleToken)
		})
	}

	_, err = NewRoleToken("", "scanner", time.Hour)
	assert.Error(t, err)
}
