package utils // package utils provides helpers for ticket ids, admin keys and role tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidRoleToken is returned for a token that fails signature,
// expiry or claim checks.
var ErrInvalidRoleToken = errors.New("invalid role token")

// RoleToken is a signed JWT granting one admin access tier until Exp.
// The admin UI receives it from the ping endpoint and presents it as
// "Authorization: Bearer <token>" instead of resending the raw key.
type RoleToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// roleClaims carries the access tier in the "access" claim alongside the
// registered claims.
type roleClaims struct {
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// NewRoleToken builds and signs an HS256 JWT for an access tier.  The
// token includes the tier, an issued-at time and an expiry ttl from now.
func NewRoleToken(secret, access string, ttl time.Duration) (RoleToken, error) {
	if secret == "" {
		return RoleToken{}, errors.New("role token secret not configured")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := roleClaims{
		Access: access,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   access,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return RoleToken{}, err
	}
	return RoleToken{Token: signed, Exp: exp}, nil
}

// ParseRoleToken verifies a token signed by NewRoleToken and returns its
// access tier.  Only HS256 is accepted.
func ParseRoleToken(secret, token string) (string, error) {
	if secret == "" {
		return "", ErrInvalidRoleToken
	}
	var claims roleClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoleToken, err)
	}
	if !parsed.Valid || claims.Access == "" {
		return "", ErrInvalidRoleToken
	}
	return claims.Access, nil
}
