package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashKey returns the bcrypt hash of an admin key using the given cost.
func HashKey(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyKey safely compares a bcrypt hash and a presented key.
func VerifyKey(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// KeyEntry binds an access tier to the bcrypt hash of its key.
type KeyEntry struct {
	Access string
	Hash   string
}

// KeyRing holds the admin keys as hashes only.  Entries are tried in
// order, so a key shared by two tiers resolves to the earlier one.
type KeyRing struct {
	entries []KeyEntry
}

// NewKeyRing returns a KeyRing over entries.  Entries with an empty hash
// are dropped so an unset tier can never match.
func NewKeyRing(entries ...KeyEntry) *KeyRing {
	kr := &KeyRing{}
	for _, e := range entries {
		if e.Hash != "" {
			kr.entries = append(kr.entries, e)
		}
	}
	return kr
}

// Match returns the first tier whose hash accepts key.
func (k *KeyRing) Match(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	for _, e := range k.entries {
		if VerifyKey(e.Hash, key) {
			return e.Access, true
		}
	}
	return "", false
}

// Len reports how many tiers are configured.
func (k *KeyRing) Len() int { return len(k.entries) }
