// Package credentials hashes and verifies user passwords with bcrypt.
//
// bcrypt ignores input beyond 72 bytes (golang.org/x/crypto rejects it), so
// every password goes through Truncate on both the write and the read path.
// Truncation never splits a multi-byte UTF-8 character: the cut backs off to
// the previous rune boundary.
package credentials

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's valid range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of the truncated password. Two calls with
// the same password produce different hashes.
func (h *Hasher) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(Truncate(password), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *Hasher) Verify(password string, hash []byte) bool {
	err := bcrypt.CompareHashAndPassword(hash, Truncate(password))
	return err == nil
}

// Truncate returns at most MaxPasswordBytes of password, cut on a rune boundary.
func Truncate(password string) []byte {
	b := []byte(password)
	if len(b) <= MaxPasswordBytes {
		return b
	}
	cut := MaxPasswordBytes
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return b[:cut]
}
