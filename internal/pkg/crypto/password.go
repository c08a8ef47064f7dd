// Package crypto provides cryptographic utilities for the City Guide server.
package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = bcrypt.DefaultCost

// ErrPasswordTooLong indicates the password exceeds bcrypt's 72-byte input limit.
var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against when the user does not exist, so that a
// failed lookup costs the same as a failed password check.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cityguide-timing-parity"), DefaultCost)

// BurnVerification performs a password comparison whose result is discarded.
func BurnVerification(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
