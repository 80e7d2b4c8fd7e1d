// Package auth hashes and verifies account passwords.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("password does not match")

// PasswordHasher hashes passwords and verifies them against stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	// CompareDummy burns the same time as Compare for callers with no stored hash.
	CompareDummy(password string)
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost  int
	dummy []byte
}

// NewBcryptHasher returns a hasher using cost; values outside bcrypt's range fall back to the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("fitcraft-timing-equalizer"), cost)
	return &BcryptHasher{cost: cost, dummy: dummy}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

func (h *BcryptHasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
