// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor of hashes produced by NewBcryptHasher.
const BcryptCost = 10

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or a
	// HashingFailure error when the stored hash is malformed.
	Verify(password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with BcryptCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

// NewBcryptHasherWithCost creates a BcryptHasher with the given cost.
// A cost above bcrypt.MaxCost makes every Hash call fail.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt hash of the password with a fresh salt.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code(KindHashingFailure.String()).
			With("operation", "hash password").
			With("cost", h.cost).
			Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code(KindHashingFailure.String()).
			With("operation", "verify password").
			Wrap(err)
	}
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
