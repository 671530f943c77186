// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package auth

import (
	"context"

	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/store"
)

// MinPasswordLength is the minimum password length in bytes.
const MinPasswordLength = 10

// UserID identifies a user.
type UserID int64

// User is a registered account.
type User struct {
	ID           UserID
	Name         string
	PasswordHash string
}

// RegistrationForm is the input of Gateway.Register.
type RegistrationForm struct {
	Name           string
	Password       string
	RepeatPassword string
}

// Validate checks the password rules. Confirmation equality is checked
// before length, so a short mismatched pair reports PasswordsNotIdentical.
// The name rule is enforced by storage.
func (f RegistrationForm) Validate() error {
	if f.Password != f.RepeatPassword {
		return oops.Code(KindPasswordsNotIdentical.String()).Errorf("passwords are not identical")
	}
	if len(f.Password) < MinPasswordLength {
		return oops.Code(KindPasswordTooShort.String()).
			With("min_length", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// LoginForm is the input of Gateway.Login.
type LoginForm struct {
	Name     string
	Password string
	CSRF     string
}

// CredentialStore persists users.
type CredentialStore interface {
	// Register inserts a user and returns its id. Fails with DuplicateUser
	// when the name is taken, InvalidName when storage rejects the name and
	// StorageUnavailable otherwise.
	Register(ctx context.Context, q store.Querier, name, passwordHash string) (UserID, error)

	// FindByName returns the user with the given name. The error wraps
	// ErrNotFound and carries UnknownUser when no such user exists.
	FindByName(ctx context.Context, q store.Querier, name string) (*User, error)
}
