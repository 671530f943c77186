// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/auth"
	"github.com/sharebox/sharebox/internal/store"
)

// UserRepository implements auth.CredentialStore.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Register inserts a user and returns its id.
func (r *UserRepository) Register(ctx context.Context, q store.Querier, name, passwordHash string) (auth.UserID, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO users (name, password_hash)
		VALUES ($1, $2)
		RETURNING user_id
	`, name, passwordHash).Scan(&id)
	if err == nil {
		return auth.UserID(id), nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return 0, oops.Code(auth.KindDuplicateUser.String()).
				With("name", name).
				Errorf("user already exists")
		case pgerrcode.CheckViolation, pgerrcode.StringDataRightTruncationDataException:
			return 0, oops.Code(auth.KindInvalidName.String()).
				With("name", name).
				With("constraint", pgErr.ConstraintName).
				Errorf("name must consist of letters only")
		}
	}
	return 0, oops.Code(store.CodeUnavailable).
		With("operation", "insert user").
		Wrap(err)
}

// FindByName retrieves a user by exact name.
func (r *UserRepository) FindByName(ctx context.Context, q store.Querier, name string) (*auth.User, error) {
	var (
		id   int64
		user = &auth.User{}
	)
	err := q.QueryRow(ctx, `
		SELECT user_id, name, password_hash
		FROM users
		WHERE name = $1
	`, name).Scan(&id, &user.Name, &user.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(auth.KindUnknownUser.String()).
			With("name", name).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code(store.CodeUnavailable).
			With("operation", "get user by name").
			Wrap(err)
	}
	user.ID = auth.UserID(id)
	return user, nil
}

// Compile-time interface check.
var _ auth.CredentialStore = (*UserRepository)(nil)
