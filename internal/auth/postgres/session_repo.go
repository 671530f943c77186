// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/auth"
	"github.com/sharebox/sharebox/internal/store"
)

// SessionRepository implements auth.SessionStore.
type SessionRepository struct{}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, q store.Querier, userID auth.UserID, tokenHash string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO sessions (token_hash, user_id)
		VALUES ($1, $2)
	`, tokenHash, int64(userID))
	if err != nil {
		return oops.Code(store.CodeUnavailable).
			With("operation", "insert session").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}

// UserByTokenHash returns the owner of the session with the given token hash.
func (r *SessionRepository) UserByTokenHash(ctx context.Context, q store.Querier, tokenHash string) (auth.UserID, error) {
	var id int64
	err := q.QueryRow(ctx, `
		SELECT user_id FROM sessions WHERE token_hash = $1
	`, tokenHash).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code(store.CodeUnavailable).
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return auth.UserID(id), nil
}

// DeleteByUser removes every session of the user.
func (r *SessionRepository) DeleteByUser(ctx context.Context, q store.Querier, userID auth.UserID) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, int64(userID))
	if err != nil {
		return 0, oops.Code(store.CodeUnavailable).
			With("operation", "delete sessions by user").
			With("user_id", userID).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByTokenHash removes the session with tokenHash, if any.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, q store.Querier, tokenHash string) error {
	if _, err := q.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return oops.Code(store.CodeUnavailable).
			With("operation", "delete session by token hash").
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.SessionStore = (*SessionRepository)(nil)
