// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/store"
)

// SessionTokenBytes is the entropy of a session token; 32 bytes = 64 hex chars.
const SessionTokenBytes = 32

// SessionToken is the opaque value kept in the client's session cookie.
type SessionToken string

// SessionStore persists sessions by the SHA-256 hash of their token.
type SessionStore interface {
	// Create stores a new session for userID.
	Create(ctx context.Context, q store.Querier, userID UserID, tokenHash string) error

	// UserByTokenHash returns the owner of the session. The error wraps
	// ErrNotFound when no session has that hash.
	UserByTokenHash(ctx context.Context, q store.Querier, tokenHash string) (UserID, error)

	// DeleteByUser removes every session of userID and returns how many
	// were removed.
	DeleteByUser(ctx context.Context, q store.Querier, userID UserID) (int64, error)

	// DeleteByTokenHash removes the single session with that hash.
	DeleteByTokenHash(ctx context.Context, q store.Querier, tokenHash string) error
}

// GenerateSessionToken creates a random token and its hash.
// The token is sent to the client; the hash is stored in the database.
func GenerateSessionToken() (token SessionToken, hash string, err error) {
	b := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}
	token = SessionToken(hex.EncodeToString(b))
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA-256 hex digest of a session token.
func HashSessionToken(token SessionToken) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// WellFormedSessionToken reports whether token has the shape
// GenerateSessionToken produces: 64 lowercase hex characters.
func WellFormedSessionToken(token string) bool {
	if len(token) != 2*SessionTokenBytes {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// SessionManager issues, resolves and revokes server-side sessions.
type SessionManager struct {
	sessions SessionStore
	logger   *slog.Logger
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(sessions SessionStore, logger *slog.Logger) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &SessionManager{sessions: sessions, logger: logger}, nil
}

// Issue creates a new session for userID. Existing sessions of the user are
// left untouched.
func (m *SessionManager) Issue(ctx context.Context, q store.Querier, userID UserID) (SessionToken, error) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		return "", err
	}
	if err := m.sessions.Create(ctx, q, userID, hash); err != nil {
		return "", oops.With("operation", "issue session").With("user_id", userID).Wrap(err)
	}
	return token, nil
}

// Resolve returns the owner of the session token. A missing, malformed or
// unknown token reports false; storage failures are logged and also report
// false so the request continues anonymously.
func (m *SessionManager) Resolve(ctx context.Context, q store.Querier, token string) (UserID, bool) {
	if !WellFormedSessionToken(token) {
		return 0, false
	}
	userID, err := m.sessions.UserByTokenHash(ctx, q, HashSessionToken(SessionToken(token)))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.WarnContext(ctx, "session lookup failed, treating request as anonymous", "error", err)
		}
		return 0, false
	}
	return userID, true
}

// RevokeAll deletes every session of userID.
func (m *SessionManager) RevokeAll(ctx context.Context, q store.Querier, userID UserID) error {
	n, err := m.sessions.DeleteByUser(ctx, q, userID)
	if err != nil {
		return oops.With("operation", "revoke sessions").With("user_id", userID).Wrap(err)
	}
	m.logger.DebugContext(ctx, "sessions revoked", "user_id", userID, "count", n)
	return nil
}

// Revoke deletes the one session identified by token. Malformed tokens are
// ignored.
func (m *SessionManager) Revoke(ctx context.Context, q store.Querier, token SessionToken) error {
	if !WellFormedSessionToken(string(token)) {
		return nil
	}
	if err := m.sessions.DeleteByTokenHash(ctx, q, HashSessionToken(token)); err != nil {
		return oops.With("operation", "revoke session").Wrap(err)
	}
	return nil
}
