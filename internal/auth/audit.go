// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/store"
)

// Limits applied by LoginAuditor.Recent.
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// LoginAttempt is one row of the login audit trail.
type LoginAttempt struct {
	ID         int64
	UserID     UserID
	IP         netip.Addr
	Time       time.Time
	Successful bool
}

// LoginStore persists login attempts.
type LoginStore interface {
	// LastIP returns the address of the user's most recent attempt. The
	// error wraps ErrNotFound when the user has none.
	LastIP(ctx context.Context, q store.Querier, userID UserID) (netip.Addr, error)

	// Insert appends an attempt.
	Insert(ctx context.Context, q store.Querier, userID UserID, ip netip.Addr, successful bool) error

	// Recent returns up to limit attempts with the given outcome, newest first.
	Recent(ctx context.Context, q store.Querier, userID UserID, successful bool, limit int) ([]LoginAttempt, error)
}

// LoginAuditor records login attempts, skipping an attempt whose address
// equals the address of the user's previous attempt.
//
// The lookup and insert are not serialised; concurrent logins of one user
// may both insert or both skip.
type LoginAuditor struct {
	logins LoginStore
	logger *slog.Logger
}

// NewLoginAuditor creates a LoginAuditor.
func NewLoginAuditor(logins LoginStore, logger *slog.Logger) (*LoginAuditor, error) {
	if logins == nil {
		return nil, oops.Errorf("login store is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &LoginAuditor{logins: logins, logger: logger}, nil
}

// RecordAttempt appends an attempt for userID from ip unless the user's
// last recorded attempt came from the same address. The outcome of the
// previous attempt does not matter. Addresses are compared unmapped and
// without their IPv6 zone, the form in which they are stored.
func (a *LoginAuditor) RecordAttempt(ctx context.Context, q store.Querier, userID UserID, ip netip.Addr, succeeded bool) error {
	ip = ip.Unmap().WithZone("")

	last, err := a.logins.LastIP(ctx, q, userID)
	switch {
	case err == nil:
		if last.Unmap().WithZone("") == ip {
			a.logger.DebugContext(ctx, "login attempt from previous address not recorded", "user_id", userID)
			return nil
		}
	case errors.Is(err, ErrNotFound):
	default:
		return oops.With("operation", "record login attempt").With("user_id", userID).Wrap(err)
	}

	if err := a.logins.Insert(ctx, q, userID, ip, succeeded); err != nil {
		return oops.With("operation", "record login attempt").With("user_id", userID).Wrap(err)
	}
	return nil
}

// Recent returns the user's most recent attempts with the given outcome,
// newest first. A non-positive limit means DefaultRecentLimit; limits above
// MaxRecentLimit are capped.
func (a *LoginAuditor) Recent(ctx context.Context, q store.Querier, userID UserID, successful bool, limit int) ([]LoginAttempt, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	attempts, err := a.logins.Recent(ctx, q, userID, successful, limit)
	if err != nil {
		return nil, oops.With("operation", "list login attempts").With("user_id", userID).Wrap(err)
	}
	return attempts, nil
}
