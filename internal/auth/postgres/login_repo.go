// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package postgres

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/auth"
	"github.com/sharebox/sharebox/internal/store"
)

// LoginRepository implements auth.LoginStore. Addresses are stored in an
// inet column with a full host mask (/32 or /128).
type LoginRepository struct{}

// NewLoginRepository creates a new LoginRepository.
func NewLoginRepository() *LoginRepository {
	return &LoginRepository{}
}

// hostPrefix returns ip as a single-host network value. The zone of an
// IPv6 address is dropped.
func hostPrefix(ip netip.Addr) netip.Prefix {
	ip = ip.Unmap().WithZone("")
	return netip.PrefixFrom(ip, ip.BitLen())
}

// LastIP returns the address of the user's most recent attempt.
func (r *LoginRepository) LastIP(ctx context.Context, q store.Querier, userID auth.UserID) (netip.Addr, error) {
	var ip netip.Prefix
	err := q.QueryRow(ctx, `
		SELECT ip FROM logins
		WHERE user_id = $1
		ORDER BY time DESC, login_id DESC
		LIMIT 1
	`, int64(userID)).Scan(&ip)
	if errors.Is(err, pgx.ErrNoRows) {
		return netip.Addr{}, oops.Code("LOGIN_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return netip.Addr{}, oops.Code(store.CodeUnavailable).
			With("operation", "get last login address").
			With("user_id", userID).
			Wrap(err)
	}
	return ip.Addr(), nil
}

// Insert appends an attempt.
func (r *LoginRepository) Insert(ctx context.Context, q store.Querier, userID auth.UserID, ip netip.Addr, successful bool) error {
	_, err := q.Exec(ctx, `
		INSERT INTO logins (ip, user_id, successful)
		VALUES ($1, $2, $3)
	`, hostPrefix(ip), int64(userID), successful)
	if err != nil {
		return oops.Code(store.CodeUnavailable).
			With("operation", "insert login attempt").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}

// Recent returns up to limit attempts with the given outcome, newest first.
func (r *LoginRepository) Recent(ctx context.Context, q store.Querier, userID auth.UserID, successful bool, limit int) ([]auth.LoginAttempt, error) {
	rows, err := q.Query(ctx, `
		SELECT login_id, ip, user_id, time, successful
		FROM logins
		WHERE user_id = $1 AND successful = $2
		ORDER BY time DESC, login_id DESC
		LIMIT $3
	`, int64(userID), successful, limit)
	if err != nil {
		return nil, oops.Code(store.CodeUnavailable).
			With("operation", "list login attempts").
			With("user_id", userID).
			Wrap(err)
	}
	defer rows.Close()

	attempts := make([]auth.LoginAttempt, 0, limit)
	for rows.Next() {
		var (
			id, owner int64
			ip        netip.Prefix
			at        time.Time
			ok        bool
		)
		if err := rows.Scan(&id, &ip, &owner, &at, &ok); err != nil {
			return nil, oops.Code(store.CodeUnavailable).
				With("operation", "scan login attempt").
				Wrap(err)
		}
		attempts = append(attempts, auth.LoginAttempt{
			ID:         id,
			UserID:     auth.UserID(owner),
			IP:         ip.Addr(),
			Time:       at,
			Successful: ok,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code(store.CodeUnavailable).
			With("operation", "iterate login attempts").
			Wrap(err)
	}
	return attempts, nil
}

// Compile-time interface check.
var _ auth.LoginStore = (*LoginRepository)(nil)
