// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"sync"

	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/store"
)

// Authenticated is the outcome of a successful registration or login.
type Authenticated struct {
	UserID UserID
	Token  SessionToken
}

// GatewayDeps are the collaborators of a Gateway.
type GatewayDeps struct {
	Tx       store.TxRunner
	Users    CredentialStore
	Hasher   PasswordHasher
	CSRF     *CSRFTokens
	Sessions *SessionManager
	Audit    *LoginAuditor
	Logger   *slog.Logger
}

// Gateway runs the registration, login and logout flows.
type Gateway struct {
	tx       store.TxRunner
	users    CredentialStore
	hasher   PasswordHasher
	csrf     *CSRFTokens
	sessions *SessionManager
	audit    *LoginAuditor
	logger   *slog.Logger

	// dummyHash is verified against when the login name is unknown so the
	// response takes as long as for a known name.
	dummyHash func() (string, error)
}

// timingPassword seeds the dummy hash. Its value never authenticates anyone.
const timingPassword = "sharebox-unknown-user" //nolint:gosec // G101: not a credential

// NewGateway creates a Gateway.
func NewGateway(deps GatewayDeps) (*Gateway, error) {
	switch {
	case deps.Tx == nil:
		return nil, oops.Errorf("transaction runner is required")
	case deps.Users == nil:
		return nil, oops.Errorf("credential store is required")
	case deps.Hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case deps.CSRF == nil:
		return nil, oops.Errorf("csrf tokens are required")
	case deps.Sessions == nil:
		return nil, oops.Errorf("session manager is required")
	case deps.Audit == nil:
		return nil, oops.Errorf("login auditor is required")
	case deps.Logger == nil:
		return nil, oops.Errorf("logger is required")
	}

	hasher := deps.Hasher
	return &Gateway{
		tx:        deps.Tx,
		users:     deps.Users,
		hasher:    hasher,
		csrf:      deps.CSRF,
		sessions:  deps.Sessions,
		audit:     deps.Audit,
		logger:    deps.Logger,
		dummyHash: sync.OnceValues(func() (string, error) { return hasher.Hash(timingPassword) }),
	}, nil
}

// Register validates the form, creates the user and issues its first session.
// The password is hashed before a storage handle is checked out. The user
// row and the session are written in one transaction.
func (g *Gateway) Register(ctx context.Context, form RegistrationForm) (Authenticated, error) {
	if err := form.Validate(); err != nil {
		return Authenticated{}, err
	}

	hash, err := g.hasher.Hash(form.Password)
	if err != nil {
		return Authenticated{}, err
	}

	var out Authenticated
	err = g.tx.WithTx(ctx, func(q store.Querier) error {
		userID, err := g.users.Register(ctx, q, form.Name, hash)
		if err != nil {
			return err
		}
		token, err := g.sessions.Issue(ctx, q, userID)
		if err != nil {
			return err
		}
		out = Authenticated{UserID: userID, Token: token}
		return nil
	})
	if err != nil {
		return Authenticated{}, oops.With("operation", "register").Wrap(err)
	}

	g.logger.InfoContext(ctx, "user registered", "user_id", out.UserID)
	return out, nil
}

// Login checks the CSRF token for ip, then the credentials. Attempts against
// a known user are recorded by the LoginAuditor; a session is issued only on
// success. Unknown names and wrong passwords fail alike with
// InvalidUserOrPassword.
func (g *Gateway) Login(ctx context.Context, form LoginForm, ip netip.Addr) (Authenticated, error) {
	if !g.csrf.Verify(ip, form.CSRF) {
		return Authenticated{}, oops.Code(KindCSRFMismatch.String()).Errorf("csrf token mismatch")
	}

	var user *User
	err := g.tx.WithTx(ctx, func(q store.Querier) error {
		var err error
		user, err = g.users.FindByName(ctx, q, form.Name)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		g.equaliseTiming(ctx, form.Password)
		return Authenticated{}, invalidCredentials()
	}
	if err != nil {
		return Authenticated{}, oops.With("operation", "login").Wrap(err)
	}

	valid, err := g.hasher.Verify(form.Password, user.PasswordHash)
	if err != nil {
		return Authenticated{}, oops.With("operation", "login").With("user_id", user.ID).Wrap(err)
	}

	var out Authenticated
	err = g.tx.WithTx(ctx, func(q store.Querier) error {
		if err := g.audit.RecordAttempt(ctx, q, user.ID, ip, valid); err != nil {
			return err
		}
		if !valid {
			return nil
		}
		token, err := g.sessions.Issue(ctx, q, user.ID)
		if err != nil {
			return err
		}
		out = Authenticated{UserID: user.ID, Token: token}
		return nil
	})
	if err != nil {
		return Authenticated{}, oops.With("operation", "login").With("user_id", user.ID).Wrap(err)
	}

	if !valid {
		g.logger.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return Authenticated{}, invalidCredentials()
	}
	g.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return out, nil
}

func (g *Gateway) equaliseTiming(ctx context.Context, password string) {
	hash, err := g.dummyHash()
	if err != nil {
		g.logger.WarnContext(ctx, "timing hash unavailable", "error", err)
		return
	}
	_, _ = g.hasher.Verify(password, hash) //nolint:errcheck // result is discarded
}

// invalidCredentials is the single failure for unknown names and wrong
// passwords. It carries no cause so the two cannot be told apart.
func invalidCredentials() error {
	return oops.Code(KindInvalidUserOrPassword.String()).Errorf("invalid username or password")
}

// Logout revokes every session of userID.
func (g *Gateway) Logout(ctx context.Context, userID UserID) error {
	err := g.tx.WithTx(ctx, func(q store.Querier) error {
		return g.sessions.RevokeAll(ctx, q, userID)
	})
	if err != nil {
		return oops.With("operation", "logout").Wrap(err)
	}
	g.logger.InfoContext(ctx, "user logged out", "user_id", userID)
	return nil
}

// RevokeSession deletes the single session identified by token. Other
// sessions of the same user are kept.
func (g *Gateway) RevokeSession(ctx context.Context, token SessionToken) error {
	err := g.tx.WithTx(ctx, func(q store.Querier) error {
		return g.sessions.Revoke(ctx, q, token)
	})
	if err != nil {
		return oops.With("operation", "revoke session").Wrap(err)
	}
	return nil
}

// ResolvePrincipal returns the user owning the session token. Absence is
// not an error: an empty, malformed or unknown token, and any storage
// failure, report false. Malformed tokens never reach storage.
func (g *Gateway) ResolvePrincipal(ctx context.Context, token string) (UserID, bool) {
	if !WellFormedSessionToken(token) {
		return 0, false
	}
	var (
		userID UserID
		found  bool
	)
	err := g.tx.WithTx(ctx, func(q store.Querier) error {
		userID, found = g.sessions.Resolve(ctx, q, token)
		return nil
	})
	if err != nil {
		g.logger.WarnContext(ctx, "session resolution unavailable, treating request as anonymous", "error", err)
		return 0, false
	}
	return userID, found
}

// CSRFToken returns the login form token for ip.
func (g *Gateway) CSRFToken(ip netip.Addr) string {
	return g.csrf.TokenFor(ip)
}

// RecentLogins returns the user's recent login attempts with the given outcome.
func (g *Gateway) RecentLogins(ctx context.Context, userID UserID, successful bool, limit int) ([]LoginAttempt, error) {
	var attempts []LoginAttempt
	err := g.tx.WithTx(ctx, func(q store.Querier) error {
		var err error
		attempts, err = g.audit.Recent(ctx, q, userID, successful, limit)
		return err
	})
	if err != nil {
		return nil, oops.With("operation", "recent logins").Wrap(err)
	}
	return attempts, nil
}
