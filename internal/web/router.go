// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

// Package web exposes the registration, login and logout flows over HTTP.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/sharebox/sharebox/internal/auth"
)

// SessionCookieName is the name of the encrypted session cookie.
const SessionCookieName = "sharebox_session"

// Gateway is the auth surface the handlers drive. *auth.Gateway implements it.
type Gateway interface {
	Register(ctx context.Context, form auth.RegistrationForm) (auth.Authenticated, error)
	Login(ctx context.Context, form auth.LoginForm, ip netip.Addr) (auth.Authenticated, error)
	Logout(ctx context.Context, userID auth.UserID) error
	RevokeSession(ctx context.Context, token auth.SessionToken) error
	ResolvePrincipal(ctx context.Context, token string) (auth.UserID, bool)
	CSRFToken(ip netip.Addr) string
	RecentLogins(ctx context.Context, userID auth.UserID, successful bool, limit int) ([]auth.LoginAttempt, error)
}

// Recorder receives auth outcome counts. *observability.Metrics implements it.
type Recorder interface {
	RecordLogin(result string)
	RecordRegistration(result string)
	RecordLogout()
	RecordStorageUnavailable(operation string)
}

// Options configures NewRouter.
type Options struct {
	Gateway Gateway
	Catalog *Catalog
	Metrics Recorder
	Logger  *slog.Logger

	// CookieHashKey signs the session cookie, CookieBlockKey encrypts it.
	CookieHashKey  []byte
	CookieBlockKey []byte
	SecureCookies  bool
	SessionMaxAge  time.Duration
}

type handlers struct {
	gateway Gateway
	catalog *Catalog
	metrics Recorder
	logger  *slog.Logger
	cookie  sessions.Options
}

// NewRouter builds the gin engine serving the auth endpoints.
func NewRouter(opts Options) (*gin.Engine, error) {
	switch {
	case opts.Gateway == nil:
		return nil, oops.Errorf("gateway is required")
	case opts.Catalog == nil:
		return nil, oops.Errorf("catalog is required")
	case opts.Metrics == nil:
		return nil, oops.Errorf("metrics recorder is required")
	case opts.Logger == nil:
		return nil, oops.Errorf("logger is required")
	case len(opts.CookieHashKey) == 0 || len(opts.CookieBlockKey) == 0:
		return nil, oops.Errorf("session cookie keys are required")
	}

	cookieOptions := sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	h := &handlers{
		gateway: opts.Gateway,
		catalog: opts.Catalog,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		cookie:  cookieOptions,
	}

	store := cookie.NewStore(opts.CookieHashKey, opts.CookieBlockKey)
	store.Options(cookieOptions)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(opts.Logger),
		sessions.Sessions(SessionCookieName, store),
		principal(opts.Gateway),
	)

	router.GET("/", h.requireLogin, h.home)
	router.GET("/register", h.requireAnonymous, h.registerPage)
	router.POST("/register", h.requireAnonymous, h.register)
	router.GET("/login", h.requireAnonymous, h.loginPage)
	router.POST("/login", h.requireAnonymous, h.login)
	router.GET("/logout", h.requireLogin, h.logout)
	router.GET("/logins", h.requireLogin, h.recentLogins)

	return router, nil
}
