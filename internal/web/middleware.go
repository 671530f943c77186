// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package web

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/sharebox/sharebox/internal/auth"
	"github.com/sharebox/sharebox/internal/logging"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

const (
	sessionKeyToken = "token"
	principalKey    = "sharebox.principal"
)

// requestID tags the request context with a fresh ULID and logs the
// request once it completes.
func requestID(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ulid.Make().String()
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.DebugContext(c.Request.Context(), "request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// principal resolves the session cookie to a user. A missing or unknown
// session leaves the request anonymous.
func principal(gw Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := sessions.Default(c).Get(sessionKeyToken).(string)
		if token != "" {
			if userID, ok := gw.ResolvePrincipal(c.Request.Context(), token); ok {
				c.Set(principalKey, userID)
			}
		}
		c.Next()
	}
}

// principalFrom returns the user resolved for the request, if any.
func principalFrom(c *gin.Context) (auth.UserID, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return 0, false
	}
	userID, ok := v.(auth.UserID)
	return userID, ok
}

// requireLogin answers 401 for anonymous requests.
func (h *handlers) requireLogin(c *gin.Context) {
	if _, ok := principalFrom(c); !ok {
		h.abortWithMessage(c, http.StatusUnauthorized, MsgLoginRequired)
		return
	}
	c.Next()
}

// requireAnonymous answers 409 for requests that already carry a session.
func (h *handlers) requireAnonymous(c *gin.Context) {
	if _, ok := principalFrom(c); ok {
		h.abortWithMessage(c, http.StatusConflict, MsgAlreadyLoggedIn)
		return
	}
	c.Next()
}

// clientAddr returns the peer address of the connection, unmapped and
// without an IPv6 zone. Proxy headers are not consulted.
func clientAddr(c *gin.Context) (netip.Addr, bool) {
	addrPort, err := netip.ParseAddrPort(c.Request.RemoteAddr)
	if err != nil {
		return netip.Addr{}, false
	}
	return addrPort.Addr().Unmap().WithZone(""), true
}
