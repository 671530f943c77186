// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/sharebox/sharebox/internal/auth"
	"github.com/sharebox/sharebox/pkg/errutil"
)

// Metric result labels that are not auth kinds.
const (
	resultSuccess      = "success"
	resultCookieFailed = "SESSION_COOKIE_FAILED"
)

type registerRequest struct {
	Name           string `form:"name" json:"name"`
	Password       string `form:"password" json:"password"`
	RepeatPassword string `form:"repeat_password" json:"repeat_password"`
}

type loginRequest struct {
	Name     string `form:"name" json:"name"`
	Password string `form:"password" json:"password"`
	CSRF     string `form:"csrf" json:"csrf"`
}

type loginAttemptResponse struct {
	ID         int64     `json:"id"`
	IP         string    `json:"ip"`
	Time       time.Time `json:"time"`
	Successful bool      `json:"successful"`
}

func (h *handlers) home(c *gin.Context) {
	userID, _ := principalFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"code":    MsgHome,
		"message": h.message(c, MsgHome),
		"user_id": userID,
	})
}

func (h *handlers) registerPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"min_password_length": auth.MinPasswordLength})
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, MsgInvalidInput)
		return
	}

	out, err := h.gateway.Register(c.Request.Context(), auth.RegistrationForm{
		Name:           req.Name,
		Password:       req.Password,
		RepeatPassword: req.RepeatPassword,
	})
	if err != nil {
		h.metrics.RecordRegistration(h.fail(c, "register", err))
		return
	}

	if !h.saveSession(c, out.Token) {
		h.metrics.RecordRegistration(resultCookieFailed)
		return
	}
	h.metrics.RecordRegistration(resultSuccess)
	c.JSON(http.StatusCreated, gin.H{
		"code":    MsgRegistered,
		"message": h.message(c, MsgRegistered),
		"user_id": out.UserID,
	})
}

func (h *handlers) loginPage(c *gin.Context) {
	ip, ok := clientAddr(c)
	if !ok {
		h.respondMessage(c, http.StatusBadRequest, MsgInvalidInput)
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrf": h.gateway.CSRFToken(ip)})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, MsgInvalidInput)
		return
	}
	ip, ok := clientAddr(c)
	if !ok {
		h.respondMessage(c, http.StatusBadRequest, MsgInvalidInput)
		return
	}

	out, err := h.gateway.Login(c.Request.Context(), auth.LoginForm{
		Name:     req.Name,
		Password: req.Password,
		CSRF:     req.CSRF,
	}, ip)
	if err != nil {
		h.metrics.RecordLogin(h.fail(c, "login", err))
		return
	}

	if !h.saveSession(c, out.Token) {
		h.metrics.RecordLogin(resultCookieFailed)
		return
	}
	h.metrics.RecordLogin(resultSuccess)
	c.JSON(http.StatusOK, gin.H{
		"code":    MsgLoggedIn,
		"message": h.message(c, MsgLoggedIn),
		"user_id": out.UserID,
	})
}

func (h *handlers) logout(c *gin.Context) {
	userID, _ := principalFrom(c)
	if err := h.gateway.Logout(c.Request.Context(), userID); err != nil {
		h.fail(c, "logout", err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	expired := h.cookie
	expired.MaxAge = -1
	session.Options(expired)
	if err := session.Save(); err != nil {
		h.logger.WarnContext(c.Request.Context(), "session cookie not cleared", "error", err)
	}

	h.metrics.RecordLogout()
	h.respondMessage(c, http.StatusOK, MsgLoggedOut)
}

func (h *handlers) recentLogins(c *gin.Context) {
	userID, _ := principalFrom(c)

	successful := true
	if raw, ok := c.GetQuery("successful"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondMessage(c, http.StatusBadRequest, MsgInvalidInput)
			return
		}
		successful = v
	}
	limit := 0
	if raw, ok := c.GetQuery("limit"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.respondMessage(c, http.StatusBadRequest, MsgInvalidInput)
			return
		}
		limit = v
	}

	attempts, err := h.gateway.RecentLogins(c.Request.Context(), userID, successful, limit)
	if err != nil {
		h.fail(c, "recent logins", err)
		return
	}

	out := make([]loginAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, loginAttemptResponse{
			ID:         a.ID,
			IP:         a.IP.String(),
			Time:       a.Time.UTC(),
			Successful: a.Successful,
		})
	}
	c.JSON(http.StatusOK, gin.H{"logins": out})
}

// saveSession writes token into the session cookie. The cookie holds the
// token only. When the cookie cannot be written the session just issued is
// revoked so no unreachable row is left behind.
func (h *handlers) saveSession(c *gin.Context, token auth.SessionToken) bool {
	ctx := c.Request.Context()
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionKeyToken, string(token))
	if err := session.Save(); err != nil {
		errutil.LogError(ctx, h.logger, "session cookie not saved", err)
		if revokeErr := h.gateway.RevokeSession(ctx, token); revokeErr != nil {
			errutil.LogError(ctx, h.logger, "unsaved session not revoked", revokeErr)
		}
		h.respondMessage(c, http.StatusInternalServerError, MsgInternal)
		return false
	}
	return true
}

// fail writes the response for err and returns the metric result label.
// Internal failures are logged with their cause; only the generic message
// reaches the client.
func (h *handlers) fail(c *gin.Context, operation string, err error) string {
	ctx := c.Request.Context()
	kind, known := auth.KindOf(err)

	if known && kind.IsUserFacing() {
		h.logger.InfoContext(ctx, operation+" rejected", "code", kind.String())
		c.JSON(statusFor(kind), gin.H{
			"code":    kind.String(),
			"message": h.catalog.ForKind(c.GetHeader("Accept-Language"), kind),
		})
		return kind.String()
	}

	errutil.LogError(ctx, h.logger, operation+" failed", err)
	if kind == auth.KindStorageUnavailable {
		h.metrics.RecordStorageUnavailable(operation)
	}
	h.respondMessage(c, statusFor(kind), MsgInternal)
	if !known {
		return MsgInternal
	}
	return kind.String()
}

func statusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindPasswordTooShort, auth.KindPasswordsNotIdentical, auth.KindInvalidName:
		return http.StatusUnprocessableEntity
	case auth.KindInvalidUserOrPassword, auth.KindUnknownUser:
		return http.StatusUnauthorized
	case auth.KindCSRFMismatch:
		return http.StatusForbidden
	case auth.KindDuplicateUser:
		return http.StatusConflict
	case auth.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) message(c *gin.Context, id string) string {
	return h.catalog.Message(c.GetHeader("Accept-Language"), id)
}

func (h *handlers) respondMessage(c *gin.Context, status int, id string) {
	c.JSON(status, gin.H{"code": id, "message": h.message(c, id)})
}

func (h *handlers) abortWithMessage(c *gin.Context, status int, id string) {
	c.AbortWithStatusJSON(status, gin.H{"code": id, "message": h.message(c, id)})
}
