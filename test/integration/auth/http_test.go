// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

//go:build integration

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sharebox/sharebox/internal/observability"
	"github.com/sharebox/sharebox/internal/web"
)

type browser struct {
	client *http.Client
	base   string
}

func (b *browser) do(method, path string, form url.Values) (int, map[string]any) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(context.Background(), method, b.base+path, body)
	Expect(err).NotTo(HaveOccurred())
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := b.client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
	return resp.StatusCode, decoded
}

var _ = Describe("HTTP flow", func() {
	var (
		server *httptest.Server
		b      *browser
	)

	BeforeEach(func() {
		resetTables(context.Background())
		gin.SetMode(gin.TestMode)

		router, err := web.NewRouter(web.Options{
			Gateway:        env.Gateway,
			Catalog:        web.NewCatalog(),
			Metrics:        observability.NewMetrics(prometheus.NewRegistry()),
			Logger:         env.Logger,
			CookieHashKey:  []byte(strings.Repeat("h", 32)),
			CookieBlockKey: []byte(strings.Repeat("b", 32)),
			SessionMaxAge:  time.Hour,
		})
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(router)

		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		b = &browser{client: &http.Client{Jar: jar}, base: server.URL}
	})

	AfterEach(func() {
		server.Close()
	})

	It("registers, logs out and logs back in with the CSRF token", func() {
		status, body := b.do(http.MethodGet, "/", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body["message"]).To(Equal("Ta strona wymaga zalogowania."))

		status, body = b.do(http.MethodPost, "/register", url.Values{
			"name": {"alice"}, "password": {"supersecret"}, "repeat_password": {"supersecret"},
		})
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body["message"]).To(Equal("Konto zarejestrowane."))

		status, _ = b.do(http.MethodGet, "/", nil)
		Expect(status).To(Equal(http.StatusOK))

		status, body = b.do(http.MethodGet, "/login", nil)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body["message"]).To(Equal("Jesteś już zalogowany."))

		status, _ = b.do(http.MethodGet, "/logout", nil)
		Expect(status).To(Equal(http.StatusOK))
		status, _ = b.do(http.MethodGet, "/", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))

		status, body = b.do(http.MethodGet, "/login", nil)
		Expect(status).To(Equal(http.StatusOK))
		csrf, ok := body["csrf"].(string)
		Expect(ok).To(BeTrue())

		status, body = b.do(http.MethodPost, "/login", url.Values{
			"name": {"alice"}, "password": {"supersecret"}, "csrf": {"forged"},
		})
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body["message"]).To(Equal("Nie ma tokenu CSRF"))

		status, body = b.do(http.MethodPost, "/login", url.Values{
			"name": {"alice"}, "password": {"supersecret"}, "csrf": {csrf},
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["message"]).To(Equal("Zalogowano."))

		status, body = b.do(http.MethodGet, "/logins", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body["logins"]).To(HaveLen(1))
	})

	It("answers a duplicate registration with 409", func() {
		form := url.Values{"name": {"alice"}, "password": {"supersecret"}, "repeat_password": {"supersecret"}}
		status, _ := b.do(http.MethodPost, "/register", form)
		Expect(status).To(Equal(http.StatusCreated))

		other := &browser{client: &http.Client{}, base: server.URL}
		status, body := other.do(http.MethodPost, "/register", form)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body["message"]).To(Equal("Użytkownik już istnieje"))
	})
})
