// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

//go:build integration

package auth_test

import (
	"context"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sharebox/sharebox/internal/auth"
)

var _ = Describe("Gateway against PostgreSQL", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		resetTables(ctx)
	})

	Describe("Register", func() {
		It("creates one user with a hashed password and a resolvable session", func() {
			out := register(ctx, "alice", "supersecret")

			Expect(count(ctx, "SELECT count(*) FROM users")).To(Equal(1))

			var hash string
			Expect(env.raw.QueryRow(ctx, "SELECT password_hash FROM users WHERE name = 'alice'").Scan(&hash)).To(Succeed())
			Expect(hash).NotTo(Equal("supersecret"))
			Expect(hash).To(HavePrefix("$2a$"))

			userID, ok := env.Gateway.ResolvePrincipal(ctx, string(out.Token))
			Expect(ok).To(BeTrue())
			Expect(userID).To(Equal(out.UserID))
		})

		It("stores only the token hash", func() {
			out := register(ctx, "alice", "supersecret")

			Expect(count(ctx, "SELECT count(*) FROM sessions WHERE token_hash = $1", string(out.Token))).To(Equal(0))
			Expect(count(ctx, "SELECT count(*) FROM sessions WHERE token_hash = $1", auth.HashSessionToken(out.Token))).To(Equal(1))
		})

		It("rejects a duplicate name without a new row or session", func() {
			register(ctx, "alice", "supersecret")

			_, err := env.Gateway.Register(ctx, auth.RegistrationForm{
				Name: "alice", Password: "othersecret", RepeatPassword: "othersecret",
			})

			Expect(kindOf(err)).To(Equal(auth.KindDuplicateUser))
			Expect(count(ctx, "SELECT count(*) FROM users")).To(Equal(1))
			Expect(count(ctx, "SELECT count(*) FROM sessions")).To(Equal(1))
		})

		It("rejects non-alphabetic names at the storage layer", func() {
			_, err := env.Gateway.Register(ctx, auth.RegistrationForm{
				Name: "alice42", Password: "supersecret", RepeatPassword: "supersecret",
			})

			Expect(kindOf(err)).To(Equal(auth.KindInvalidName))
			Expect(count(ctx, "SELECT count(*) FROM users")).To(Equal(0))
		})

		It("rejects names longer than the column", func() {
			_, err := env.Gateway.Register(ctx, auth.RegistrationForm{
				Name: strings.Repeat("a", 65), Password: "supersecret", RepeatPassword: "supersecret",
			})

			Expect(kindOf(err)).To(Equal(auth.KindInvalidName))
		})

		It("checks confirmation before length", func() {
			_, err := env.Gateway.Register(ctx, auth.RegistrationForm{
				Name: "alice", Password: "abc", RepeatPassword: "abd",
			})

			Expect(kindOf(err)).To(Equal(auth.KindPasswordsNotIdentical))
			Expect(count(ctx, "SELECT count(*) FROM users")).To(Equal(0))
		})
	})

	Describe("Login audit", func() {
		BeforeEach(func() {
			register(ctx, "alice", "supersecret")
		})

		It("records one failed row per distinct source address", func() {
			_, err := login(ctx, "alice", "wrong-password", addr("10.0.0.1"))
			Expect(kindOf(err)).To(Equal(auth.KindInvalidUserOrPassword))
			Expect(count(ctx, "SELECT count(*) FROM logins")).To(Equal(1))
			Expect(count(ctx, "SELECT count(*) FROM logins WHERE successful = false AND host(ip) = '10.0.0.1' AND masklen(ip) = 32")).To(Equal(1))

			_, err = login(ctx, "alice", "wrong-password", addr("10.0.0.1"))
			Expect(kindOf(err)).To(Equal(auth.KindInvalidUserOrPassword))
			Expect(count(ctx, "SELECT count(*) FROM logins")).To(Equal(1))

			_, err = login(ctx, "alice", "supersecret", addr("10.0.0.2"))
			Expect(err).NotTo(HaveOccurred())
			Expect(count(ctx, "SELECT count(*) FROM logins")).To(Equal(2))
			Expect(count(ctx, "SELECT count(*) FROM logins WHERE successful = true AND host(ip) = '10.0.0.2'")).To(Equal(1))
		})

		It("stores IPv6 addresses with a /128 mask and unmaps IPv4-mapped ones", func() {
			_, err := login(ctx, "alice", "supersecret", addr("2001:db8::1"))
			Expect(err).NotTo(HaveOccurred())
			_, err = login(ctx, "alice", "supersecret", addr("::ffff:10.0.0.9"))
			Expect(err).NotTo(HaveOccurred())

			Expect(count(ctx, "SELECT count(*) FROM logins WHERE host(ip) = '2001:db8::1' AND masklen(ip) = 128")).To(Equal(1))
			Expect(count(ctx, "SELECT count(*) FROM logins WHERE host(ip) = '10.0.0.9' AND masklen(ip) = 32")).To(Equal(1))
		})

		It("records nothing for unknown names", func() {
			_, err := login(ctx, "bob", "supersecret", addr("10.0.0.1"))

			Expect(kindOf(err)).To(Equal(auth.KindInvalidUserOrPassword))
			Expect(count(ctx, "SELECT count(*) FROM logins")).To(Equal(0))
		})

		It("records nothing on a CSRF mismatch", func() {
			_, err := env.Gateway.Login(ctx, auth.LoginForm{
				Name: "alice", Password: "supersecret", CSRF: env.Gateway.CSRFToken(addr("10.0.0.2")),
			}, addr("10.0.0.1"))

			Expect(kindOf(err)).To(Equal(auth.KindCSRFMismatch))
			Expect(count(ctx, "SELECT count(*) FROM logins")).To(Equal(0))
			Expect(count(ctx, "SELECT count(*) FROM sessions")).To(Equal(1))
		})

		It("lists recent attempts newest first", func() {
			for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
				_, err := login(ctx, "alice", "supersecret", addr(ip))
				Expect(err).NotTo(HaveOccurred())
			}
			_, err := login(ctx, "alice", "nope-nope-nope", addr("10.0.0.4"))
			Expect(kindOf(err)).To(Equal(auth.KindInvalidUserOrPassword))

			var userID auth.UserID
			Expect(env.raw.QueryRow(ctx, "SELECT user_id FROM users WHERE name = 'alice'").Scan(&userID)).To(Succeed())

			recent, err := env.Gateway.RecentLogins(ctx, userID, true, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].IP).To(Equal(addr("10.0.0.3")))
			Expect(recent[1].IP).To(Equal(addr("10.0.0.2")))

			failed, err := env.Gateway.RecentLogins(ctx, userID, false, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(failed).To(HaveLen(1))
			Expect(failed[0].IP).To(Equal(addr("10.0.0.4")))
		})
	})

	Describe("Sessions", func() {
		It("resolves each login to the user and logout revokes every session", func() {
			registered := register(ctx, "alice", "supersecret")

			var (
				wg     sync.WaitGroup
				tokens = make([]auth.SessionToken, 2)
				errs   = make([]error, 2)
			)
			for i := range tokens {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					out, err := login(ctx, "alice", "supersecret", addr("10.0.0.1"))
					tokens[i], errs[i] = out.Token, err
				}(i)
			}
			wg.Wait()

			for i, token := range tokens {
				Expect(errs[i]).NotTo(HaveOccurred())
				userID, ok := env.Gateway.ResolvePrincipal(ctx, string(token))
				Expect(ok).To(BeTrue())
				Expect(userID).To(Equal(registered.UserID))
			}
			Expect(tokens[0]).NotTo(Equal(tokens[1]))
			Expect(count(ctx, "SELECT count(*) FROM sessions")).To(Equal(3))

			Expect(env.Gateway.Logout(ctx, registered.UserID)).To(Succeed())

			for _, token := range append(tokens, registered.Token) {
				_, ok := env.Gateway.ResolvePrincipal(ctx, string(token))
				Expect(ok).To(BeFalse())
			}
			Expect(count(ctx, "SELECT count(*) FROM sessions")).To(Equal(0))
		})

		It("does not revoke other users' sessions", func() {
			alice := register(ctx, "alice", "supersecret")
			bob := register(ctx, "bob", "supersecret")

			Expect(env.Gateway.Logout(ctx, alice.UserID)).To(Succeed())

			_, ok := env.Gateway.ResolvePrincipal(ctx, string(bob.Token))
			Expect(ok).To(BeTrue())
		})

		It("treats unknown and malformed tokens as anonymous", func() {
			register(ctx, "alice", "supersecret")

			for _, token := range []string{"", "not-a-token", strings.Repeat("0", 64)} {
				_, ok := env.Gateway.ResolvePrincipal(ctx, token)
				Expect(ok).To(BeFalse())
			}
		})
	})
})
