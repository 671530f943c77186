// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

// Package auth provides the credential and session subsystem of Sharebox.
//
// # Components
//
// Leaf components each own one concern:
//   - PasswordHasher - adaptive one-way hashing of passwords (BcryptHasher)
//   - CSRFTokens - anti-forgery tokens derived from the caller's address
//   - CredentialStore - persistence and lookup of users
//   - LoginAuditor - dedup-aware login attempt trail
//   - SessionManager - issue, resolve and revoke server-side sessions
//
// Gateway composes them into the registration, login and logout flows.
//
// # Storage
//
// Stores never hold storage state. Every call receives the store.Querier of
// the transaction the Gateway opened for the request. Hashing and password
// verification always run outside a transaction.
//
// # Errors
//
// Failures carry an oops code from the closed Kind set. Use KindOf to
// classify an error; the wrapped cause is kept for logging only.
package auth
