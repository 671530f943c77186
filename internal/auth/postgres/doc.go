// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

// Package postgres implements the auth stores on PostgreSQL via pgx.
//
// Repositories are stateless; each call runs on the store.Querier it is given.
package postgres
