// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

// Package store provides the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// CodeUnavailable classifies every checkout, query and commit failure.
const CodeUnavailable = "STORAGE_UNAVAILABLE"

// Pool defaults.
const (
	DefaultMaxConns       = 10
	DefaultAcquireTimeout = 5 * time.Second
	DefaultConnectRetries = 5
)

// Querier is the transactional handle repositories operate through.
// pgx.Tx, *pgxpool.Pool and pgxmock pools all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs fn inside a transaction on a handle checked out for the
// duration of the call.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// beginner is the subset of *pgxpool.Pool the Pool needs.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Pool hands out transactional handles with a bounded checkout wait.
type Pool struct {
	db             beginner
	acquireTimeout time.Duration
	logger         *slog.Logger
}

// Options configures Connect.
type Options struct {
	MaxConns       int32
	AcquireTimeout time.Duration
	// ConnectRetries bounds the startup ping attempts. Zero means no retry.
	ConnectRetries uint64
	Logger         *slog.Logger
}

// Connect opens a pgx pool for databaseURL and waits until it answers a ping,
// backing off between attempts.
func Connect(ctx context.Context, databaseURL string, opts Options) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}
	cfg.MaxConns = opts.MaxConns
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	cfg.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code(CodeUnavailable).
			With("operation", "create pool").
			Wrap(err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backoff := retry.WithMaxRetries(opts.ConnectRetries, retry.NewExponential(500*time.Millisecond))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := db.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not reachable yet", "attempt", attempt, "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, oops.Code(CodeUnavailable).
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	return newPool(db, opts.AcquireTimeout, logger), nil
}

func newPool(db beginner, acquireTimeout time.Duration, logger *slog.Logger) *Pool {
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{db: db, acquireTimeout: acquireTimeout, logger: logger}
}

// WithTx checks out a handle, begins a transaction and runs fn. The
// transaction is committed when fn returns nil and rolled back otherwise,
// including when fn panics. Errors returned by fn are passed through as-is;
// checkout and commit failures are STORAGE_UNAVAILABLE.
func (p *Pool) WithTx(ctx context.Context, fn func(q Querier) error) (err error) {
	beginCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	tx, err := p.db.Begin(beginCtx)
	cancel()
	if err != nil {
		builder := oops.Code(CodeUnavailable).With("operation", "begin transaction")
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			builder = builder.With("acquire_timeout", p.acquireTimeout.String()).Hint("connection pool exhausted")
		}
		return builder.Wrap(err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// The request context may already be cancelled; release the handle regardless.
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), p.acquireTimeout)
		defer rbCancel()
		if rbErr := tx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			p.logger.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		// A failed commit closes the transaction; nothing left to roll back.
		committed = true
		return oops.Code(CodeUnavailable).With("operation", "commit transaction").Wrap(err)
	}
	committed = true
	return nil
}

// Ping reports whether the database answers within the checkout timeout.
func (p *Pool) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()
	if err := p.db.Ping(ctx); err != nil {
		return oops.Code(CodeUnavailable).With("operation", "ping").Wrap(err)
	}
	return nil
}

// Close releases every pooled connection.
func (p *Pool) Close() {
	p.db.Close()
}

// Compile-time interface check.
var _ TxRunner = (*Pool)(nil)
