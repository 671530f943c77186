// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sharebox/sharebox/internal/auth"
	"github.com/sharebox/sharebox/internal/auth/postgres"
	"github.com/sharebox/sharebox/internal/config"
	"github.com/sharebox/sharebox/internal/logging"
	"github.com/sharebox/sharebox/internal/observability"
	"github.com/sharebox/sharebox/internal/store"
	"github.com/sharebox/sharebox/internal/web"
	"github.com/sharebox/sharebox/pkg/errutil"
)

// Pool wraps the methods used from store.Pool.
type Pool interface {
	store.TxRunner
	Ping(ctx context.Context) error
	Close()
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory opens the database pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, databaseURL string, opts store.Options) (Pool, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Listen opens the HTTP listener.
	// Default: net.Listen
	Listen func(network, address string) (net.Listener, error)

	// LogWriter receives log output. Default: os.Stderr.
	LogWriter io.Writer
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server for registration, login and logout, plus the
metrics and health endpoints. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile, os.LookupEnv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, databaseURL string, opts store.Options) (Pool, error) {
			return store.Connect(ctx, databaseURL, opts)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, readiness, logger)
		}
	}
	if out.Listen == nil {
		out.Listen = net.Listen
	}
	if out.LogWriter == nil {
		out.LogWriter = os.Stderr
	}
	return &out
}

// runServe runs the server until ctx is cancelled or a server fails.
// Shutdown drains HTTP first, then stops the metrics server, then closes
// the pool.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *ServeDeps) error {
	deps = deps.withDefaults()

	logger := logging.SetDefault(logging.Options{
		Service: "sharebox",
		Version: version,
		Format:  cfg.LogFormat,
		Writer:  deps.LogWriter,
	})
	gin.SetMode(cfg.GinMode)

	logger.Info("starting sharebox",
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL, store.Options{
		MaxConns:       cfg.PoolMaxConns,
		AcquireTimeout: cfg.PoolAcquireTimeout,
		ConnectRetries: cfg.ConnectRetries,
		Logger:         logger,
	})
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		metrics   *observability.Metrics
	)
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, func(ctx context.Context) bool {
			return pool.Ping(ctx) == nil
		}, logger)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	router, err := buildRouter(cfg, pool, metrics, logger)
	if err != nil {
		stopObservability(obsServer, cfg.ShutdownTimeout, logger)
		return err
	}

	listener, err := deps.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		stopObservability(obsServer, cfg.ShutdownTimeout, logger)
		return oops.With("operation", "listen").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	httpErrChan := make(chan error, 1)
	go func() {
		defer close(httpErrChan)
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			httpErrChan <- serveErr
		}
	}()

	cmd.Println("Sharebox started")
	logger.Info("http server listening", "addr", listener.Addr().String())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err, ok := <-httpErrChan:
		if ok {
			serveErr = oops.With("operation", "serve http").Wrap(err)
			errutil.LogError(ctx, logger, "http server failed", serveErr)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error draining http server", "error", err)
	}
	stopObservability(obsServer, cfg.ShutdownTimeout, logger)

	logger.Info("shutdown complete")
	return serveErr
}

// buildRouter wires the auth components onto pool.
func buildRouter(cfg *config.Config, pool store.TxRunner, metrics *observability.Metrics, logger *slog.Logger) (*gin.Engine, error) {
	sessions, err := auth.NewSessionManager(postgres.NewSessionRepository(), logger)
	if err != nil {
		return nil, err
	}
	audit, err := auth.NewLoginAuditor(postgres.NewLoginRepository(), logger)
	if err != nil {
		return nil, err
	}
	gateway, err := auth.NewGateway(auth.GatewayDeps{
		Tx:       pool,
		Users:    postgres.NewUserRepository(),
		Hasher:   auth.NewBcryptHasher(),
		CSRF:     auth.NewCSRFTokens(),
		Sessions: sessions,
		Audit:    audit,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	hashKey, blockKey, err := cfg.SessionKeys()
	if err != nil {
		return nil, err
	}

	return web.NewRouter(web.Options{
		Gateway:        gateway,
		Catalog:        web.NewCatalog(),
		Metrics:        metrics,
		Logger:         logger,
		CookieHashKey:  hashKey,
		CookieBlockKey: blockKey,
		SecureCookies:  cfg.SecureCookies,
		SessionMaxAge:  cfg.SessionMaxAge,
	})
}

func stopObservability(obsServer ObservabilityServer, timeout time.Duration, logger *slog.Logger) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel is closed or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
