// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/loopers/commerce-api/internal/authn"
	"github.com/loopers/commerce-api/internal/config"
	"github.com/loopers/commerce-api/internal/httpapi"
	"github.com/loopers/commerce-api/internal/logging"
	"github.com/loopers/commerce-api/internal/observability"
	"github.com/loopers/commerce-api/internal/user"
)

// newServeCmd creates the serve subcommand.
func newServeCmd(deps *ServeDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server together with the metrics and health
probe listener. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, deps)
		},
	}
}

// runServeWithDeps runs the API until ctx is cancelled, a shutdown signal
// arrives, or a server fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.Setup(serviceName, version, cfg.LogFormat, cfg.LogLevel, deps.LogWriter)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "set up logging").Wrap(err)
	}

	logger.Info("starting commerce api",
		"version", version,
		"http_addr", cfg.HTTPAddr,
		"metrics_addr", cfg.MetricsAddr,
		"password_hasher", cfg.PasswordHasher,
	)

	if cfg.AutoMigrate {
		if err := autoMigrate(cfg, deps.MigratorFactory, logger); err != nil {
			return err
		}
	}

	directory, closeDirectory, err := deps.DirectoryFactory(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "open user directory").Wrap(err)
	}
	defer closeDirectory()
	logger.Info("connected to database")

	hasher, err := user.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "create password hasher").Wrap(err)
	}
	users, err := user.NewServiceWithLogger(directory, hasher, logger)
	if err != nil {
		return oops.With("operation", "create user service").Wrap(err)
	}
	pipeline, err := authn.NewPipeline(users, logger)
	if err != nil {
		return oops.With("operation", "create authentication pipeline").Wrap(err)
	}
	gate, err := authn.NewAdminGate(cfg.AdminLdap, logger)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "create admin gate").Wrap(err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, ready.Load, logger)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	api, err := httpapi.New(httpapi.Deps{
		Addr:     cfg.HTTPAddr,
		Users:    users,
		Pipeline: pipeline,
		Admin:    gate,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		shutdown(cfg, nil, obsServer, logger)
		return oops.With("operation", "create api server").Wrap(err)
	}
	apiErrCh, err := api.Start()
	if err != nil {
		shutdown(cfg, nil, obsServer, logger)
		return oops.With("operation", "start api server").Wrap(err)
	}

	ready.Store(true)
	logger.Info("commerce api ready", "addr", api.Addr())
	if deps.OnReady != nil {
		deps.OnReady(api.Addr())
	}

	var serveErr error
	select {
	case err, ok := <-apiErrCh:
		if ok && err != nil {
			serveErr = oops.With("operation", "serve api").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	ready.Store(false)
	shutdown(cfg, api, obsServer, logger)
	logger.Info("shutdown complete")
	return serveErr
}

// stopper is satisfied by both servers.
type stopper interface {
	Stop(ctx context.Context) error
}

// shutdown stops the servers that were started, API first.
func shutdown(cfg *config.Config, api stopper, obsServer ObservabilityServer, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping api server", "error", err)
		}
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
}

func autoMigrate(cfg *config.Config, factory func(string) (Migrator, error), logger *slog.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	m, err := factory(cfg.DatabaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	schemaVersion, _, err := m.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read schema version").Wrap(err)
	}
	logger.Info("database schema up to date", "version", schemaVersion)
	return nil
}

// monitorServerErrors cancels ctx when a server reports a serve error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
