// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/loopers/commerce-api/internal/config"
	"github.com/loopers/commerce-api/internal/observability"
	"github.com/loopers/commerce-api/internal/store"
	"github.com/loopers/commerce-api/internal/user"
	"github.com/loopers/commerce-api/internal/user/postgres"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DirectoryFactory opens the user directory. The returned func releases it.
	// Default: openPostgresDirectory
	DirectoryFactory func(ctx context.Context, cfg *config.Config) (user.Directory, func(), error)

	// MigratorFactory creates a migrator for auto-migrate.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer

	// OnReady is called with the API listen address once requests are served.
	OnReady func(apiAddr string)
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Pending() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DirectoryFactory == nil {
		out.DirectoryFactory = openPostgresDirectory
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = newStoreMigrator
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	return &out
}

// openPostgresDirectory connects to PostgreSQL and returns the user directory on it.
func openPostgresDirectory(ctx context.Context, cfg *config.Config) (user.Directory, func(), error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	//nolint:gosec // G115: Validate rejects negative retries
	pool, err := store.Connect(ctx, cfg.DatabaseURL, uint64(cfg.DBConnectRetries))
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewDirectory(pool), pool.Close, nil
}

func newStoreMigrator(databaseURL string) (Migrator, error) {
	return store.NewMigrator(databaseURL)
}
