// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopers/commerce-api/internal/authn"
	"github.com/loopers/commerce-api/internal/config"
	"github.com/loopers/commerce-api/internal/observability"
	"github.com/loopers/commerce-api/internal/user"
	"github.com/loopers/commerce-api/internal/user/usertest"
	"github.com/loopers/commerce-api/pkg/errutil"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// mockObservabilityServer implements ObservabilityServer for testing.
type mockObservabilityServer struct {
	startErr error
	stopped  bool
}

func (m *mockObservabilityServer) Start() (<-chan error, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return make(chan error), nil
}

func (m *mockObservabilityServer) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func (m *mockObservabilityServer) Addr() string { return "127.0.0.1:0" }

func (m *mockObservabilityServer) Metrics() *observability.Metrics { return nil }

func memoryDirectory(closed *bool) func(context.Context, *config.Config) (user.Directory, func(), error) {
	return func(context.Context, *config.Config) (user.Directory, func(), error) {
		return usertest.NewDirectory(), func() {
			if closed != nil {
				*closed = true
			}
		}, nil
	}
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:         "127.0.0.1:0",
		LogFormat:        "json",
		LogLevel:         "info",
		AdminLdap:        authn.DefaultAdminValue,
		PasswordHasher:   user.HasherBcrypt,
		BcryptCost:       4,
		DBConnectRetries: 0,
		ShutdownTimeout:  5 * time.Second,
	}
}

func TestServe_EndToEnd(t *testing.T) {
	t.Setenv(config.DatabaseURLEnv, "")
	logs := &syncBuffer{}
	addrCh := make(chan string, 1)
	var directoryClosed bool

	deps := &ServeDeps{
		DirectoryFactory: memoryDirectory(&directoryClosed),
		LogWriter:        logs,
		OnReady:          func(addr string) { addrCh <- addr },
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCmd(deps)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{
		"serve",
		"--http-addr=127.0.0.1:0",
		"--metrics-addr=127.0.0.1:0",
		"--password-hasher=bcrypt",
		"--bcrypt-cost=4",
	})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("serve exited early: %v\n%s", err, logs.String())
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for server")
	}

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	base := "http://" + addr

	resp, err := client.Post(base+"/api/v1/users/signup", "application/json", strings.NewReader(
		`{"loginId":"kim01","password":"Passw0rd!","name":"Kim","birthday":"1990-05-15","email":"kim@example.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, base+"/api/v1/users/me", nil)
	require.NoError(t, err)
	req.Header.Set(authn.HeaderLoginID, "kim01")
	req.Header.Set(authn.HeaderLoginPassword, "Passw0rd!")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for shutdown")
	}

	assert.True(t, directoryClosed)
	assert.Contains(t, logs.String(), "commerce api ready")
	assert.Contains(t, logs.String(), "shutdown complete")
	assert.NotContains(t, logs.String(), "Passw0rd!")
}

func TestServe_DirectoryFailure(t *testing.T) {
	deps := &ServeDeps{
		DirectoryFactory: func(context.Context, *config.Config) (user.Directory, func(), error) {
			return nil, nil, oops.Code("DB_CONFIG_INVALID").Errorf("bad url")
		},
		LogWriter: io.Discard,
	}

	err := runServeWithDeps(context.Background(), testConfig(), deps)

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}

func TestServe_DefaultDirectoryRequiresDatabaseURL(t *testing.T) {
	err := runServeWithDeps(context.Background(), testConfig(), &ServeDeps{LogWriter: io.Discard})

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestServe_InvalidLogFormat(t *testing.T) {
	cfg := testConfig()
	cfg.LogFormat = "xml"

	err := runServeWithDeps(context.Background(), cfg, &ServeDeps{
		DirectoryFactory: memoryDirectory(nil),
		LogWriter:        io.Discard,
	})

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "LOG_FORMAT_INVALID")
}

func TestServe_AutoMigrate(t *testing.T) {
	stopErr := errors.New("stop after migrate")

	t.Run("applies migrations before opening the directory", func(t *testing.T) {
		cfg := testConfig()
		cfg.AutoMigrate = true
		cfg.DatabaseURL = "postgres://localhost/commerce"
		m := &fakeMigrator{}
		var opened bool

		err := runServeWithDeps(context.Background(), cfg, &ServeDeps{
			MigratorFactory: func(string) (Migrator, error) { return m, nil },
			DirectoryFactory: func(context.Context, *config.Config) (user.Directory, func(), error) {
				opened = true
				assert.Equal(t, 1, m.upCalls, "migrations must run first")
				return nil, nil, stopErr
			},
			LogWriter: io.Discard,
		})

		require.Error(t, err)
		assert.True(t, opened)
		assert.True(t, m.closed)
	})

	t.Run("migration failure stops startup", func(t *testing.T) {
		cfg := testConfig()
		cfg.AutoMigrate = true
		cfg.DatabaseURL = "postgres://localhost/commerce"
		m := &fakeMigrator{upErr: errors.New("dirty")}
		var opened bool

		err := runServeWithDeps(context.Background(), cfg, &ServeDeps{
			MigratorFactory: func(string) (Migrator, error) { return m, nil },
			DirectoryFactory: func(context.Context, *config.Config) (user.Directory, func(), error) {
				opened = true
				return nil, nil, stopErr
			},
			LogWriter: io.Discard,
		})

		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
		assert.False(t, opened)
	})

	t.Run("requires database url", func(t *testing.T) {
		cfg := testConfig()
		cfg.AutoMigrate = true

		err := runServeWithDeps(context.Background(), cfg, &ServeDeps{
			DirectoryFactory: memoryDirectory(nil),
			LogWriter:        io.Discard,
		})

		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

func TestServe_ObservabilityStartFailure(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	var directoryClosed bool

	err := runServeWithDeps(context.Background(), cfg, &ServeDeps{
		DirectoryFactory: memoryDirectory(&directoryClosed),
		ObservabilityServerFactory: func(string, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
			return &mockObservabilityServer{startErr: oops.Code("OBS_LISTEN_FAILED").Errorf("address in use")}
		},
		LogWriter: io.Discard,
	})

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "OBS_LISTEN_FAILED")
	assert.True(t, directoryClosed)
}

func TestServe_StopsObservabilityOnShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsAddr = "127.0.0.1:0"
	obs := &mockObservabilityServer{}

	ctx, cancel := context.WithCancel(context.Background())
	err := runServeWithDeps(ctx, cfg, &ServeDeps{
		DirectoryFactory: memoryDirectory(nil),
		ObservabilityServerFactory: func(string, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
			return obs
		},
		LogWriter: io.Discard,
		OnReady:   func(string) { cancel() },
	})

	require.NoError(t, err)
	assert.True(t, obs.stopped)
}

func TestMonitorServerErrors(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("error cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error, 1)
		errCh <- errors.New("boom")

		monitorServerErrors(ctx, cancel, errCh, "test", logger)

		assert.Error(t, ctx.Err())
	})

	t.Run("closed channel does not cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error)
		close(errCh)

		monitorServerErrors(ctx, cancel, errCh, "test", logger)

		assert.NoError(t, ctx.Err())
	})
}
