// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package httpapi is the HTTP boundary of the commerce API.
//
// It routes requests with chi, runs protected routes through the authn
// pipeline, decodes JSON bodies and translates failure kinds to stable
// status codes. Internal error details never reach the response body.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/loopers/commerce-api/internal/authn"
	"github.com/loopers/commerce-api/internal/observability"
	"github.com/loopers/commerce-api/internal/user"
)

// UserService is the part of *user.Service the handlers call.
type UserService interface {
	Signup(ctx context.Context, cmd user.SignupCommand) (*user.User, error)
	ChangePassword(ctx context.Context, cmd user.ChangePasswordCommand) error
	FindByLoginID(ctx context.Context, loginID string) (*user.User, error)
}

// RequestAuthenticator authenticates a request from its headers. *authn.Pipeline satisfies it.
type RequestAuthenticator interface {
	Authenticate(ctx context.Context, src authn.CredentialSource) (context.Context, user.Principal, error)
}

// AdminChecker admits administrative requests. *authn.AdminGate satisfies it.
type AdminChecker interface {
	Check(ctx context.Context, src authn.CredentialSource) error
}

// Deps holds the dependencies of the API server.
type Deps struct {
	Addr     string
	Users    UserService
	Pipeline RequestAuthenticator
	Admin    AdminChecker
	Logger   *slog.Logger

	// Metrics is optional; request metrics are skipped when nil.
	Metrics *observability.Metrics
}

// Server is the HTTP API server.
type Server struct {
	addr       string
	users      UserService
	pipeline   RequestAuthenticator
	admin      AdminChecker
	logger     *slog.Logger
	metrics    *observability.Metrics
	validate   *validator.Validate
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// New creates a Server. It does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Users == nil {
		return nil, oops.Errorf("user service is required")
	}
	if deps.Pipeline == nil {
		return nil, oops.Errorf("authentication pipeline is required")
	}
	if deps.Admin == nil {
		return nil, oops.Errorf("admin checker is required")
	}
	if deps.Logger == nil {
		return nil, oops.Errorf("logger is required")
	}

	return &Server{
		addr:     deps.Addr,
		users:    deps.Users,
		pipeline: deps.Pipeline,
		admin:    deps.Admin,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		validate: newValidator(),
	}, nil
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins serving. The returned channel receives a serve error, if any,
// and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop waits for in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
