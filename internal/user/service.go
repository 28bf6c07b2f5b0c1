// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package user

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loopers/commerce-api/pkg/errutil"
)

const tracerName = "github.com/loopers/commerce-api/internal/user"

// invalidCredentialsMessage is shared by every authentication failure so
// callers cannot tell an unknown login id from a wrong password.
const invalidCredentialsMessage = "invalid login id or password"

// dummyPassword is hashed once with the configured hasher. Its hash is
// verified when the login id is unknown so that a miss costs the same as a
// mismatch under whichever algorithm is in use.
//
//nolint:gosec // G101: not a credential, only ever compared against itself.
const dummyPassword = "unknown-login-id-placeholder"

// SignupCommand carries the raw signup input.
type SignupCommand struct {
	LoginID  string
	Password string
	Name     string
	Birthday string // YYYY-MM-DD
	Email    string
}

// ChangePasswordCommand carries a password change for an authenticated user.
type ChangePasswordCommand struct {
	LoginID         string
	CurrentPassword string
	NewPassword     string
}

// Service provides signup, authentication and password management.
type Service struct {
	directory Directory
	hasher    PasswordHasher
	logger    *slog.Logger
	tracer    trace.Tracer

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

// NewService creates a Service with a no-op logger.
// Returns an error if any dependency is nil.
func NewService(directory Directory, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(directory, hasher, slog.New(slog.DiscardHandler))
}

// NewServiceWithLogger creates a Service that logs failures to logger.
func NewServiceWithLogger(directory Directory, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if directory == nil {
		return nil, oops.Errorf("user directory is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		directory: directory,
		hasher:    hasher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Signup registers a new user.
// The raw password is checked against the policy before anything is looked
// up, then the login id must be free. A uniqueness violation reported by the
// directory at save time is returned as KindConflict as well.
func (s *Service) Signup(ctx context.Context, cmd SignupCommand) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "user.Signup", trace.WithAttributes(attribute.String("login_id", cmd.LoginID)))
	defer span.End()

	if err := ValidatePassword(cmd.Password, cmd.Birthday); err != nil {
		return nil, s.reject(span, err)
	}

	exists, err := s.directory.ExistsByLoginID(ctx, cmd.LoginID)
	if err != nil {
		return nil, s.internal(ctx, span, "check login id", err)
	}
	if exists {
		return nil, s.reject(span, loginIDTaken(cmd.LoginID))
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, s.internal(ctx, span, "hash password", err)
	}

	u, err := NewUser(cmd.LoginID, hash, cmd.Name, cmd.Birthday, cmd.Email)
	if err != nil {
		return nil, s.reject(span, err)
	}

	saved, err := s.directory.Save(ctx, u)
	if err != nil {
		if errors.Is(err, ErrDuplicateLoginID) {
			return nil, s.reject(span, loginIDTaken(cmd.LoginID))
		}
		return nil, s.internal(ctx, span, "save user", err)
	}

	s.logger.InfoContext(ctx, "user signed up",
		"login_id", saved.LoginID(),
		"user_id", saved.ID.String(),
	)
	return saved, nil
}

// Authenticate verifies a login id and raw password.
// An unknown login id and a wrong password produce identical errors.
func (s *Service) Authenticate(ctx context.Context, loginID, password string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "user.Authenticate", trace.WithAttributes(attribute.String("login_id", loginID)))
	defer span.End()

	u, err := s.directory.FindByLoginID(ctx, loginID)
	var targetHash string
	switch {
	case err == nil:
		targetHash = u.PasswordHash()
	case errors.Is(err, ErrNotFound):
		u = nil
		if targetHash, err = s.missHash(); err != nil {
			return nil, s.internal(ctx, span, "hash dummy password", err)
		}
	default:
		return nil, s.internal(ctx, span, "find user by login id", err)
	}

	// Always verify, even on a miss, so both failure paths take equal time.
	valid, err := s.hasher.Verify(password, targetHash)
	if err != nil && u != nil {
		return nil, s.internal(ctx, span, "verify password", err)
	}

	if u == nil || !valid {
		s.logger.WarnContext(ctx, "authentication failed",
			"login_id", loginID,
			"known_login_id", u != nil,
		)
		return nil, s.reject(span, KindUnauthorized.Builder().New(invalidCredentialsMessage))
	}

	return u, nil
}

// ChangePassword replaces the password of an existing user.
// The current password must verify, the new password must not verify against
// the current hash, and it must satisfy the policy for the user's birthday.
// Policy violations are reported as KindBadRequest with the policy kind kept
// in the error context under "violation".
func (s *Service) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	ctx, span := s.tracer.Start(ctx, "user.ChangePassword", trace.WithAttributes(attribute.String("login_id", cmd.LoginID)))
	defer span.End()

	u, err := s.find(ctx, span, cmd.LoginID)
	if err != nil {
		return err
	}

	matches, err := s.hasher.Verify(cmd.CurrentPassword, u.PasswordHash())
	if err != nil {
		return s.internal(ctx, span, "verify current password", err)
	}
	if !matches {
		s.logger.WarnContext(ctx, "password change rejected", "login_id", cmd.LoginID, "reason", "current_mismatch")
		return s.reject(span, KindBadRequest.Builder().
			With("login_id", cmd.LoginID).
			New("current password does not match"))
	}

	// Compared by verification, not by hash equality: hashes are salted.
	unchanged, err := s.hasher.Verify(cmd.NewPassword, u.PasswordHash())
	if err != nil {
		return s.internal(ctx, span, "verify new password", err)
	}
	if unchanged {
		return s.reject(span, KindBadRequest.Builder().
			With("login_id", cmd.LoginID).
			New("new password must differ from the current password"))
	}

	if err := ValidatePassword(cmd.NewPassword, u.Birthday().Format(BirthdayLayout)); err != nil {
		return s.reject(span, KindBadRequest.Builder().
			With("login_id", cmd.LoginID).
			With("violation", string(KindOf(err))).
			New(err.Error()))
	}

	hash, err := s.hasher.Hash(cmd.NewPassword)
	if err != nil {
		return s.internal(ctx, span, "hash new password", err)
	}
	if err := u.ChangePassword(hash); err != nil {
		return s.reject(span, err)
	}

	if _, err := s.directory.Save(ctx, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.reject(span, userNotFound(cmd.LoginID))
		}
		return s.internal(ctx, span, "save user", err)
	}

	s.logger.InfoContext(ctx, "password changed", "login_id", cmd.LoginID, "user_id", u.ID.String())
	return nil
}

// FindByLoginID returns the user with the given login id.
func (s *Service) FindByLoginID(ctx context.Context, loginID string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "user.FindByLoginID", trace.WithAttributes(attribute.String("login_id", loginID)))
	defer span.End()

	return s.find(ctx, span, loginID)
}

func (s *Service) find(ctx context.Context, span trace.Span, loginID string) (*User, error) {
	u, err := s.directory.FindByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.reject(span, userNotFound(loginID))
		}
		return nil, s.internal(ctx, span, "find user by login id", err)
	}
	return u, nil
}

// missHash returns the hash verified on a lookup miss, hashing dummyPassword
// on first use.
func (s *Service) missHash() (string, error) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = s.hasher.Hash(dummyPassword)
	})
	return s.dummyHash, s.dummyErr
}

// reject marks the span with the failure kind and returns err unchanged.
func (s *Service) reject(span trace.Span, err error) error {
	span.SetAttributes(attribute.String("failure_kind", string(KindOf(err))))
	span.SetStatus(codes.Error, string(KindOf(err)))
	return err
}

// internal wraps an infrastructure failure, logs it and records it on the span.
func (s *Service) internal(ctx context.Context, span trace.Span, operation string, err error) error {
	wrapped := KindInternal.Builder().With("operation", operation).Wrap(err)
	errutil.LogError(ctx, s.logger, "user service failure", wrapped)
	span.RecordError(err)
	span.SetStatus(codes.Error, operation)
	return wrapped
}

func loginIDTaken(loginID string) error {
	return KindConflict.Builder().
		With("login_id", loginID).
		New("login id is already taken")
}

func userNotFound(loginID string) error {
	return KindNotFound.Builder().
		With("login_id", loginID).
		New("user not found")
}
