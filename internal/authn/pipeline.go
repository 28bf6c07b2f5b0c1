// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package authn

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/loopers/commerce-api/internal/observability"
	"github.com/loopers/commerce-api/internal/user"
)

// Credential header names.
const (
	HeaderLoginID       = "X-Loopers-LoginId"
	HeaderLoginPassword = "X-Loopers-LoginPw"
)

// channelUser labels user pipeline metrics.
const channelUser = "user"

// CredentialSource provides named request values. http.Header satisfies it.
type CredentialSource interface {
	Get(key string) string
}

// Authenticator verifies a login id and raw password. *user.Service satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, loginID, password string) (*user.User, error)
}

// Pipeline authenticates requests from their credential headers.
type Pipeline struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewPipeline creates a Pipeline. A nil logger discards failure logs.
func NewPipeline(auth Authenticator, logger *slog.Logger) (*Pipeline, error) {
	if auth == nil {
		return nil, oops.Errorf("authenticator is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{auth: auth, logger: logger}, nil
}

// Authenticate reads the credential headers from src and verifies them.
// Missing or blank headers fail with KindUnauthorized without calling the
// authenticator. Authenticator errors are returned unchanged. On success the
// returned context carries the principal.
func (p *Pipeline) Authenticate(ctx context.Context, src CredentialSource) (context.Context, user.Principal, error) {
	loginID := src.Get(HeaderLoginID)
	password := src.Get(HeaderLoginPassword)

	if strings.TrimSpace(loginID) == "" || strings.TrimSpace(password) == "" {
		p.logger.WarnContext(ctx, "request authentication rejected",
			"reason", "missing_credentials",
			"login_id_present", strings.TrimSpace(loginID) != "",
		)
		observability.RecordAuthResult(channelUser, observability.ResultFailure)
		return ctx, user.Principal{}, user.KindUnauthorized.Builder().
			With("reason", "missing_credentials").
			New("authentication headers are required")
	}

	u, err := p.auth.Authenticate(ctx, loginID, password)
	if err != nil {
		p.logger.WarnContext(ctx, "request authentication rejected",
			"reason", "authenticate",
			"login_id", loginID,
			"kind", string(user.KindOf(err)),
		)
		observability.RecordAuthResult(channelUser, observability.ResultFailure)
		return ctx, user.Principal{}, err
	}

	principal := u.Principal()
	observability.RecordAuthResult(channelUser, observability.ResultSuccess)
	return WithPrincipal(ctx, principal), principal, nil
}
