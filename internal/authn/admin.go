// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package authn

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/loopers/commerce-api/internal/observability"
	"github.com/loopers/commerce-api/internal/user"
)

// HeaderAdmin carries the administrative token.
const HeaderAdmin = "X-Loopers-Ldap"

// DefaultAdminValue is the admin token used when none is configured.
const DefaultAdminValue = "loopers.admin"

const channelAdmin = "admin"

// AdminGate admits requests whose admin header equals a fixed value.
type AdminGate struct {
	expected []byte
	logger   *slog.Logger
}

// NewAdminGate creates an AdminGate expecting value. A nil logger discards logs.
func NewAdminGate(value string, logger *slog.Logger) (*AdminGate, error) {
	if strings.TrimSpace(value) == "" {
		return nil, oops.Code("ADMIN_VALUE_EMPTY").Errorf("admin header value is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AdminGate{expected: []byte(value), logger: logger}, nil
}

// Check fails with KindUnauthorized when the admin header is missing or wrong.
func (g *AdminGate) Check(ctx context.Context, src CredentialSource) error {
	got := src.Get(HeaderAdmin)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), g.expected) != 1 {
		g.logger.WarnContext(ctx, "admin authentication rejected", "header_present", got != "")
		observability.RecordAuthResult(channelAdmin, observability.ResultFailure)
		return user.KindUnauthorized.Builder().
			With("reason", "admin_header").
			New("admin authentication failed")
	}
	observability.RecordAuthResult(channelAdmin, observability.ResultSuccess)
	return nil
}
