// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package authn

import (
	"context"

	"github.com/loopers/commerce-api/internal/user"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by the Pipeline.
// A context without one fails with KindUnauthorized; there is no anonymous principal.
func PrincipalFrom(ctx context.Context) (user.Principal, error) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	if !ok {
		return user.Principal{}, user.KindUnauthorized.Builder().
			With("reason", "no_principal").
			New("request is not authenticated")
	}
	return p, nil
}
