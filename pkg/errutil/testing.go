// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package errutil

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestingT is the subset of *testing.T the assertion helpers need.
type TestingT interface {
	require.TestingT
	Helper()
}

// requireOops stops the test unless err carries oops metadata.
func requireOops(t TestingT, err error) (oops.OopsError, bool) {
	t.Helper()
	if err == nil {
		require.Fail(t, "expected an oops error, got nil")
		return oops.OopsError{}, false
	}
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %T: %v", err, err)
	return oopsErr, ok
}

// AssertErrorCode asserts that the deepest oops code on err equals code.
// Codes set by wrapping layers are ignored, matching oops' own lookup.
func AssertErrorCode(t TestingT, err error, code string) bool {
	t.Helper()
	oopsErr, ok := requireOops(t, err)
	if !ok {
		return false
	}
	got := fmt.Sprint(oopsErr.Code())
	return assert.Equal(t, code, got, "unexpected error code on %q", err.Error())
}

// AssertErrorContext asserts that err carries key in its oops context with
// the given value. Context from every wrapping layer is considered.
func AssertErrorContext(t TestingT, err error, key string, value any) bool {
	t.Helper()
	oopsErr, ok := requireOops(t, err)
	if !ok {
		return false
	}
	ctx := oopsErr.Context()
	got, ok := ctx[key]
	if !assert.True(t, ok, "context key %q missing on %q (have %v)", key, err.Error(), ctx) {
		return false
	}
	return assert.Equal(t, value, got, "context key %q on %q", key, err.Error())
}
