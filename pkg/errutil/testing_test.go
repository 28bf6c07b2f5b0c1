// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package errutil_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/loopers/commerce-api/pkg/errutil"
)

// recorder captures failures instead of failing the enclosing test.
type recorder struct {
	errors  []string
	stopped bool
}

func (r *recorder) Helper() {}

func (r *recorder) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) FailNow() { r.stopped = true }

func TestAssertErrorCode(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		err := oops.Code("CONFLICT").Errorf("login id already exists")
		assert.True(t, errutil.AssertErrorCode(t, err, "CONFLICT"))
	})

	t.Run("deepest code wins", func(t *testing.T) {
		inner := oops.Code("USER_NOT_FOUND").Errorf("no such user")
		err := oops.Code("INTERNAL").Wrap(inner)
		assert.True(t, errutil.AssertErrorCode(t, err, "USER_NOT_FOUND"))
	})

	t.Run("mismatch is reported", func(t *testing.T) {
		rec := &recorder{}
		err := oops.Code("CONFLICT").Errorf("login id already exists")
		assert.False(t, errutil.AssertErrorCode(rec, err, "NOT_FOUND"))
		assert.Len(t, rec.errors, 1)
		assert.False(t, rec.stopped)
	})

	t.Run("plain error stops the test", func(t *testing.T) {
		rec := &recorder{}
		errutil.AssertErrorCode(rec, errors.New("boom"), "CONFLICT")
		assert.True(t, rec.stopped)
	})

	t.Run("nil error stops the test", func(t *testing.T) {
		rec := &recorder{}
		errutil.AssertErrorCode(rec, nil, "CONFLICT")
		assert.True(t, rec.stopped)
	})
}

func TestAssertErrorContext(t *testing.T) {
	t.Run("matching key and value", func(t *testing.T) {
		err := oops.With("login_id", "alice1").Errorf("test error")
		assert.True(t, errutil.AssertErrorContext(t, err, "login_id", "alice1"))
	})

	t.Run("missing key is reported", func(t *testing.T) {
		rec := &recorder{}
		err := oops.With("login_id", "alice1").Errorf("test error")
		assert.False(t, errutil.AssertErrorContext(rec, err, "operation", "save user"))
		assert.Len(t, rec.errors, 1)
	})

	t.Run("wrong value is reported", func(t *testing.T) {
		rec := &recorder{}
		err := oops.With("login_id", "alice1").Errorf("test error")
		assert.False(t, errutil.AssertErrorContext(rec, err, "login_id", "bob"))
		assert.Len(t, rec.errors, 1)
	})
}
