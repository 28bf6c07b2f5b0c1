// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package usertest provides in-memory implementations of the user
// capabilities for tests.
package usertest

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopers/commerce-api/internal/user"
	"github.com/loopers/commerce-api/pkg/errutil"
)

// Directory is a concurrency-safe in-memory user.Directory.
// Stored users are copied on the way in and out, so callers can mutate
// what they get back without touching stored state.
type Directory struct {
	mu      sync.RWMutex
	byLogin map[string]*user.User
	saves   int
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{byLogin: make(map[string]*user.User)}
}

// ExistsByLoginID reports whether the login id is stored.
func (d *Directory) ExistsByLoginID(_ context.Context, loginID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byLogin[loginID]
	return ok, nil
}

// FindByLoginID returns a copy of the stored user.
func (d *Directory) FindByLoginID(_ context.Context, loginID string) (*user.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byLogin[loginID]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("login_id", loginID).Wrap(user.ErrNotFound)
	}
	return clone(u), nil
}

// Save inserts or updates a user, enforcing login id uniqueness.
func (d *Directory) Save(_ context.Context, u *user.User) (*user.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored := clone(u)
	existing, taken := d.byLogin[u.LoginID()]
	if stored.IsNew() {
		if taken {
			return nil, oops.Code("USER_DUPLICATE_LOGIN_ID").
				With("login_id", u.LoginID()).
				Wrap(user.ErrDuplicateLoginID)
		}
		stored.ID = ulid.Make()
	} else if !taken || existing.ID != stored.ID {
		return nil, oops.Code("USER_NOT_FOUND").With("id", stored.ID.String()).Wrap(user.ErrNotFound)
	}

	d.byLogin[u.LoginID()] = stored
	d.saves++
	return clone(stored), nil
}

// Saves returns the number of successful saves.
func (d *Directory) Saves() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.saves
}

func clone(u *user.User) *user.User {
	c := *u
	return &c
}

// Hasher is a fast salted user.PasswordHasher for tests. Hashing the same
// password twice gives different strings, like the production hashers.
type Hasher struct{}

// Hash returns "test$<salt>$<sha256(salt+password)>".
func (Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", user.ErrEmptyPassword
	}
	salt := make([]byte, 8)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Wrap(err)
	}
	return "test$" + hex.EncodeToString(salt) + "$" + digest(salt, password), nil
}

// Verify checks a hash produced by Hash.
func (Hasher) Verify(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != "test" {
		return false, oops.Code("HASH_INVALID").Errorf("invalid hash format")
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
	return subtle.ConstantTimeCompare([]byte(digest(salt, password)), []byte(parts[2])) == 1, nil
}

func digest(salt []byte, password string) string {
	sum := sha256.Sum256(append(append([]byte{}, salt...), password...))
	return hex.EncodeToString(sum[:])
}

// MustUser builds a persisted-looking user or panics. Intended for test fixtures.
func MustUser(loginID, passwordHash, name, birthday, email string) *user.User {
	u, err := user.NewUser(loginID, passwordHash, name, birthday, email)
	if err != nil {
		panic(err)
	}
	u.ID = ulid.Make()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	return u
}

// AssertKind asserts that err is non-nil and classifies as want.
// Codes outside the user.Kind vocabulary classify as user.KindInternal.
func AssertKind(t errutil.TestingT, err error, want user.Kind) bool {
	t.Helper()
	if err == nil {
		require.Fail(t, "expected a "+string(want)+" error, got nil")
		return false
	}
	return assert.Equal(t, want, user.KindOf(err), "unexpected kind for %q", err.Error())
}

// Compile-time interface checks.
var (
	_ user.Directory      = (*Directory)(nil)
	_ user.PasswordHasher = Hasher{}
)
