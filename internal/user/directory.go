// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package user

import "context"

// Directory manages user persistence. Implementations own their
// concurrency control, including login id uniqueness.
type Directory interface {
	// ExistsByLoginID reports whether a user with the login id is stored.
	ExistsByLoginID(ctx context.Context, loginID string) (bool, error)

	// FindByLoginID retrieves a user by login id.
	// Returns an error matching ErrNotFound if there is none.
	FindByLoginID(ctx context.Context, loginID string) (*User, error)

	// Save inserts a new user, assigning its ID, or updates an existing one.
	// The argument is not modified; the stored state is returned.
	// A login id collision returns an error matching ErrDuplicateLoginID.
	Save(ctx context.Context, u *User) (*User, error)
}
