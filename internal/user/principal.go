// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package user

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Principal is the authenticated caller of a single request.
// It never carries the password hash.
type Principal struct {
	ID       ulid.ULID
	LoginID  string
	Name     string
	Birthday time.Time
	Email    string
}
