// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package user implements member identity for the commerce API.
//
// # Domain Types
//
// User is the account aggregate. Create it with NewUser, which validates
// every field and returns no user at all if any check fails. The login id,
// name, birthday and email never change after creation; the password hash
// is replaced only through (*User).ChangePassword.
//
// Principal is the hash-free projection of a User that is handed to request
// handlers once a request has been authenticated.
//
// # Capabilities
//
// Service depends on two injected capabilities:
//   - Directory - lookup, existence check and persistence of users
//   - PasswordHasher - one-way hashing and constant-time verification
//
// # Errors
//
// Every failure raised by this package carries a Kind as its oops code.
// Use KindOf to classify an error at the boundary.
package user
