// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package authn turns request credentials into a verified user.Principal.
//
// Every protected request carries a login id and a raw password in the
// X-Loopers-LoginId and X-Loopers-LoginPw headers. The Pipeline checks them
// against the user service on each request; there are no sessions. On
// success the principal is stored in the request context, where handlers
// read it back with PrincipalFrom.
//
// Administrative routes use AdminGate instead, a static header comparison
// that involves no user lookup.
package authn
