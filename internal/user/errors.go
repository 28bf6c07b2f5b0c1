// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package user

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Kind classifies a failure. It is stored as the oops error code.
type Kind string

// Failure kinds.
const (
	KindEmptyInput       Kind = "EMPTY_INPUT"
	KindFormatInvalid    Kind = "FORMAT_INVALID"
	KindLengthInvalid    Kind = "LENGTH_INVALID"
	KindContainsBirthday Kind = "CONTAINS_BIRTHDAY"
	KindConflict         Kind = "CONFLICT"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindNotFound         Kind = "NOT_FOUND"
	KindBadRequest       Kind = "BAD_REQUEST"
	KindInternal         Kind = "INTERNAL"
)

// ErrNotFound is returned by a Directory when no user has the requested login id.
var ErrNotFound = errors.New("not found")

// ErrDuplicateLoginID is returned by a Directory when a save would violate
// login id uniqueness.
var ErrDuplicateLoginID = errors.New("login id already exists")

// Builder starts an oops error carrying k as its code.
func (k Kind) Builder() oops.OopsErrorBuilder {
	return oops.Code(string(k))
}

// KindOf reports the Kind of err. Errors that carry no known kind,
// including plain errors, are KindInternal. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	switch k := Kind(fmt.Sprint(oopsErr.Code())); k {
	case KindEmptyInput, KindFormatInvalid, KindLengthInvalid, KindContainsBirthday,
		KindConflict, KindUnauthorized, KindNotFound, KindBadRequest:
		return k
	default:
		return KindInternal
	}
}

// IsValidationKind reports whether k describes rejected input rather than
// an authorization or lookup outcome.
func IsValidationKind(k Kind) bool {
	switch k {
	case KindEmptyInput, KindFormatInvalid, KindLengthInvalid, KindContainsBirthday, KindBadRequest:
		return true
	default:
		return false
	}
}
