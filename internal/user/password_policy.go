// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package user

import (
	"strings"
	"unicode/utf8"
)

// Password length constraints, inclusive.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 16
)

// passwordSymbols lists the non-alphanumeric characters a password may contain.
const passwordSymbols = `!@#$%^&*()_+-=[]{};':",./<>?`

// ValidatePassword checks a raw password against the password policy.
// birthday is the owner's birthday in YYYY-MM-DD form; the password may
// contain it neither as written nor with the dashes removed.
//
// Rules are checked in order and the first violation is returned:
//   - blank            -> KindEmptyInput
//   - length not 8..16 -> KindLengthInvalid
//   - disallowed char  -> KindFormatInvalid
//   - contains birthday -> KindContainsBirthday
//
// Length counts characters (runes), not bytes or UTF-16 code units, so a
// password of astral-plane characters within bounds fails on format.
func ValidatePassword(candidate, birthday string) error {
	if isBlank(candidate) {
		return KindEmptyInput.Builder().
			With("field", "password").
			New("password cannot be empty")
	}

	if n := utf8.RuneCountInString(candidate); n < MinPasswordLength || n > MaxPasswordLength {
		return KindLengthInvalid.Builder().
			With("field", "password").
			With("min", MinPasswordLength).
			With("max", MaxPasswordLength).
			Errorf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)
	}

	for _, r := range candidate {
		if !isPasswordRune(r) {
			return KindFormatInvalid.Builder().
				With("field", "password").
				New("password may only contain letters, digits and permitted symbols")
		}
	}

	// An empty reference is a substring of everything, so it cannot be checked.
	if birthday != "" {
		compact := strings.ReplaceAll(birthday, "-", "")
		if strings.Contains(candidate, birthday) || (compact != "" && strings.Contains(candidate, compact)) {
			return KindContainsBirthday.Builder().
				With("field", "password").
				New("password cannot contain the birthday")
		}
	}

	return nil
}

func isPasswordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return strings.ContainsRune(passwordSymbols, r)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
