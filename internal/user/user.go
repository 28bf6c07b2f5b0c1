// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package user

import (
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
)

// BirthdayLayout is the wire and storage format of a birthday.
const BirthdayLayout = "2006-01-02"

var (
	loginIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	emailRegex   = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.[a-zA-Z]{2,}$`)
)

// Record holds the identity and audit timestamps shared by persisted aggregates.
// ID is zero until a Directory stores the aggregate for the first time.
type Record struct {
	ID        ulid.ULID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsNew returns true if the record has never been persisted.
func (r Record) IsNew() bool {
	return r.ID.Compare(ulid.ULID{}) == 0
}

// User is a member account.
type User struct {
	Record

	loginID      string
	passwordHash string
	name         string
	birthday     time.Time
	email        string
}

// NewUser creates a validated User. passwordHash is the already hashed
// password; only its presence is checked here, password strength is the
// caller's concern. birthday must be YYYY-MM-DD and not later than today.
func NewUser(loginID, passwordHash, name, birthday, email string) (*User, error) {
	return NewUserAt(loginID, passwordHash, name, birthday, email, time.Now())
}

// NewUserAt is NewUser with an explicit reference time for the birthday check.
// Only the calendar date of now, in its own location, is used.
func NewUserAt(loginID, passwordHash, name, birthday, email string, now time.Time) (*User, error) {
	if err := validateLoginID(loginID); err != nil {
		return nil, err
	}
	if isBlank(name) {
		return nil, KindEmptyInput.Builder().With("field", "name").New("name cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if isBlank(passwordHash) {
		return nil, KindEmptyInput.Builder().With("field", "password").New("password cannot be empty")
	}
	born, err := parseBirthday(birthday, now)
	if err != nil {
		return nil, err
	}

	created := time.Now()
	return &User{
		Record: Record{
			CreatedAt: created,
			UpdatedAt: created,
		},
		loginID:      loginID,
		passwordHash: passwordHash,
		name:         name,
		birthday:     born,
		email:        email,
	}, nil
}

// RestoreUser rebuilds a User from stored state without validation.
// It is intended for Directory implementations reading their own rows.
func RestoreUser(rec Record, loginID, passwordHash, name string, birthday time.Time, email string) *User {
	return &User{
		Record:       rec,
		loginID:      loginID,
		passwordHash: passwordHash,
		name:         name,
		birthday:     civilDate(birthday),
		email:        email,
	}
}

// LoginID returns the unique login identifier.
func (u *User) LoginID() string { return u.loginID }

// PasswordHash returns the stored password hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// Name returns the display name.
func (u *User) Name() string { return u.name }

// Birthday returns the birthday as a UTC midnight time.
func (u *User) Birthday() time.Time { return u.birthday }

// Email returns the email address.
func (u *User) Email() string { return u.email }

// ChangePassword replaces the password hash.
// Policy and current-password checks are the Service's job; this only
// refuses a blank hash.
func (u *User) ChangePassword(newHash string) error {
	if isBlank(newHash) {
		return KindEmptyInput.Builder().With("field", "password").New("password cannot be empty")
	}
	u.passwordHash = newHash
	u.UpdatedAt = time.Now()
	return nil
}

// Principal returns the hash-free projection of u.
func (u *User) Principal() Principal {
	return Principal{
		ID:       u.ID,
		LoginID:  u.loginID,
		Name:     u.name,
		Birthday: u.birthday,
		Email:    u.email,
	}
}

func validateLoginID(loginID string) error {
	if isBlank(loginID) {
		return KindEmptyInput.Builder().With("field", "login_id").New("login id cannot be empty")
	}
	if !loginIDRegex.MatchString(loginID) {
		return KindFormatInvalid.Builder().
			With("field", "login_id").
			New("login id may only contain letters and digits")
	}
	return nil
}

func validateEmail(email string) error {
	if isBlank(email) {
		return KindEmptyInput.Builder().With("field", "email").New("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return KindFormatInvalid.Builder().With("field", "email").New("email format is invalid")
	}
	return nil
}

func parseBirthday(birthday string, now time.Time) (time.Time, error) {
	if isBlank(birthday) {
		return time.Time{}, KindEmptyInput.Builder().With("field", "birthday").New("birthday cannot be empty")
	}
	born, err := time.Parse(BirthdayLayout, birthday)
	if err != nil {
		return time.Time{}, KindFormatInvalid.Builder().
			With("field", "birthday").
			With("layout", "YYYY-MM-DD").
			New("birthday format is invalid")
	}
	if born.After(civilDate(now)) {
		return time.Time{}, KindFormatInvalid.Builder().
			With("field", "birthday").
			With("reason", "future").
			New("birthday cannot be in the future")
	}
	return born, nil
}

// civilDate drops the clock and location of t, keeping its calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
