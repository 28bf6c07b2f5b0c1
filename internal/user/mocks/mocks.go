// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

// Package mocks provides testify mocks for the user package capabilities.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/loopers/commerce-api/internal/user"
)

// testingT is the subset of *testing.T the constructors need.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockDirectory is a mock user.Directory.
type MockDirectory struct {
	mock.Mock
}

// NewMockDirectory creates a MockDirectory whose expectations are asserted
// when the test finishes.
func NewMockDirectory(t testingT) *MockDirectory {
	m := &MockDirectory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ExistsByLoginID provides a mock function.
func (m *MockDirectory) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	args := m.Called(ctx, loginID)
	return args.Bool(0), args.Error(1)
}

// FindByLoginID provides a mock function.
func (m *MockDirectory) FindByLoginID(ctx context.Context, loginID string) (*user.User, error) {
	args := m.Called(ctx, loginID)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

// Save provides a mock function.
func (m *MockDirectory) Save(ctx context.Context, u *user.User) (*user.User, error) {
	args := m.Called(ctx, u)
	if fn, ok := args.Get(0).(func(*user.User) *user.User); ok {
		return fn(u), args.Error(1)
	}
	saved, _ := args.Get(0).(*user.User)
	return saved, args.Error(1)
}

// MockPasswordHasher is a mock user.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test finishes.
func NewMockPasswordHasher(t testingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// Compile-time interface checks.
var (
	_ user.Directory      = (*MockDirectory)(nil)
	_ user.PasswordHasher = (*MockPasswordHasher)(nil)
)
