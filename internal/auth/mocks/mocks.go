// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

// Package mocks provides testify mocks of the auth collaborators.
package mocks

import (
	"context"
	"net/netip"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/sharebox/sharebox/internal/auth"
	"github.com/sharebox/sharebox/internal/store"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockCredentialStore is a mock auth.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

// NewMockCredentialStore creates a MockCredentialStore that asserts its
// expectations when the test ends.
func NewMockCredentialStore(t testingT) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Register implements auth.CredentialStore.
func (m *MockCredentialStore) Register(ctx context.Context, q store.Querier, name, passwordHash string) (auth.UserID, error) {
	args := m.Called(ctx, q, name, passwordHash)
	id, _ := args.Get(0).(auth.UserID)
	return id, args.Error(1)
}

// FindByName implements auth.CredentialStore.
func (m *MockCredentialStore) FindByName(ctx context.Context, q store.Querier, name string) (*auth.User, error) {
	args := m.Called(ctx, q, name)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// MockSessionStore is a mock auth.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

// NewMockSessionStore creates a MockSessionStore that asserts its
// expectations when the test ends.
func NewMockSessionStore(t testingT) *MockSessionStore {
	m := &MockSessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create implements auth.SessionStore.
func (m *MockSessionStore) Create(ctx context.Context, q store.Querier, userID auth.UserID, tokenHash string) error {
	return m.Called(ctx, q, userID, tokenHash).Error(0)
}

// UserByTokenHash implements auth.SessionStore.
func (m *MockSessionStore) UserByTokenHash(ctx context.Context, q store.Querier, tokenHash string) (auth.UserID, error) {
	args := m.Called(ctx, q, tokenHash)
	id, _ := args.Get(0).(auth.UserID)
	return id, args.Error(1)
}

// DeleteByUser implements auth.SessionStore.
func (m *MockSessionStore) DeleteByUser(ctx context.Context, q store.Querier, userID auth.UserID) (int64, error) {
	args := m.Called(ctx, q, userID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// DeleteByTokenHash implements auth.SessionStore.
func (m *MockSessionStore) DeleteByTokenHash(ctx context.Context, q store.Querier, tokenHash string) error {
	return m.Called(ctx, q, tokenHash).Error(0)
}

// MockLoginStore is a mock auth.LoginStore.
type MockLoginStore struct {
	mock.Mock
}

// NewMockLoginStore creates a MockLoginStore that asserts its expectations
// when the test ends.
func NewMockLoginStore(t testingT) *MockLoginStore {
	m := &MockLoginStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// LastIP implements auth.LoginStore.
func (m *MockLoginStore) LastIP(ctx context.Context, q store.Querier, userID auth.UserID) (netip.Addr, error) {
	args := m.Called(ctx, q, userID)
	ip, _ := args.Get(0).(netip.Addr)
	return ip, args.Error(1)
}

// Insert implements auth.LoginStore.
func (m *MockLoginStore) Insert(ctx context.Context, q store.Querier, userID auth.UserID, ip netip.Addr, successful bool) error {
	return m.Called(ctx, q, userID, ip, successful).Error(0)
}

// Recent implements auth.LoginStore.
func (m *MockLoginStore) Recent(ctx context.Context, q store.Querier, userID auth.UserID, successful bool, limit int) ([]auth.LoginAttempt, error) {
	args := m.Called(ctx, q, userID, successful, limit)
	attempts, _ := args.Get(0).([]auth.LoginAttempt)
	return attempts, args.Error(1)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its
// expectations when the test ends.
func NewMockPasswordHasher(t testingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash implements auth.PasswordHasher.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify implements auth.PasswordHasher.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// TxRunner is a store.TxRunner that runs fn directly with a nil Querier.
// When Err is set WithTx fails without calling fn.
type TxRunner struct {
	Err error

	calls  atomic.Int64
	active atomic.Int64
}

// WithTx implements store.TxRunner.
func (r *TxRunner) WithTx(_ context.Context, fn func(q store.Querier) error) error {
	r.calls.Add(1)
	if r.Err != nil {
		return r.Err
	}
	r.active.Add(1)
	defer r.active.Add(-1)
	return fn(nil)
}

// Calls returns how many transactions were requested.
func (r *TxRunner) Calls() int64 {
	return r.calls.Load()
}

// Active reports whether a transaction is currently open.
func (r *TxRunner) Active() bool {
	return r.active.Load() > 0
}

// Compile-time interface checks.
var (
	_ auth.CredentialStore = (*MockCredentialStore)(nil)
	_ auth.SessionStore    = (*MockSessionStore)(nil)
	_ auth.LoginStore      = (*MockLoginStore)(nil)
	_ auth.PasswordHasher  = (*MockPasswordHasher)(nil)
	_ store.TxRunner       = (*TxRunner)(nil)
)
