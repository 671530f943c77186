// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package auth

import (
	"errors"

	"github.com/sharebox/sharebox/internal/store"
	"github.com/sharebox/sharebox/pkg/errutil"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Kind classifies a failure of the subsystem. Its value is the oops code
// carried by the error.
type Kind string

// Validation kinds.
const (
	KindPasswordTooShort      Kind = "AUTH_PASSWORD_TOO_SHORT"
	KindPasswordsNotIdentical Kind = "AUTH_PASSWORDS_NOT_IDENTICAL"
	KindInvalidName           Kind = "AUTH_INVALID_NAME"
)

// Credential and anti-forgery kinds.
const (
	KindInvalidUserOrPassword Kind = "AUTH_INVALID_CREDENTIALS"
	KindUnknownUser           Kind = "AUTH_UNKNOWN_USER"
	KindCSRFMismatch          Kind = "AUTH_CSRF_MISMATCH"
	KindDuplicateUser         Kind = "AUTH_DUPLICATE_USER"
)

// Internal kinds.
const (
	KindHashingFailure     Kind = "AUTH_HASHING_FAILED"
	KindStorageUnavailable Kind = store.CodeUnavailable
)

var userFacing = map[Kind]bool{
	KindPasswordTooShort:      true,
	KindPasswordsNotIdentical: true,
	KindInvalidName:           true,
	KindInvalidUserOrPassword: true,
	KindUnknownUser:           true,
	KindCSRFMismatch:          true,
	KindDuplicateUser:         true,
	KindHashingFailure:        false,
	KindStorageUnavailable:    false,
}

// IsUserFacing reports whether the kind is caused by caller input and is
// rendered as a message rather than logged as an internal failure.
func (k Kind) IsUserFacing() bool {
	return userFacing[k]
}

// String returns the oops code of the kind.
func (k Kind) String() string {
	return string(k)
}

// KindOf returns the Kind carried by err. It reports false for nil errors and
// for errors outside the taxonomy.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	k := Kind(errutil.Code(err))
	if _, ok := userFacing[k]; !ok {
		return "", false
	}
	return k, true
}
