// Package common defines shared constants and sentinel errors used across
// keepsafe components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound = errors.New("not found")

	// Credential errors.
	ErrDuplicateUsername = errors.New("username already taken")
	ErrWeakPassword      = errors.New("password too short")
	ErrNotAuthenticated  = errors.New("not authenticated")

	// Vault errors. ErrInvalidPassword covers both a wrong password and
	// tampered/corrupted ciphertext; the two cases are indistinguishable
	// on purpose so decryption cannot be used as a password oracle.
	ErrInvalidPassword = errors.New("invalid password or corrupted data")

	// ErrCorruptData means decryption succeeded but the plaintext did not
	// match the expected schema.
	ErrCorruptData = errors.New("corrupt data")

	// Generic flow control.
	ErrInternal = errors.New("internal error")
)
