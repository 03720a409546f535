// Package common contains shared sentinel errors used across the Secure Vault
// client layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound signals a missing vault entry or session record.
	ErrNotFound = errors.New("not found")

	// ErrValidation covers local, synchronous input errors that must never
	// reach the network.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized means the session was rejected by the server; the local
	// session is cleared and the user must authenticate again.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable wraps transport failures talking to the vault API.
	ErrUnavailable = errors.New("server unavailable")

	// ErrNotLoggedIn is returned by operations that require a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// ValidationMessage strips the sentinel prefix from a validation error,
// leaving the user-facing text.
func ValidationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
}
