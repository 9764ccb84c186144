// Package users implements the credential store: the registry of local
// accounts and password verification against it.
package users

import "time"

// User is one local account. Salt and Verifier together allow checking a
// password without storing it: the password never appears in the registry,
// and the verifier is never used as an encryption key.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Salt        []byte    `json:"salt"`
	Verifier    []byte    `json:"verifier"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}
