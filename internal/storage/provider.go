// Package storage defines the durable key-value store behind the credential
// registry and the vault, plus its SQLite, PostgreSQL, and in-memory
// implementations. Providers are injected into the stores that need them;
// nothing in the module reaches for a global store instance.
package storage

import "context"

// Provider is a flat key-value store shared by all users on one device.
// Cross-user isolation is enforced by the callers' key scheme: every
// per-user key embeds the user id.
//
// Get returns (nil, nil) when the key is absent so that "no data yet" stays
// a normal state rather than an error.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)

	// ListPrefix returns all pairs whose key starts with prefix.
	ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error)

	// DeletePrefix removes all pairs whose key starts with prefix.
	// Used to cascade-delete a user's vault namespaces.
	DeletePrefix(ctx context.Context, prefix string) error

	Close() error
}
