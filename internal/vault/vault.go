// Package vault implements per-user, per-namespace encrypted blob storage.
// Every namespace of a user is one blob: whole collections are decrypted,
// mutated in memory, and re-encrypted on each write. All cryptography is
// delegated to cryptox; all durability to an injected storage.Provider.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/keepsafe-dev/keepsafe/internal/cryptox"
	"github.com/keepsafe-dev/keepsafe/internal/storage"
)

// Namespaces used by the domain stores.
const (
	NamespaceSettings      = "settings"
	NamespaceConversations = "conversations"
	NamespaceCalendar      = "calendar"
)

// UserPrefix returns the storage key prefix under which all of a user's
// blobs live.
func UserPrefix(userID string) string {
	return "vault:" + userID + ":"
}

// BlobKey returns the storage key for one (user, namespace) blob.
func BlobKey(userID, namespace string) string {
	return UserPrefix(userID) + namespace
}

// Store reads and writes encrypted namespace blobs. It is safe for
// concurrent use: writes to the same (user, namespace) key are serialized so
// a slow read-modify-write cannot race another writer and drop its changes.
type Store struct {
	store storage.Provider

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(store storage.Provider) *Store {
	return &Store{store: store, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Write serializes value, encrypts it under password, and persists the blob,
// overwriting any prior blob for that key. Encryption happens entirely
// before the single store write, so a failed encryption leaves the previous
// blob intact.
func (s *Store) Write(ctx context.Context, userID, namespace string, password []byte, value any) error {
	key := BlobKey(userID, namespace)
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()

	ciphertext, err := cryptox.Encrypt(value, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s blob: %w", namespace, err)
	}
	if err := s.store.Set(ctx, key, []byte(ciphertext)); err != nil {
		return fmt.Errorf("failed to persist %s blob: %w", namespace, err)
	}
	return nil
}

// Read decrypts the blob for (userID, namespace) into v. It returns
// (false, nil) when no blob exists, common.ErrInvalidPassword when
// decryption fails, and common.ErrCorruptData when decryption succeeds but
// the plaintext does not match the expected shape.
func (s *Store) Read(ctx context.Context, userID, namespace string, password []byte, v any) (bool, error) {
	raw, err := s.store.Get(ctx, BlobKey(userID, namespace))
	if err != nil {
		return false, fmt.Errorf("failed to load %s blob: %w", namespace, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := cryptox.Decrypt(string(raw), password, v); err != nil {
		return false, err
	}
	return true, nil
}

// Has reports whether a blob exists, without decrypting it.
func (s *Store) Has(ctx context.Context, userID, namespace string) (bool, error) {
	return s.store.Has(ctx, BlobKey(userID, namespace))
}

// Delete removes the blob. Deleting a missing blob is a no-op.
func (s *Store) Delete(ctx context.Context, userID, namespace string) error {
	key := BlobKey(userID, namespace)
	l := s.keyLock(key)
	l.Lock()
	defer l.Unlock()
	return s.store.Delete(ctx, key)
}
