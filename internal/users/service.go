package users

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/cryptox"
	"github.com/keepsafe-dev/keepsafe/internal/storage"
	"github.com/keepsafe-dev/keepsafe/internal/vault"
)

const (
	// registryKey is the storage key holding the JSON sequence of all users.
	registryKey = "users"

	saltSize = 16
)

// Service owns the user registry exclusively. All reads and writes of the
// registry go through it.
type Service struct {
	store       storage.Provider
	minPassword int
	now         func() time.Time
}

// NewService constructs a credential store over the given provider.
// minPassword is the minimum accepted password length.
func NewService(store storage.Provider, minPassword int) *Service {
	return &Service{store: store, minPassword: minPassword, now: time.Now}
}

func (s *Service) load(ctx context.Context) ([]User, error) {
	raw, err := s.store.Get(ctx, registryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load user registry: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var list []User
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse user registry: %w", err)
	}
	return list, nil
}

func (s *Service) save(ctx context.Context, list []User) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to serialize user registry: %w", err)
	}
	if err := s.store.Set(ctx, registryKey, raw); err != nil {
		return fmt.Errorf("failed to save user registry: %w", err)
	}
	return nil
}

// Register creates a new user. Usernames are unique case-insensitively.
// Passwords shorter than the configured minimum are rejected with
// common.ErrWeakPassword.
func (s *Service) Register(ctx context.Context, username string, password []byte) (*User, error) {
	if len(password) < s.minPassword {
		return nil, common.ErrWeakPassword
	}

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range list {
		if strings.EqualFold(u.Username, username) {
			return nil, common.ErrDuplicateUsername
		}
	}

	salt := common.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	now := s.now()
	user := User{
		ID:          uuid.NewString(),
		Username:    username,
		Salt:        salt,
		Verifier:    cryptox.MakeVerifier(key),
		CreatedAt:   now,
		LastLoginAt: now,
	}

	if err := s.save(ctx, append(list, user)); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate looks up the user case-insensitively and checks the password
// against the stored verifier using a constant-time compare. On success it
// updates LastLoginAt and persists the registry.
//
// An unknown username and a wrong password both return (nil, nil): callers
// cannot tell the two apart, so the registry cannot be enumerated.
func (s *Service) Authenticate(ctx context.Context, username string, password []byte) (*User, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range list {
		if !strings.EqualFold(list[i].Username, username) {
			continue
		}

		key := cryptox.DeriveKey(password, list[i].Salt)
		candidate := cryptox.MakeVerifier(key)
		common.WipeByteArray(key)

		if subtle.ConstantTimeCompare(list[i].Verifier, candidate) == 0 {
			return nil, nil
		}

		list[i].LastLoginAt = s.now()
		if err := s.save(ctx, list); err != nil {
			return nil, err
		}
		u := list[i]
		return &u, nil
	}
	return nil, nil
}

// Delete removes the user and cascades deletion of every vault blob keyed to
// its id. Deleting an unknown user is a no-op.
func (s *Service) Delete(ctx context.Context, userID string) error {
	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, u := range list {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(list) {
		return nil
	}

	if err := s.save(ctx, kept); err != nil {
		return err
	}
	return s.store.DeletePrefix(ctx, vault.UserPrefix(userID))
}

// List returns all users in insertion order.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.load(ctx)
}

// Exists reports whether any user is registered.
func (s *Service) Exists(ctx context.Context) (bool, error) {
	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}
