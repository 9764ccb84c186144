// Package settings stores per-user application settings in the vault.
package settings

import (
	"context"

	"github.com/keepsafe-dev/keepsafe/internal/vault"
)

// Settings is the per-user configuration for the assistant features.
// It lives in a single encrypted blob; the API key never touches storage
// in the clear.
type Settings struct {
	APIKey       string `json:"api_key"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	VoiceName    string `json:"voice_name"`
	Language     string `json:"language"`
}

// Store is a typed wrapper over the settings namespace.
type Store struct {
	vault *vault.Store
}

func NewStore(v *vault.Store) *Store {
	return &Store{vault: v}
}

// Save encrypts and persists the full settings record.
func (s *Store) Save(ctx context.Context, userID string, password []byte, st Settings) error {
	return s.vault.Write(ctx, userID, vault.NamespaceSettings, password, st)
}

// Load returns the user's settings, or ok=false when none were saved yet.
func (s *Store) Load(ctx context.Context, userID string, password []byte) (Settings, bool, error) {
	var st Settings
	found, err := s.vault.Read(ctx, userID, vault.NamespaceSettings, password, &st)
	if err != nil {
		return Settings{}, false, err
	}
	return st, found, nil
}

// Reset discards the stored settings blob. This is the explicit recovery
// path for a corrupt blob; it is never invoked automatically.
func (s *Store) Reset(ctx context.Context, userID string) error {
	return s.vault.Delete(ctx, userID, vault.NamespaceSettings)
}
