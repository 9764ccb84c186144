package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/storage"
	"github.com/keepsafe-dev/keepsafe/internal/vault"
)

func newStore() *Store {
	return NewStore(vault.NewStore(storage.NewMemoryProvider()))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	in := Settings{APIKey: "sk-1", Model: "gpt-4o", Language: "en"}
	require.NoError(t, s.Save(ctx, "u1", []byte("password123"), in))

	out, found, err := s.Load(ctx, "u1", []byte("password123"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestLoad_NeverSaved(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	_, found, err := s.Load(ctx, "u1", []byte("password123"))
	require.NoError(t, err)
	assert.False(t, found, "missing settings are a normal state")
}

func TestLoad_WrongPassword(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	require.NoError(t, s.Save(ctx, "u1", []byte("right"), Settings{APIKey: "X"}))

	_, _, err := s.Load(ctx, "u1", []byte("wrong"))
	require.ErrorIs(t, err, common.ErrInvalidPassword)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	require.NoError(t, s.Save(ctx, "u1", []byte("pw"), Settings{APIKey: "X"}))
	require.NoError(t, s.Reset(ctx, "u1"))

	_, found, err := s.Load(ctx, "u1", []byte("pw"))
	require.NoError(t, err)
	assert.False(t, found)

	// idempotent
	require.NoError(t, s.Reset(ctx, "u1"))
}
