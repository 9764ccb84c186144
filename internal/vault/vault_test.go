package vault

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/storage"
)

type settingsBlob struct {
	APIKey string `json:"api_key"`
}

func TestWriteRead_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryProvider())

	in := settingsBlob{APIKey: "X"}
	require.NoError(t, s.Write(ctx, "u1", NamespaceSettings, []byte("password123"), in))

	var out settingsBlob
	found, err := s.Read(ctx, "u1", NamespaceSettings, []byte("password123"), &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestRead_MissingBlob(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryProvider())

	var out settingsBlob
	found, err := s.Read(ctx, "u1", NamespaceSettings, []byte("pw"), &out)
	require.NoError(t, err)
	assert.False(t, found, "missing blob is a normal state, not an error")
}

func TestRead_WrongPassword(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryProvider())

	require.NoError(t, s.Write(ctx, "u1", NamespaceSettings, []byte("right"), settingsBlob{APIKey: "X"}))

	var out settingsBlob
	_, err := s.Read(ctx, "u1", NamespaceSettings, []byte("wrong"), &out)
	require.ErrorIs(t, err, common.ErrInvalidPassword)
}

func TestRead_UserIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryProvider())

	require.NoError(t, s.Write(ctx, "userA", NamespaceSettings, []byte("password123"), settingsBlob{APIKey: "X"}))

	// user B's key holds nothing, even with A's correct password
	var out settingsBlob
	found, err := s.Read(ctx, "userB", NamespaceSettings, []byte("password123"), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRead_CorruptCiphertext(t *testing.T) {
	ctx := context.Background()
	p := storage.NewMemoryProvider()
	s := NewStore(p)

	require.NoError(t, s.Write(ctx, "u1", NamespaceSettings, []byte("pw"), settingsBlob{APIKey: "X"}))

	// tamper with the stored blob
	require.NoError(t, p.Set(ctx, BlobKey("u1", NamespaceSettings), []byte("garbage")))

	var out settingsBlob
	_, err := s.Read(ctx, "u1", NamespaceSettings, []byte("pw"), &out)
	require.ErrorIs(t, err, common.ErrInvalidPassword)
}

func TestRead_CorruptSchema(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryProvider())

	// valid ciphertext whose plaintext cannot unmarshal into the target
	require.NoError(t, s.Write(ctx, "u1", NamespaceSettings, []byte("pw"), []int{1, 2, 3}))

	var out settingsBlob
	_, err := s.Read(ctx, "u1", NamespaceSettings, []byte("pw"), &out)
	require.ErrorIs(t, err, common.ErrCorruptData)
}

func TestHasAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryProvider())

	ok, err := s.Has(ctx, "u1", NamespaceSettings)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "u1", NamespaceSettings, []byte("pw"), settingsBlob{}))

	ok, err = s.Has(ctx, "u1", NamespaceSettings)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "u1", NamespaceSettings))
	require.NoError(t, s.Delete(ctx, "u1", NamespaceSettings)) // idempotent

	ok, err = s.Has(ctx, "u1", NamespaceSettings)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryProvider())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.Write(ctx, "u1", NamespaceConversations, []byte("pw"), settingsBlob{APIKey: "k"})
		}(i)
	}
	wg.Wait()

	var out settingsBlob
	found, err := s.Read(ctx, "u1", NamespaceConversations, []byte("pw"), &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "k", out.APIKey)
}
