package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// runProviderSuite exercises the Provider contract shared by all backends.
func runProviderSuite(t *testing.T, p Provider) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		v, err := p.Get(ctx, "missing")
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "a", []byte("1")))
		v, err := p.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte("1"), v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "a", []byte("2")))
		v, err := p.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte("2"), v)
	})

	t.Run("has", func(t *testing.T) {
		ok, err := p.Has(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = p.Has(ctx, "nope")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("list prefix", func(t *testing.T) {
		require.NoError(t, p.Set(ctx, "vault:u1:settings", []byte("s")))
		require.NoError(t, p.Set(ctx, "vault:u1:calendar", []byte("c")))
		require.NoError(t, p.Set(ctx, "vault:u2:settings", []byte("x")))

		m, err := p.ListPrefix(ctx, "vault:u1:")
		require.NoError(t, err)
		require.Len(t, m, 2)
		require.Equal(t, []byte("s"), m["vault:u1:settings"])
	})

	t.Run("delete prefix", func(t *testing.T) {
		require.NoError(t, p.DeletePrefix(ctx, "vault:u1:"))

		m, err := p.ListPrefix(ctx, "vault:u1:")
		require.NoError(t, err)
		require.Empty(t, m)

		// other users untouched
		ok, err := p.Has(ctx, "vault:u2:settings")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, p.Delete(ctx, "a"))
		require.NoError(t, p.Delete(ctx, "a"))
		v, err := p.Get(ctx, "a")
		require.NoError(t, err)
		require.Nil(t, v)
	})
}

func TestMemoryProvider(t *testing.T) {
	runProviderSuite(t, NewMemoryProvider())
}

func TestSQLiteProvider(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	p, err := NewSQLiteProvider(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	runProviderSuite(t, p)
}

func TestMemoryProvider_CopiesValues(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	in := []byte("secret")
	require.NoError(t, p.Set(ctx, "k", in))
	in[0] = 'X'

	out, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), out)
}
