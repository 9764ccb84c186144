package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/storage"
	"github.com/keepsafe-dev/keepsafe/internal/vault"
)

var password = []byte("password123")

func newStore() *Store {
	p := storage.NewMemoryProvider()
	return NewStore(vault.NewStore(p), p)
}

func TestSave_AssignsIDAndTimestamps(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	c, err := s.Save(ctx, "u1", password, Conversation{
		Title:    "trip planning",
		Messages: []Message{{Role: "user", Content: "hi", Timestamp: now}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	assert.Equal(t, now, c.CreatedAt)
	assert.Equal(t, now, c.UpdatedAt)
}

func TestSave_UpsertsExisting(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	c, err := s.Save(ctx, "u1", password, Conversation{Title: "first"})
	require.NoError(t, err)

	c.Title = "renamed"
	c.Messages = append(c.Messages, Message{Role: "assistant", Content: "hello"})
	_, err = s.Save(ctx, "u1", password, *c)
	require.NoError(t, err)

	list, err := s.List(ctx, "u1", password)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "renamed", list[0].Title)
	assert.Len(t, list[0].Messages, 1)
}

func TestList_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	a, err := s.Save(ctx, "u1", password, Conversation{Title: "a"})
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.Save(ctx, "u1", password, Conversation{Title: "b"})
	require.NoError(t, err)

	now = now.Add(time.Minute)
	a.Title = "a touched"
	_, err = s.Save(ctx, "u1", password, *a)
	require.NoError(t, err)

	list, err := s.List(ctx, "u1", password)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a touched", list[0].Title)
	assert.Equal(t, "b", list[1].Title)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	c, err := s.Save(ctx, "u1", password, Conversation{Title: "x"})
	require.NoError(t, err)

	got, err := s.Get(ctx, "u1", password, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "x", got.Title)

	got, err = s.Get(ctx, "u1", password, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemove_ClearsCurrentPointer(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	c, err := s.Save(ctx, "u1", password, Conversation{Title: "x"})
	require.NoError(t, err)
	require.NoError(t, s.SetCurrentID(ctx, "u1", c.ID))

	require.NoError(t, s.Remove(ctx, "u1", password, c.ID))

	id, err := s.CurrentID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, id)

	list, err := s.List(ctx, "u1", password)
	require.NoError(t, err)
	assert.Empty(t, list)

	// removing again is a no-op
	require.NoError(t, s.Remove(ctx, "u1", password, c.ID))
}

func TestList_WrongPassword(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	_, err := s.Save(ctx, "u1", password, Conversation{Title: "x"})
	require.NoError(t, err)

	_, err = s.List(ctx, "u1", []byte("wrong"))
	require.ErrorIs(t, err, common.ErrInvalidPassword)
}

func TestUserIsolation(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	_, err := s.Save(ctx, "u1", password, Conversation{Title: "mine"})
	require.NoError(t, err)

	list, err := s.List(ctx, "u2", password)
	require.NoError(t, err)
	assert.Empty(t, list, "another user's id must see nothing")
}
