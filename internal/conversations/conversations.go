// Package conversations stores per-user conversation history in the vault.
// The whole collection lives in one encrypted blob; each mutation decrypts,
// edits in memory, and re-encrypts the collection.
package conversations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/keepsafe-dev/keepsafe/internal/storage"
	"github.com/keepsafe-dev/keepsafe/internal/vault"
)

// Message is one turn in a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is one chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// currentKey is the storage key for the "current conversation" pointer.
// The pointer is a bare id with no secret content, so it is stored
// unencrypted next to the blob.
func currentKey(userID string) string {
	return "conversations:current:" + userID
}

// Store is a typed wrapper over the conversations namespace.
type Store struct {
	vault *vault.Store
	store storage.Provider
	now   func() time.Time
}

func NewStore(v *vault.Store, p storage.Provider) *Store {
	return &Store{vault: v, store: p, now: time.Now}
}

func (s *Store) load(ctx context.Context, userID string, password []byte) ([]Conversation, error) {
	var list []Conversation
	if _, err := s.vault.Read(ctx, userID, vault.NamespaceConversations, password, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// List returns all conversations, most recently updated first.
func (s *Store) List(ctx context.Context, userID string, password []byte) ([]Conversation, error) {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// Get returns one conversation by id, or (nil, nil) if it does not exist.
func (s *Store) Get(ctx context.Context, userID string, password []byte, id string) (*Conversation, error) {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Save upserts a conversation. An empty ID means a new conversation: one is
// assigned along with CreatedAt. UpdatedAt is always refreshed.
func (s *Store) Save(ctx context.Context, userID string, password []byte, c Conversation) (*Conversation, error) {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c.UpdatedAt = now

	if c.ID == "" {
		c.ID = uuid.NewString()
		c.CreatedAt = now
		list = append(list, c)
	} else {
		replaced := false
		for i := range list {
			if list[i].ID == c.ID {
				list[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, c)
		}
	}

	if err := s.vault.Write(ctx, userID, vault.NamespaceConversations, password, list); err != nil {
		return nil, err
	}
	return &c, nil
}

// Remove deletes a conversation by id; removing an unknown id is a no-op.
// If the removed conversation was current, the pointer is cleared.
func (s *Store) Remove(ctx context.Context, userID string, password []byte, id string) error {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(list) {
		return nil
	}

	if err := s.vault.Write(ctx, userID, vault.NamespaceConversations, password, kept); err != nil {
		return err
	}

	current, err := s.CurrentID(ctx, userID)
	if err != nil {
		return err
	}
	if current == id {
		return s.store.Delete(ctx, currentKey(userID))
	}
	return nil
}

// SetCurrentID records which conversation is open.
func (s *Store) SetCurrentID(ctx context.Context, userID, id string) error {
	if err := s.store.Set(ctx, currentKey(userID), []byte(id)); err != nil {
		return fmt.Errorf("failed to save current conversation: %w", err)
	}
	return nil
}

// CurrentID returns the current conversation pointer, or "" if none is set.
func (s *Store) CurrentID(ctx context.Context, userID string) (string, error) {
	raw, err := s.store.Get(ctx, currentKey(userID))
	if err != nil {
		return "", fmt.Errorf("failed to load current conversation: %w", err)
	}
	return string(raw), nil
}
