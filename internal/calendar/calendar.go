// Package calendar stores per-user calendar events in the vault.
package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/keepsafe-dev/keepsafe/internal/vault"
)

// Event is a single calendar entry. End is exclusive; an all-day event spans
// midnight to midnight.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
}

// Store is a typed wrapper over the calendar namespace. The full event
// collection lives in one encrypted blob.
type Store struct {
	vault *vault.Store
}

func NewStore(v *vault.Store) *Store {
	return &Store{vault: v}
}

func (s *Store) load(ctx context.Context, userID string, password []byte) ([]Event, error) {
	var list []Event
	if _, err := s.vault.Read(ctx, userID, vault.NamespaceCalendar, password, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, userID string, password []byte, list []Event) error {
	return s.vault.Write(ctx, userID, vault.NamespaceCalendar, password, list)
}

// Add stores a new event and returns it with its assigned id.
func (s *Store) Add(ctx context.Context, userID string, password []byte, e Event) (*Event, error) {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return nil, err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	list = append(list, e)

	if err := s.save(ctx, userID, password, list); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update replaces the event with the same id. Unknown ids are a no-op.
func (s *Store) Update(ctx context.Context, userID string, password []byte, e Event) error {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return err
	}

	for i := range list {
		if list[i].ID == e.ID {
			list[i] = e
			return s.save(ctx, userID, password, list)
		}
	}
	return nil
}

// Remove deletes an event by id; removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, userID string, password []byte, id string) error {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, e := range list {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return s.save(ctx, userID, password, kept)
}

// List returns all events sorted by start time.
func (s *Store) List(ctx context.Context, userID string, password []byte) ([]Event, error) {
	list, err := s.load(ctx, userID, password)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Start.Before(list[j].Start)
	})
	return list, nil
}

// InRange returns, sorted by start time, the events overlapping the
// half-open interval [from, to).
func (s *Store) InRange(ctx context.Context, userID string, password []byte, from, to time.Time) ([]Event, error) {
	list, err := s.List(ctx, userID, password)
	if err != nil {
		return nil, err
	}

	var result []Event
	for _, e := range list {
		if e.Start.Before(to) && e.End.After(from) {
			result = append(result, e)
		}
	}
	return result, nil
}
