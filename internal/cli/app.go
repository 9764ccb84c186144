// Package cli provides the interactive keepsafe command-line client.
//
// It wires configuration, the durable store, the session manager, and an
// interactive REPL. The REPL is a thin collaborator over the typed core API:
// all invariants live in the internal packages it calls.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/keepsafe-dev/keepsafe/internal/calendar"
	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/config"
	"github.com/keepsafe-dev/keepsafe/internal/conversations"
	"github.com/keepsafe-dev/keepsafe/internal/logging"
	"github.com/keepsafe-dev/keepsafe/internal/session"
	"github.com/keepsafe-dev/keepsafe/internal/settings"
	"github.com/keepsafe-dev/keepsafe/internal/storage"
	"github.com/keepsafe-dev/keepsafe/internal/users"
	"github.com/keepsafe-dev/keepsafe/internal/vault"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   storage.Provider
	session *session.Manager
	conv    *conversations.Store
	cal     *calendar.Store
	reader  *bufio.Reader
}

// newProvider picks the storage backend per config.
func newProvider(ctx context.Context, c *config.Config) (storage.Provider, error) {
	switch c.StorageDriver {
	case "postgres":
		return storage.NewPostgresProvider(ctx, c.DatabaseDSN)
	case "sqlite", "":
		return storage.NewSQLiteProvider(ctx, c.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", c.StorageDriver)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	store, err := newProvider(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	userSvc := users.NewService(store, c.MinPasswordLength)
	vaultStore := vault.NewStore(store)
	settingsStore := settings.NewStore(vaultStore)

	mgr := session.NewManager(userSvc, settingsStore, store, logger, session.Config{
		Duration:     c.SessionDuration,
		TickInterval: c.TickInterval,
	})
	if err := mgr.Restore(ctx); err != nil {
		logger.Warn(ctx, "failed to restore previous session user", "error", err)
	}

	return &App{
		config:  c,
		logger:  logger,
		store:   store,
		session: mgr,
		conv:    conversations.NewStore(vaultStore, store),
		cal:     calendar.NewStore(vaultStore),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session.State() != session.StateLoggedOut
}

// withSession runs fn with the cached session password. A locked or
// logged-out session is reported to the user instead of surfacing
// an error to the REPL.
func (a *App) withSession(ctx context.Context, fn func(userID string, password []byte) error) error {
	err := a.session.WithPassword(ctx, nil, fn)
	if errors.Is(err, common.ErrNotAuthenticated) {
		fmt.Println("Session locked, log in or unlock first")
		return nil
	}
	return err
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.store.Close()
	}()
	a.Root(ctx)
}
