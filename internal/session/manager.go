// Package session implements the timed auto-unlock/auto-lock state machine.
//
// The Manager is the only component allowed to hold the cached plaintext
// password. All timer-driven transitions are guarded by a session epoch:
// every transition that changes the expiration time or clears the password
// bumps the epoch, and timer callbacks no-op when the epoch they captured is
// no longer current. The remaining time shown to callers is always
// recomputed from the absolute expiration instant, never from a decrement
// counter, so it stays correct across process suspension.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/logging"
	"github.com/keepsafe-dev/keepsafe/internal/settings"
	"github.com/keepsafe-dev/keepsafe/internal/storage"
	"github.com/keepsafe-dev/keepsafe/internal/users"
)

// State is the session lifecycle phase.
type State int

const (
	// StateLoggedOut: no current user.
	StateLoggedOut State = iota
	// StateLocked: a user is logged in but no valid cached password exists;
	// encrypted data is inaccessible until an explicit unlock.
	StateLocked
	// StateUnlocked: a valid cached password exists and the countdown runs.
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "logged out"
	}
}

// currentUserKey persists the current user (not the password) so the session
// can restore its user context after a process restart.
const currentUserKey = "session:current_user"

const (
	DefaultDuration     = time.Hour
	DefaultTickInterval = time.Second
)

// Config holds the session timing knobs.
type Config struct {
	// Duration is the session lifetime granted on login and on every touch.
	Duration time.Duration
	// TickInterval is how often the remaining time is republished.
	TickInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
}

// Manager tracks the logged-in user, caches the session password with a
// bounded lifetime, and drives the lock countdown.
type Manager struct {
	usersSvc *users.Service
	settings *settings.Store
	store    storage.Provider
	log      logging.Logger
	cfg      Config

	mu        sync.Mutex
	epoch     uint64
	current   *users.User
	secret    *secret
	decrypted *settings.Settings
	lockTimer *time.Timer

	onTick func(remaining int)
	onLock func()

	// now is a seam so tests can control the clock.
	now func() time.Time
}

// NewManager wires the session manager to its collaborators.
func NewManager(u *users.Service, s *settings.Store, p storage.Provider, log logging.Logger, cfg Config) *Manager {
	cfg.applyDefaults()
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{
		usersSvc: u,
		settings: s,
		store:    p,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// OnTick registers a callback invoked roughly once per tick interval with
// the recomputed remaining seconds. Set it before the first login.
func (m *Manager) OnTick(fn func(remaining int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTick = fn
}

// OnLock registers a callback invoked when the session auto-locks.
func (m *Manager) OnLock(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLock = fn
}

// Restore loads the persisted current user, if any, leaving the session
// Locked. The password cache never survives a restart.
func (m *Manager) Restore(ctx context.Context) error {
	raw, err := m.store.Get(ctx, currentUserKey)
	if err != nil {
		return fmt.Errorf("failed to load current user: %w", err)
	}
	if raw == nil {
		return nil
	}

	var u users.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return fmt.Errorf("failed to parse current user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &u
	return nil
}

// Register creates an account and opens an unlocked session for it.
func (m *Manager) Register(ctx context.Context, username string, password []byte) (*users.User, error) {
	u, err := m.usersSvc.Register(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return u, m.beginSession(ctx, u, password)
}

// Login authenticates and opens an unlocked session. Wrong credentials
// (unknown user or wrong password, indistinguishably) yield
// common.ErrInvalidPassword.
func (m *Manager) Login(ctx context.Context, username string, password []byte) (*users.User, error) {
	u, err := m.usersSvc.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, common.ErrInvalidPassword
	}
	return u, m.beginSession(ctx, u, password)
}

// beginSession caches the password, persists the current user, starts the
// timers, and attempts a silent settings unlock.
func (m *Manager) beginSession(ctx context.Context, u *users.User, password []byte) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to serialize current user: %w", err)
	}
	if err := m.store.Set(ctx, currentUserKey, raw); err != nil {
		return fmt.Errorf("failed to persist current user: %w", err)
	}

	m.mu.Lock()
	m.secret.clear()
	m.current = u
	m.secret = newSecret(password, u.Username, m.now().Add(m.cfg.Duration))
	m.decrypted = nil
	m.scheduleLocked()
	m.autoUnlockLocked(ctx)
	m.mu.Unlock()

	m.log.Info(ctx, "session started", "user", u.Username, "ttl", m.cfg.Duration)
	return nil
}

// autoUnlockLocked attempts a silent read of the settings namespace using
// the cached password. Failures are swallowed and logged: a corrupt or
// unreadable blob leaves the session usable, just without decrypted
// settings. Callers must hold m.mu.
func (m *Manager) autoUnlockLocked(ctx context.Context) {
	if m.decrypted != nil || m.current == nil || !m.secret.valid(m.now()) {
		return
	}

	epoch := m.epoch
	st, found, err := m.settings.Load(ctx, m.current.ID, m.secret.password)
	if m.epoch != epoch {
		// session changed while reading; discard the result
		return
	}
	if err != nil {
		m.log.Warn(ctx, "auto-unlock failed", "user", m.current.Username, "error", err)
		return
	}
	if found {
		m.decrypted = &st
	}
}

// TryAutoUnlock re-attempts the silent settings unlock, e.g. after settings
// were saved elsewhere. It is a no-op unless a valid cached password exists.
func (m *Manager) TryAutoUnlock(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoUnlockLocked(ctx)
}

// Unlock re-authenticates the current user with an explicitly supplied
// password and restarts the countdown. Unlike the silent path, failures
// propagate so the caller can prompt again.
func (m *Manager) Unlock(ctx context.Context, password []byte) error {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current == nil {
		return common.ErrNotAuthenticated
	}

	u, err := m.usersSvc.Authenticate(ctx, current.Username, password)
	if err != nil {
		return err
	}
	if u == nil {
		return common.ErrInvalidPassword
	}
	return m.beginSession(ctx, u, password)
}

// Logout clears the cached password, the decrypted settings, and the current
// user unconditionally, and invalidates all scheduled timers.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.epoch++
	m.stopTimerLocked()
	m.secret.clear()
	m.secret = nil
	m.decrypted = nil
	u := m.current
	m.current = nil
	m.mu.Unlock()

	if u != nil {
		m.log.Info(ctx, "session ended", "user", u.Username)
	}
	if err := m.store.Delete(ctx, currentUserKey); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	switch {
	case m.current == nil:
		return StateLoggedOut
	case m.secret.valid(m.now()):
		return StateUnlocked
	default:
		return StateLocked
	}
}

// CurrentUser returns the logged-in user, or nil.
func (m *Manager) CurrentUser() *users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	u := *m.current
	return &u
}

// Remaining reports the whole seconds left until auto-lock, recomputed from
// the absolute expiration time. Zero when not unlocked.
func (m *Manager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked()
}

func (m *Manager) remainingLocked() int {
	if !m.secret.valid(m.now()) {
		return 0
	}
	left := m.secret.expiresAt.Sub(m.now())
	return int((left + time.Second - 1) / time.Second)
}

// Settings returns the decrypted settings, if the silent unlock succeeded.
func (m *Manager) Settings() (settings.Settings, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decrypted == nil {
		return settings.Settings{}, false
	}
	return *m.decrypted, true
}

// SaveSettings encrypts and persists the settings. A nil password means
// "use the cached session password"; without a valid cache that fails with
// common.ErrNotAuthenticated. A successful save counts as activity and
// resets the countdown to the full duration.
func (m *Manager) SaveSettings(ctx context.Context, st settings.Settings, password []byte) error {
	return m.withPassword(ctx, password, func(userID string, pw []byte) error {
		return m.settings.Save(ctx, userID, pw, st)
	}, func() {
		s := st
		m.decrypted = &s
	})
}

// LoadSettings decrypts and returns the settings with an explicit password,
// propagating failures so the caller can prompt again. ok=false means no
// settings were ever saved. A successful load touches the session.
func (m *Manager) LoadSettings(ctx context.Context, password []byte) (settings.Settings, bool, error) {
	var st settings.Settings
	var found bool
	err := m.withPassword(ctx, password, func(userID string, pw []byte) error {
		var err error
		st, found, err = m.settings.Load(ctx, userID, pw)
		return err
	}, func() {
		if found {
			s := st
			m.decrypted = &s
		}
	})
	return st, found, err
}

// ResetSettings discards the stored settings blob. This is the explicit,
// caller-confirmed recovery path for corrupt data; the manager never invokes
// it on its own.
func (m *Manager) ResetSettings(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return common.ErrNotAuthenticated
	}
	if err := m.settings.Reset(ctx, m.current.ID); err != nil {
		return err
	}
	m.decrypted = nil
	return nil
}

// WithPassword runs fn with the current user id and a usable password,
// touching the session on success. It is how feature collaborators (the
// conversation and calendar stores) obtain the cached password without
// ever owning it.
func (m *Manager) WithPassword(ctx context.Context, password []byte, fn func(userID string, password []byte) error) error {
	return m.withPassword(ctx, password, fn, nil)
}

// withPassword resolves the effective password (explicit, or cached when nil),
// runs fn outside any caller-visible password ownership, and on success
// touches the countdown and applies the optional state update under the lock.
func (m *Manager) withPassword(ctx context.Context, password []byte, fn func(userID string, password []byte) error, after func()) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return common.ErrNotAuthenticated
	}
	userID := m.current.ID

	if password == nil {
		if !m.secret.valid(m.now()) {
			m.mu.Unlock()
			return common.ErrNotAuthenticated
		}
		password = append([]byte(nil), m.secret.password...)
		defer common.WipeByteArray(password)
	}
	epoch := m.epoch
	m.mu.Unlock()

	if err := fn(userID, password); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.current == nil || m.current.ID != userID {
		// logged out or switched users mid-flight; discard the effects
		return nil
	}
	m.touchLocked()
	if after != nil {
		after()
	}
	return nil
}

// touchLocked refreshes the absolute expiration to now+Duration and
// reschedules both timers. Activity only extends an existing valid cache;
// the cache itself is created solely by login, register, and unlock.
// Callers must hold m.mu.
func (m *Manager) touchLocked() {
	if !m.secret.valid(m.now()) {
		return
	}
	m.secret.expiresAt = m.now().Add(m.cfg.Duration)
	m.scheduleLocked()
}

// scheduleLocked bumps the epoch and (re)arms the one-shot lock timer and
// the display ticker against the current expiration time. Old timers see a
// stale epoch and no-op, so there is no window where a previous session's
// timer can fire into the new one. Callers must hold m.mu.
func (m *Manager) scheduleLocked() {
	m.epoch++
	epoch := m.epoch
	m.stopTimerLocked()

	until := m.secret.expiresAt.Sub(m.now())
	m.lockTimer = time.AfterFunc(until, func() {
		m.handleExpiry(epoch)
	})
	go m.runTicker(epoch)
}

func (m *Manager) stopTimerLocked() {
	if m.lockTimer != nil {
		m.lockTimer.Stop()
		m.lockTimer = nil
	}
}

// handleExpiry fires at the scheduled expiration instant.
func (m *Manager) handleExpiry(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	if m.secret.valid(m.now()) {
		// not actually expired (timer fired early); re-arm for the rest
		until := m.secret.expiresAt.Sub(m.now())
		m.lockTimer = time.AfterFunc(until, func() {
			m.handleExpiry(epoch)
		})
		m.mu.Unlock()
		return
	}
	cb := m.lockNowLocked()
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// runTicker republishes the recomputed remaining time once per tick until
// its epoch goes stale. If it observes an expired secret before the one-shot
// timer fires (e.g. after the process was suspended), it forces the lock.
func (m *Manager) runTicker(epoch uint64) {
	t := time.NewTicker(m.cfg.TickInterval)
	defer t.Stop()

	for range t.C {
		m.mu.Lock()
		if m.epoch != epoch {
			m.mu.Unlock()
			return
		}
		remaining := m.remainingLocked()
		if remaining <= 0 {
			cb := m.lockNowLocked()
			m.mu.Unlock()
			if cb != nil {
				cb()
			}
			return
		}
		tick := m.onTick
		m.mu.Unlock()

		if tick != nil {
			tick(remaining)
		}
	}
}

// lockNowLocked transitions Unlocked -> Locked: wipes the cached password
// and decrypted settings, invalidates timers, and returns the lock callback
// to invoke outside the lock. Callers must hold m.mu.
func (m *Manager) lockNowLocked() func() {
	m.epoch++
	m.stopTimerLocked()
	m.secret.clear()
	m.secret = nil
	m.decrypted = nil

	username := ""
	if m.current != nil {
		username = m.current.Username
	}
	m.log.Info(context.Background(), "session locked", "user", username)
	return m.onLock
}

// DeleteCurrentUser removes the logged-in account and all of its encrypted
// data, then ends the session.
func (m *Manager) DeleteCurrentUser(ctx context.Context) error {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current == nil {
		return common.ErrNotAuthenticated
	}
	if err := m.usersSvc.Delete(ctx, current.ID); err != nil {
		return err
	}
	return m.Logout(ctx)
}

// IsCorrupt reports whether err is the recoverable corrupt-settings case
// that ResetSettings exists for.
func IsCorrupt(err error) bool {
	return errors.Is(err, common.ErrCorruptData)
}
