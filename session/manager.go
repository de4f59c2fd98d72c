// Package session tracks who is logged in. It owns the credential lifecycle: bootstrap from
// a persisted credential, login, logout and reaction to the backend rejecting the credential.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/skins-market-client/credentials"
	apperrors "github.com/jrsteele09/skins-market-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// AuthAPI is the slice of the backend the session needs.
type AuthAPI interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Me(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
}

// Session is a snapshot of the session state.
type Session struct {
	User         *User
	Initializing bool
}

func (s Session) Authenticated() bool {
	return s.User != nil
}

// Manager holds the current session. Network calls are never made while its lock is held.
type Manager struct {
	creds   *credentials.Holder
	api     AuthAPI
	logger  zerolog.Logger
	nowTime func() time.Time
	group   singleflight.Group

	mu           sync.RWMutex
	user         *User
	initializing bool
	epoch        uint64 // bumped on every accept or reset
}

type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNowTime sets the clock used to check credential expiry (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		if nowFunc != nil {
			m.nowTime = nowFunc
		}
	}
}

// NewManager creates a manager. creds should already be loaded from its store: the
// session starts initializing only when a credential is held.
func NewManager(creds *credentials.Holder, api AuthAPI, options ...Option) *Manager {
	m := &Manager{
		creds:   creds,
		api:     api,
		logger:  zerolog.Nop(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	_, m.initializing = creds.Current()
	return m
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Session{User: copyUser(m.user), Initializing: m.initializing}
}

// RequireUser returns the logged in user, ErrSessionInitializing while bootstrap is
// pending, or ErrNotAuthenticated.
func (m *Manager) RequireUser() (*User, error) {
	s := m.Current()
	if s.Initializing {
		return nil, apperrors.ErrSessionInitializing
	}
	if s.User == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	return s.User, nil
}

// RequireAdmin is RequireUser plus an ADMIN role check.
func (m *Manager) RequireAdmin() (*User, error) {
	u, err := m.RequireUser()
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return u, nil
}

// Bootstrap validates the persisted credential with /auth/me. Any failure other than the
// caller abandoning the call clears the credential and the user. Initialization always ends.
func (m *Manager) Bootstrap(ctx context.Context) error {
	_, err, _ := m.group.Do("bootstrap", func() (any, error) {
		return nil, m.bootstrap(ctx)
	})
	return err
}

func (m *Manager) bootstrap(ctx context.Context) error {
	defer m.endInitializing()

	if _, ok := m.creds.Current(); !ok {
		return nil
	}
	if m.creds.Expired(m.nowTime()) {
		m.logger.Info().Msg("stored credential expired, discarding")
		m.reset(ctx)
		return nil
	}

	epoch := m.currentEpoch()
	user, err := m.api.Me(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		m.logger.Warn().Err(err).Msg("session bootstrap failed, clearing credential")
		m.reset(ctx)
		return err
	}

	if m.setUserIf(epoch, user) && user != nil {
		m.logger.Info().Int64("user_id", user.ID).Str("nickname", user.Nickname).Msg("session restored")
	}
	return nil
}

// Login exchanges steam id and password for a credential and starts a session.
func (m *Manager) Login(ctx context.Context, steamID, password string) (*User, error) {
	steamID = strings.TrimSpace(steamID)
	if steamID == "" || password == "" {
		return nil, apperrors.Invalidf("steam id and password are required")
	}

	resp, err := m.api.Login(ctx, LoginRequest{SteamID: steamID, Password: password})
	if err != nil {
		return nil, err
	}
	if err := m.Accept(ctx, resp.Token, resp.User); err != nil {
		return nil, err
	}
	return copyUser(&resp.User), nil
}

// Register creates an account and starts a session for it.
func (m *Manager) Register(ctx context.Context, steamID, nickname, password string) (*User, error) {
	steamID = strings.TrimSpace(steamID)
	nickname = strings.TrimSpace(nickname)
	if steamID == "" || nickname == "" || password == "" {
		return nil, apperrors.Invalidf("steam id, nickname and password are required")
	}

	resp, err := m.api.Register(ctx, RegisterRequest{SteamID: steamID, Nickname: nickname, Password: password})
	if err != nil {
		return nil, err
	}
	if err := m.Accept(ctx, resp.Token, resp.User); err != nil {
		return nil, err
	}
	return copyUser(&resp.User), nil
}

// Accept stores a credential and its user as the current session. A credential that could
// not be persisted still authenticates this process.
func (m *Manager) Accept(ctx context.Context, token string, user User) error {
	if err := m.creds.Set(ctx, token); err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidRequest) {
			return err
		}
		m.logger.Warn().Err(err).Msg("credential not persisted")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.user = copyUser(&user)
	m.initializing = false
	return nil
}

// Logout notifies the backend when a credential is held, then clears the session whatever
// the outcome.
func (m *Manager) Logout(ctx context.Context) {
	if _, ok := m.creds.Current(); ok {
		if err := m.api.Logout(ctx); err != nil {
			m.logger.Debug().Err(err).Msg("logout request failed")
		}
	}
	m.reset(ctx)
	m.logger.Info().Msg("logged out")
}

// RefreshUser reloads the user, typically after an operation changed the balance.
func (m *Manager) RefreshUser(ctx context.Context) (*User, error) {
	v, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.refreshUser(ctx)
	})
	if err != nil {
		return nil, err
	}
	user, _ := v.(*User)
	return copyUser(user), nil
}

func (m *Manager) refreshUser(ctx context.Context) (*User, error) {
	if _, ok := m.creds.Current(); !ok {
		m.setUser(nil)
		return nil, nil
	}

	epoch := m.currentEpoch()
	user, err := m.api.Me(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		m.logger.Warn().Err(err).Msg("refresh user failed, clearing session")
		m.reset(ctx)
		return nil, err
	}
	if !m.setUserIf(epoch, user) {
		return m.Current().User, nil
	}
	return user, nil
}

// HandleUnauthorized is the gateway's 401 observer: the credential was rejected, so the
// credential and the user go together.
func (m *Manager) HandleUnauthorized() {
	m.logger.Info().Msg("credential rejected by backend, clearing session")
	m.reset(context.Background())
}

// reset ends the session and drops the in-memory credential under one lock, so no reader
// sees a user without a credential. The store is cleared afterwards.
func (m *Manager) reset(ctx context.Context) {
	m.mu.Lock()
	m.epoch++
	m.user = nil
	m.creds.Forget()
	m.mu.Unlock()

	if err := m.creds.ClearStored(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn().Err(err).Msg("credential not removed from store")
	}
}

func (m *Manager) endInitializing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initializing = false
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

func (m *Manager) setUser(user *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = copyUser(user)
}

// setUserIf stores user unless the session was accepted or reset since epoch was read.
func (m *Manager) setUserIf(epoch uint64, user *User) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return false
	}
	m.user = copyUser(user)
	return true
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
