// Package session owns the operator's authentication state: app-start
// restoration, login, logout, registration and forced expiry after a 401.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/dryerwatch/internal/client/api"
	"github.com/dmitrijs2005/dryerwatch/internal/client/models"
	"github.com/dmitrijs2005/dryerwatch/internal/client/tokenstore"
	"github.com/dmitrijs2005/dryerwatch/internal/common"
	"github.com/dmitrijs2005/dryerwatch/internal/logging"
)

// AuthAPI is the part of the backend client the session needs.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*models.LoginData, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
}

// CredentialStore persists the token and user across restarts.
type CredentialStore interface {
	Save(ctx context.Context, token string, user models.User) error
	Load(ctx context.Context) (*tokenstore.Credentials, error)
	Clear(ctx context.Context) error
}

const minPasswordLength = 6

// Manager is safe for concurrent use. Operations are not serialized against
// each other: the last one to finish decides the state.
type Manager struct {
	api   AuthAPI
	store CredentialStore
	log   logging.Logger

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func NewManager(a AuthAPI, store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		api:   a,
		store: store,
		log:   logging.Discard(),
		state: unauthenticated(),
		subs:  make(map[int]func(State)),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Token() string {
	return m.State().Token
}

func (m *Manager) IsAuthenticated() bool {
	return m.State().IsAuthenticated()
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) set(s State) {
	m.mu.Lock()
	m.state = s
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Init restores a stored session. A stored token is verified against the
// backend before it is trusted.
func (m *Manager) Init(ctx context.Context) {
	m.set(loading())

	creds, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error(ctx, "failed to load stored credentials", "error", err)
		m.set(unauthenticated())
		return
	}
	if creds == nil {
		m.set(unauthenticated())
		return
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		m.log.Warn(ctx, "stored token rejected", "error", err)
		m.clearStore(ctx)
		m.set(unauthenticated())
		return
	}

	m.set(authenticated(*user, creds.Token))
	m.log.Info(ctx, "session restored", "user", user.Username)
}

// Login authenticates and persists the credentials. On failure the state
// becomes error with a user-facing message and the error is returned.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.set(loading())

	data, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.log.Warn(ctx, "login failed", "user", username, "error", err)
		m.set(failed(userMessage(err)))
		return err
	}

	if err := m.store.Save(ctx, data.Token, data.User); err != nil {
		m.log.Error(ctx, "failed to persist credentials", "error", err)
		m.set(failed("unable to save session"))
		return fmt.Errorf("save credentials: %w", err)
	}

	m.set(authenticated(data.User, data.Token))
	m.log.Info(ctx, "login successful", "user", data.User.Username)
	return nil
}

// Logout always ends unauthenticated with the stored credentials removed,
// whatever the backend answers.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn(ctx, "logout request failed", "error", err)
	}
	m.clearStore(ctx)
	m.set(unauthenticated())
}

// Expire drops the session without contacting the backend. It is the
// handler for 401 responses.
func (m *Manager) Expire(ctx context.Context) {
	m.clearStore(ctx)
	m.set(unauthenticated())
}

// Verify asks the backend whether the current token is still accepted.
// The state is left alone; callers decide what a failure means.
func (m *Manager) Verify(ctx context.Context) bool {
	s := m.State()
	if s.Token == "" {
		return false
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		m.log.Warn(ctx, "token verification failed", "error", err)
		return false
	}

	if cur := m.State(); cur.Token == s.Token && cur.Status == StatusAuthenticated {
		m.set(authenticated(*user, s.Token))
	}
	return true
}

// Register creates an account. It never changes the session; the caller
// logs in separately.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}

	user, err := m.api.Register(ctx, req)
	if err != nil {
		m.log.Warn(ctx, "registration failed", "user", req.Username, "error", err)
		return nil, err
	}
	return user, nil
}

// ValidateRegistration checks the form before anything is sent.
func ValidateRegistration(req models.RegisterRequest) error {
	switch {
	case strings.TrimSpace(req.Username) == "":
		return fmt.Errorf("%w: username is required", common.ErrValidation)
	case !strings.Contains(req.Email, "@"):
		return fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	case len(req.Password) < minPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	case req.Password != req.ConfirmPassword:
		return fmt.Errorf("%w: passwords do not match", common.ErrValidation)
	}
	return nil
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.log.Error(ctx, "failed to clear credentials", "error", err)
	}
}

// userMessage turns a login failure into text for the operator.
func userMessage(err error) string {
	var rf *api.RequestFailedError
	switch {
	case errors.Is(err, api.ErrNetwork):
		return "unable to connect to server"
	case errors.Is(err, api.ErrAuthenticationRequired):
		return "invalid username or password"
	case errors.As(err, &rf):
		return rf.Message
	case errors.Is(err, api.ErrRejected):
		return strings.TrimPrefix(err.Error(), api.ErrRejected.Error()+": ")
	}
	return err.Error()
}
