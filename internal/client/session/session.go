// Package session holds the client's authentication state. The token and
// the identity live in durable storage; the in-memory identity is only a
// cache and is always cleared together with it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/unidocs/internal/client/nav"
	"github.com/atinyakov/unidocs/internal/client/storage"
	"github.com/atinyakov/unidocs/internal/models"
)

// State of the session.
type State int

const (
	Unknown State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Authenticator is the part of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
	OnUnauthorized(fn func()) (unsubscribe func())
}

// Session is safe for concurrent use.
type Session struct {
	store  storage.KV
	api    Authenticator
	nav    nav.Navigator
	logger *zap.Logger

	mu    sync.Mutex
	state State
	user  *models.User

	unsubscribe func()
}

// New subscribes the session to the API's unauthorized event.
func New(store storage.KV, api Authenticator, navigator nav.Navigator, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{store: store, api: api, nav: navigator, logger: logger}
	s.unsubscribe = api.OnUnauthorized(s.handleUnauthorized)
	return s
}

// Close stops listening for unauthorized responses.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Token returns the persisted bearer token, or "".
func (s *Session) Token() string {
	tok, ok, err := s.store.Get(storage.KeyToken)
	if err != nil || !ok {
		return ""
	}
	return tok
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the cached identity, or nil.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Init restores the session from storage. A cached identity is trusted
// without a network call; a bare token is checked with Me.
func (s *Session) Init(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		s.set(Anonymous, nil)
		return nil
	}

	raw, ok, err := s.store.Get(storage.KeyUser)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if ok {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			s.set(Authenticated, &u)
			return nil
		}
		s.logger.Warn("discarding unreadable cached user")
	}

	s.set(Loading, nil)
	u, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Info("stored token rejected", zap.Error(err))
		s.clear()
		return nil
	}
	encoded, err := json.Marshal(u)
	if err == nil {
		err = s.store.SetMany(map[string]string{storage.KeyUser: string(encoded)})
	}
	if err != nil {
		s.logger.Warn("failed to cache user", zap.Error(err))
	}
	s.set(Authenticated, u)
	return nil
}

// Login authenticates and persists the token and identity together. On
// failure the state is left untouched.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// Register creates an account and logs into it.
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

func (s *Session) establish(resp *models.AuthResponse) (*models.User, error) {
	encoded, err := json.Marshal(resp.User)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	err = s.store.SetMany(map[string]string{
		storage.KeyToken: resp.Token,
		storage.KeyUser:  string(encoded),
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	u := resp.User
	s.set(Authenticated, &u)
	return &u, nil
}

// Logout forgets the credentials. It never fails.
func (s *Session) Logout() {
	s.clear()
}

func (s *Session) handleUnauthorized() {
	s.clear()
	if s.nav != nil && s.nav.Path() != nav.LoginPath {
		s.nav.Navigate(nav.LoginPath)
	}
}

func (s *Session) clear() {
	if err := s.store.Delete(storage.KeyToken, storage.KeyUser); err != nil {
		s.logger.Error("failed to clear session", zap.Error(err))
	}
	s.set(Anonymous, nil)
}

func (s *Session) set(state State, u *models.User) {
	s.mu.Lock()
	s.state = state
	s.user = u
	s.mu.Unlock()
}
