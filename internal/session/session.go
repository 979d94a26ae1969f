// Package session holds the console's authentication state and persists it
// between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaekwang-park/todo-console/internal/model"
)

var (
	ErrSignInRequired = errors.New("sign in required")
	ErrNoUserClaim    = errors.New("access token carries no user id")
)

// Store persists tokens under the fixed keys "token" and "refreshToken".
type Store interface {
	Load(ctx context.Context) (model.Tokens, error)
	Save(ctx context.Context, tokens model.Tokens) error
	Clear(ctx context.Context) error
}

// Session is the single source of truth for the current access token.
// Subscribers are called synchronously after every change.
type Session struct {
	mu     sync.RWMutex
	tokens model.Tokens
	store  Store
	subs   map[int]func(model.Tokens)
	nextID int
}

func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store, subs: make(map[int]func(model.Tokens))}
}

// Open creates a session primed with whatever the store already holds.
func Open(ctx context.Context, store Store) (*Session, error) {
	s := New(store)
	tokens, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s.tokens = tokens
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Set replaces the tokens, persists them and notifies subscribers.
func (s *Session) Set(ctx context.Context, tokens model.Tokens) error {
	if tokens.AccessToken == "" {
		return errors.New("session: access token is required")
	}
	if err := s.store.Save(ctx, tokens); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	s.notify(tokens)
	return nil
}

// Clear drops both tokens. Subscribers are notified even if the store fails.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = model.Tokens{}
	s.mu.Unlock()

	err := s.store.Clear(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to clear persisted session", "error", err)
	}
	s.notify(model.Tokens{})
	return err
}

// Subscribe registers fn for token changes and returns its cancel func.
func (s *Session) Subscribe(fn func(model.Tokens)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify(tokens model.Tokens) {
	s.mu.RLock()
	fns := make([]func(model.Tokens), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(tokens)
	}
}

// UserID reads the user id claim from the access token without verifying
// its signature; the server does that on every request.
func (s *Session) UserID() (string, error) {
	token := s.Token()
	if token == "" {
		return "", ErrSignInRequired
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse access token: %w", err)
	}
	for _, name := range []string{"userId", "_id", "id", "sub"} {
		if v, ok := claims[name].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", ErrNoUserClaim
}
