// Package session tracks the client's identity. Unlike the cart, identity
// loads fail closed: a token without a profile (or the reverse) means
// logged out.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zsimmons25/see-more/internal/client/api"
	"github.com/zsimmons25/see-more/internal/client/storage"
)

// Authenticator is the slice of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResult, error)
	SetToken(token string)
}

type Session struct {
	store   storage.Store
	auth    Authenticator
	token   string
	profile *api.User
}

// New restores a persisted session. Authentication requires both the token
// and the profile to be present and parseable; anything less starts logged
// out.
func New(store storage.Store, auth Authenticator) *Session {
	s := &Session{store: store, auth: auth}

	token, tokenOK, err := store.Get(storage.KeyToken)
	if err != nil || !tokenOK || token == "" {
		return s
	}
	raw, userOK, err := store.Get(storage.KeyUser)
	if err != nil || !userOK {
		return s
	}
	var profile api.User
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return s
	}

	s.token = token
	s.profile = &profile
	auth.SetToken(token)
	return s
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	result, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.establish(result)
}

func (s *Session) Register(ctx context.Context, req api.RegisterRequest) error {
	result, err := s.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return s.establish(result)
}

// Logout clears both stored keys and the in-memory state. Where the client
// navigates afterwards is the caller's concern.
func (s *Session) Logout() error {
	s.token = ""
	s.profile = nil
	s.auth.SetToken("")

	if err := s.store.Delete(storage.KeyToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	if err := s.store.Delete(storage.KeyUser); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// UpdateBalanceMirror replaces only the profile's balance and re-persists
// it. Without a loaded profile this is a no-op: a balance alone must never
// conjure an identity.
func (s *Session) UpdateBalanceMirror(newBalance float64) error {
	if s.profile == nil {
		return nil
	}
	s.profile.Balance = newBalance
	return s.persistProfile()
}

func (s *Session) IsAuthenticated() bool {
	return s.token != "" && s.profile != nil
}

func (s *Session) Token() string {
	return s.token
}

// Profile returns a copy of the current profile, or nil when logged out.
func (s *Session) Profile() *api.User {
	if s.profile == nil {
		return nil
	}
	profile := *s.profile
	return &profile
}

func (s *Session) establish(result *api.AuthResult) error {
	if result.User == nil || result.Token == "" {
		return fmt.Errorf("auth response missing user or token")
	}

	s.token = result.Token
	profile := *result.User
	s.profile = &profile
	s.auth.SetToken(result.Token)

	if err := s.store.Set(storage.KeyToken, result.Token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return s.persistProfile()
}

func (s *Session) persistProfile() error {
	payload, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}
	if err := s.store.Set(storage.KeyUser, string(payload)); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}
