package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the durable client state: the token pair plus the profile
// returned at login.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
	UserID       int64  `json:"userId,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	FullName     string `json:"fullName,omitempty"`
	Role         string `json:"role,omitempty"`
}

// CredentialStore persists Credentials between runs.
// Load returns (nil, nil) when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, c Credentials) error
	Clear(ctx context.Context) error
}

// Session is the process-wide credential state. It is injected into the
// Client instead of being read from globals.
type Session struct {
	mu    sync.RWMutex
	store CredentialStore
	creds Credentials
}

// NewSession returns an empty session backed by store. Call Init to load
// previously saved credentials.
func NewSession(store CredentialStore) *Session {
	return &Session{store: store}
}

// Init loads saved credentials from the store.
func (s *Session) Init(ctx context.Context) error {
	c, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c != nil {
		s.creds = *c
	} else {
		s.creds = Credentials{}
	}
	return nil
}

// Get returns a copy of the current credentials.
func (s *Session) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Authenticated reports whether an access token is held.
func (s *Session) Authenticated() bool {
	return s.Get().AccessToken != ""
}

// Set replaces the credentials and persists them.
func (s *Session) Set(ctx context.Context, c Credentials) error {
	if err := s.store.Save(ctx, c); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
	return nil
}

// SetAccessToken swaps only the access token, keeping the refresh token and profile.
func (s *Session) SetAccessToken(ctx context.Context, token, tokenType string) error {
	c := s.Get()
	c.AccessToken = token
	if tokenType != "" {
		c.TokenType = tokenType
	}
	return s.Set(ctx, c)
}

// Clear forgets the credentials in memory and in the store.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.creds = Credentials{}
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Claims is the subset of the access token payload the console displays.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry is before now. Tokens without an
// expiry never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the access token without verifying its signature; the
// server remains the only party that validates tokens.
func (s *Session) Claims() (*Claims, error) {
	tok := s.Get().AccessToken
	if tok == "" {
		return nil, &AuthError{}
	}
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &rc); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	out := &Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
	}
	return out, nil
}
