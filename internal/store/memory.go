// Package store holds CredentialStore implementations for the console.
package store

import (
	"context"
	"sync"

	"supply-console/internal/api"
)

// Memory keeps credentials for the life of the process only.
type Memory struct {
	mu    sync.Mutex
	creds *api.Credentials
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(_ context.Context) (*api.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, nil
	}
	c := *m.creds
	return &c, nil
}

func (m *Memory) Save(_ context.Context, c api.Credentials) error {
	m.mu.Lock()
	m.creds = &c
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()
	return nil
}
