/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"sync"
)

// Store persists one State per session between render cycles. Loading a
// session that was never saved yields New().
type Store interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, s State) error

	// Clear drops the session back to defaults.
	Clear(ctx context.Context, sessionID string) error

	// ClearKeepingSetting drops the session but reinstates one named setting.
	ClearKeepingSetting(ctx context.Context, sessionID, name string, value int) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]State),
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return New(), nil
	}

	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, s State) error {
	s = s.Clone()
	s.normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionID] = s

	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)

	return nil
}

func (m *MemoryStore) ClearKeepingSetting(_ context.Context, sessionID, name string, value int) error {
	s := New()
	if err := s.applySetting(name, value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionID] = s

	return nil
}
