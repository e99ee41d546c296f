package store

import (
	"context"
	"sync"
	"time"

	"github.com/davrodpin/scoundrel/internal/game"
)

// Memory keeps sessions in process. Every read and write copies the session
// so callers never share card slices with the store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]game.Session
	history  map[string][]game.HistoryEntry
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]game.Session),
		history:  make(map[string][]game.HistoryEntry),
	}
}

func (m *Memory) Create(_ context.Context, s game.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = newSessionID()
	m.sessions[s.ID] = s.Clone()
	return s.ID, nil
}

func (m *Memory) Load(_ context.Context, id string) (game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return game.Session{}, game.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) Save(_ context.Context, s game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return game.ErrNotFound
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	delete(m.history, id)
	return nil
}

func (m *Memory) AppendHistory(_ context.Context, e game.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[e.SessionID]; !ok {
		return game.ErrNotFound
	}
	e.DrawnCards = e.DrawnCards.Clone()
	m.history[e.SessionID] = append(m.history[e.SessionID], e)
	return nil
}

func (m *Memory) History(_ context.Context, sessionID string) ([]game.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]game.HistoryEntry, len(m.history[sessionID]))
	for i, e := range m.history[sessionID] {
		e.DrawnCards = e.DrawnCards.Clone()
		entries[i] = e
	}
	return entries, nil
}

func (m *Memory) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.LastUpdatedAt.Before(before) {
			delete(m.sessions, id)
			delete(m.history, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
