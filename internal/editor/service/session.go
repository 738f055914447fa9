package service

import (
	"errors"
	"sync"
	"time"

	"floorplan/internal/editor"

	"github.com/google/uuid"
)

// ============================================================
// Session Manager
// ============================================================

var ErrSessionNotFound = errors.New("session not found")

// Session - один редактируемый план. Store не потокобезопасен,
// поэтому любой доступ к нему идёт через Do.
type Session struct {
	ID string

	mu       sync.Mutex
	store    *editor.Store
	lastSeen time.Time
}

// Do выполняет fn под замком сессии.
func (s *Session) Do(fn func(*editor.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	newStore func() *editor.Store
}

// NewSessionManager создаёт менеджер; ttl <= 0 отключает истечение сессий.
func NewSessionManager(ttl time.Duration, opts ...editor.Option) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		newStore: func() *editor.Store { return editor.NewStore(opts...) },
	}
}

// WithClock подменяет часы (тесты истечения).
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

func (m *SessionManager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	s := &Session{
		ID:       uuid.NewString(),
		store:    m.newStore(),
		lastSeen: m.now(),
	}
	m.sessions[s.ID] = s
	return s
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = m.now()
	return s, nil
}

func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) sweepLocked() {
	if m.ttl <= 0 {
		return
	}
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
