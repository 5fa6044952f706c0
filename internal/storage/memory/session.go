package memory

import (
	"context"
	"sync"
	"time"

	"github.com/planmarket/auth-service/internal/models"
	"github.com/planmarket/auth-service/internal/storage"
)

// SessionManager is the in-memory counterpart of the Postgres session
// repository, used in tests and local development. Sessions are keyed by
// token hash, same as the table's unique constraint.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

func (m *SessionManager) CreateSession(_ context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.TokenHash]; exists {
		return storage.ErrDuplicateSession
	}
	m.sessions[session.TokenHash] = session
	return nil
}

func (m *SessionManager) FindValidSession(_ context.Context, refreshToken string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[storage.HashToken(refreshToken)]
	if !ok || !session.IsValid || session.Expired(m.now()) {
		return nil, storage.ErrSessionNotFound
	}
	return &session, nil
}

func (m *SessionManager) InvalidateSession(_ context.Context, refreshToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := storage.HashToken(refreshToken)
	session, ok := m.sessions[hash]
	if !ok || !session.IsValid {
		return false, nil
	}
	session.IsValid = false
	m.sessions[hash] = session
	return true, nil
}

func (m *SessionManager) InvalidateAllForUser(_ context.Context, userID, exceptSessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for hash, session := range m.sessions {
		if session.UserID != userID || !session.IsValid || session.ID == exceptSessionID {
			continue
		}
		session.IsValid = false
		m.sessions[hash] = session
		count++
	}
	return count, nil
}

func (m *SessionManager) SetCSRFToken(_ context.Context, sessionID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for hash, session := range m.sessions {
		if session.ID == sessionID {
			session.CSRFToken = token
			m.sessions[hash] = session
			return nil
		}
	}
	return storage.ErrSessionNotFound
}

func (m *SessionManager) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for hash, session := range m.sessions {
		if !session.ExpiresAt.After(before) {
			delete(m.sessions, hash)
			count++
		}
	}
	return count, nil
}
