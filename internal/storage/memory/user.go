package memory

import (
	"context"
	"sync"

	"github.com/planmarket/auth-service/internal/models"
	"github.com/planmarket/auth-service/internal/storage"
)

type UserManager struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by ID
}

func NewUserManager() *UserManager {
	return &UserManager{users: make(map[string]models.User)}
}

func (m *UserManager) CreateUser(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *UserManager) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *UserManager) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &user, nil
}

func (m *UserManager) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.PasswordHash = hash
	m.users[userID] = user
	return nil
}
