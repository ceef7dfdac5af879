package services

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arshmeetsingh/lego-collection/internal/models"
	"github.com/arshmeetsingh/lego-collection/internal/repository"
)

// memoryUserRepository mimics the Mongo repository: unique userName and
// whole-document replace on save. Stored users are copied in and out.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]models.User

	findErr   error
	createErr error
	saveErr   error

	creates int
	saves   int
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]models.User)}
}

func cloneUser(u models.User) models.User {
	if u.LoginHistory != nil {
		history := make([]models.LoginEvent, len(u.LoginHistory))
		copy(history, u.LoginHistory)
		u.LoginHistory = history
	}
	return u
}

func (m *memoryUserRepository) FindByUsername(_ context.Context, userName string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[userName]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (m *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[user.UserName]; ok {
		return repository.ErrUserExists
	}
	user.ID = primitive.NewObjectID()
	m.users[user.UserName] = cloneUser(*user)
	return nil
}

func (m *memoryUserRepository) Save(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if user.ID.IsZero() {
		return errors.New("user has no id")
	}
	existing, ok := m.users[user.UserName]
	if !ok || existing.ID != user.ID {
		return repository.ErrUserNotFound
	}
	m.users[user.UserName] = cloneUser(*user)
	return nil
}

func (m *memoryUserRepository) stored(userName string) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userName]
	return cloneUser(u), ok
}

// put seeds an account directly.
func (m *memoryUserRepository) put(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.UserName] = cloneUser(u)
}
