package users

import (
	"context"
	"sync"
	"time"

	"github.com/apifoundry/apifoundry/internal/models"
)

// MemoryRepository is a simple in-memory directory used when MongoDB is not
// configured (dev mode) and for unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	bySub map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bySub: make(map[string]*models.User)}
}

func (m *MemoryRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.bySub[u.Sub]; ok {
		u.CreatedAt = existing.CreatedAt
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	cp := *u
	m.bySub[u.Sub] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.bySub[sub]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.bySub {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
