package repository

import (
	"context"
	"sync"

	"moveit-auth/internal/domain"
)

// MemoryStore guarda la coleccion en memoria. Util para tests y entornos efimeros.
type MemoryStore struct {
	mu    sync.RWMutex
	users []domain.User
}

func NewMemoryStore(seed ...domain.User) *MemoryStore {
	return &MemoryStore{users: cloneUsers(seed)}
}

func (s *MemoryStore) LoadAll(_ context.Context) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUsers(s.users)
}

func (s *MemoryStore) SaveAll(_ context.Context, users []domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = cloneUsers(users)
	return nil
}
