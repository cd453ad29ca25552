package repository

import (
	"context"
	"sync"

	"github.com/spotlight/userprofile/internal/model"
)

// MemoryStore keeps profiles in process memory. It is used when no database
// is configured and as the substitute store in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[model.UserID]*model.Profile
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[model.UserID]*model.Profile)}
}

// GetProfile returns a copy of the stored profile.
func (m *MemoryStore) GetProfile(_ context.Context, id model.UserID) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return profile.Clone(), nil
}

// PutProfile stores a copy of the profile, replacing any previous document.
func (m *MemoryStore) PutProfile(_ context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := profile.Clone()
	if existing, ok := m.profiles[profile.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	m.profiles[profile.ID] = stored
	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored profiles.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}
