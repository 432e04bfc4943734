package profilerepo

import (
	"context"
	"sync"

	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/profile"
)

// MemoryRepository provides an in-memory profile store for tests/dev.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]profile.Profile
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]profile.Profile)}
}

// Get returns the stored profile.
func (r *MemoryRepository) Get(_ context.Context, userID string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return profile.Profile{}, false, nil
	}
	return copyProfile(p), true, nil
}

// Save replaces the stored profile.
func (r *MemoryRepository) Save(_ context.Context, p profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = copyProfile(p)
	return nil
}

func copyProfile(p profile.Profile) profile.Profile {
	p.TrackedAllergens = append([]pollen.PlantCode{}, p.TrackedAllergens...)
	return p
}

var _ profile.Repository = (*MemoryRepository)(nil)
