package forecastcache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/clearday/internal/domain/forecast"
	"github.com/yanqian/clearday/internal/domain/pollen"
)

type entry struct {
	days      []pollen.DayRecord
	expiresAt time.Time
}

// MemoryStore is an in-memory forecast cache for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

// Get implements forecast.Cache.
func (s *MemoryStore) Get(_ context.Context, key string) ([]pollen.DayRecord, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.hasExpired(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return cloneDays(e.days), true, nil
}

// Set caches days with an optional TTL.
func (s *MemoryStore) Set(_ context.Context, key string, days []pollen.DayRecord, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{days: cloneDays(days), expiresAt: exp}
	return nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !ts.After(s.now())
}

func cloneDays(days []pollen.DayRecord) []pollen.DayRecord {
	out := make([]pollen.DayRecord, len(days))
	for i, d := range days {
		out[i] = d.Clone()
	}
	return out
}

var _ forecast.Cache = (*MemoryStore)(nil)
