package dailylogrepo

import (
	"context"
	"sync"

	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/pkg/caldate"
)

// MemoryRepository keeps daily logs in process memory for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]map[caldate.Date]dailylog.Record
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]map[caldate.Date]dailylog.Record)}
}

// Load implements dailylog.Repository.
func (r *MemoryRepository) Load(_ context.Context, userID string, date caldate.Date) (dailylog.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID][date]
	if !ok {
		return dailylog.Record{}, false, nil
	}
	return rec.Clone(), true, nil
}

// StoreField implements dailylog.Repository.
func (r *MemoryRepository) StoreField(_ context.Context, userID string, rec dailylog.Record, field dailylog.Field) (dailylog.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	days, ok := r.records[userID]
	if !ok {
		days = make(map[caldate.Date]dailylog.Record)
		r.records[userID] = days
	}
	current, ok := days[rec.Date]
	if !ok {
		current = dailylog.Record{Date: rec.Date}
	}
	current.CopyField(rec, field)
	days[rec.Date] = current
	return current.Clone(), nil
}

// LoadMonth implements dailylog.Repository.
func (r *MemoryRepository) LoadMonth(_ context.Context, userID string, month caldate.YearMonth) (map[caldate.Date]dailylog.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[caldate.Date]dailylog.Record)
	for date, rec := range r.records[userID] {
		if month.Contains(date) {
			out[date] = rec.Clone()
		}
	}
	return out, nil
}

var _ dailylog.Repository = (*MemoryRepository)(nil)
