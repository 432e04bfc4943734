package forecastcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/clearday/internal/domain/forecast"
	"github.com/yanqian/clearday/internal/domain/pollen"
)

// ValkeyStore caches pollen forecasts in Valkey with per-key expiry.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "clearday"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) ([]pollen.DayRecord, bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var days []pollen.DayRecord
	if err := json.Unmarshal([]byte(payload), &days); err != nil {
		return nil, false, fmt.Errorf("decode cached forecast: %w", err)
	}
	return days, true, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, days []pollen.DayRecord, ttl time.Duration) error {
	payload, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

var _ forecast.Cache = (*ValkeyStore)(nil)
