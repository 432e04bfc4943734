package forecastcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/pkg/caldate"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	days := []pollen.DayRecord{{
		Date:   caldate.Date{Year: 2024, Month: time.May, Day: 1},
		Plants: map[pollen.PlantCode]pollen.PlantIndex{"BIRCH": {Value: 4}},
	}}
	require.NoError(t, store.Set(ctx, "pollen:1.00,2.00:5", days, time.Minute))

	days[0].Plants["BIRCH"] = pollen.PlantIndex{Value: 0}
	got, ok, err := store.Get(ctx, "pollen:1.00,2.00:5")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, got[0].Plants["BIRCH"].Value)

	now = now.Add(time.Minute)
	_, ok, err = store.Get(ctx, "pollen:1.00,2.00:5")
	require.NoError(t, err)
	require.False(t, ok)
}
