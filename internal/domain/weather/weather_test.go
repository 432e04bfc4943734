package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/pkg/caldate"
)

func TestColdestDaytime(t *testing.T) {
	day := caldate.Date{Year: 2024, Month: time.March, Day: 5}
	at := func(d, h int) time.Time { return time.Date(2024, time.March, d, h, 0, 0, 0, time.UTC) }
	points := []ForecastPoint{
		{At: at(5, 4), TemperatureC: -3},
		{At: at(5, 7), TemperatureC: 6},
		{At: at(5, 13), TemperatureC: 11},
		{At: at(5, 19), TemperatureC: 4.5},
		{At: at(5, 22), TemperatureC: 1},
		{At: at(6, 10), TemperatureC: 0},
	}

	coldest, ok := ColdestDaytime(points, day, time.UTC)
	require.True(t, ok)
	require.Equal(t, 4.5, coldest)

	_, ok = ColdestDaytime(points[:1], day, nil)
	require.False(t, ok)
}

func TestColdestDaytimeHonoursZone(t *testing.T) {
	sgt := time.FixedZone("SGT", 8*60*60)
	day := caldate.Date{Year: 2024, Month: time.March, Day: 5}
	// 23:00 UTC on the 4th is 07:00 on the 5th in Singapore.
	points := []ForecastPoint{{At: time.Date(2024, time.March, 4, 23, 0, 0, 0, time.UTC), TemperatureC: 24}}

	coldest, ok := ColdestDaytime(points, day, sgt)
	require.True(t, ok)
	require.Equal(t, 24.0, coldest)
}

func TestColdestOrCurrent(t *testing.T) {
	snap := Snapshot{TemperatureC: 12}
	require.Equal(t, 12.0, snap.ColdestOrCurrent())
	v := 8.0
	snap.ColdestDaytimeC = &v
	cp := snap.Clone()
	*cp.ColdestDaytimeC = 1
	require.Equal(t, 8.0, snap.ColdestOrCurrent())
}
