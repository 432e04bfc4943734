package dailylogrepo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/symptoms"
	"github.com/yanqian/clearday/pkg/caldate"
)

func TestMemoryRepository(t *testing.T) {
	runRepositorySuite(t, func(t *testing.T) (dailylog.Repository, string) {
		return NewMemoryRepository(), "u1"
	})
}

func TestMemoryRepositoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	day := caldate.Date{Year: 2024, Month: time.June, Day: 3}

	entry, err := symptoms.NewEntry(day, 2, map[string]int{"sneezing": 3})
	require.NoError(t, err)
	rec := dailylog.Record{Date: day, Symptoms: &entry}
	stored, err := repo.StoreField(ctx, "u1", rec, dailylog.FieldSymptoms)
	require.NoError(t, err)

	rec.Symptoms.PerSymptom["sneezing"] = 5
	stored.Symptoms.PerSymptom["sneezing"] = 4

	got, found, err := repo.Load(ctx, "u1", day)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 3, got.Symptoms.PerSymptom["sneezing"])

	_, found, err = repo.Load(ctx, "u2", day)
	require.NoError(t, err)
	require.False(t, found)
}

func TestDecodeRecordUsesFieldDate(t *testing.T) {
	day := caldate.Date{Year: 2024, Month: time.June, Day: 3}
	aq, err := airquality.NewRecord(42, airquality.ScaleEPA, nil, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	payload, err := json.Marshal(dailylog.Record{Date: day, AirQuality: &aq})
	require.NoError(t, err)

	rec, err := decodeRecord(day, string(payload))
	require.NoError(t, err)
	require.Equal(t, day, rec.Date)
	require.Equal(t, 42, rec.AirQuality.Score)

	_, err = decodeRecord(day, "{")
	require.Error(t, err)
}

func TestEncodeField(t *testing.T) {
	day := caldate.Date{Year: 2024, Month: time.June, Day: 3}
	aq, err := airquality.NewRecord(42, airquality.ScaleEPA, nil, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	key, value, err := encodeField(dailylog.Record{Date: day, AirQuality: &aq}, dailylog.FieldAirQuality)
	require.NoError(t, err)
	require.Equal(t, "airQuality", key)
	require.Contains(t, string(value), `"score":42`)

	key, value, err = encodeField(dailylog.Record{Date: day}, dailylog.FieldWeather)
	require.NoError(t, err)
	require.Equal(t, "weather", key)
	require.Equal(t, "null", string(value))

	_, _, err = encodeField(dailylog.Record{Date: day}, dailylog.Field("mood"))
	require.Error(t, err)
}

func TestDayFieldNames(t *testing.T) {
	day := caldate.Date{Year: 2024, Month: time.June, Day: 3}
	require.Equal(t, []string{
		"2024-06-03/airQuality", "2024-06-03/pollen", "2024-06-03/symptoms", "2024-06-03/weather",
	}, dayFields(day))

	date, key, err := splitDayField("2024-06-03/weather")
	require.NoError(t, err)
	require.Equal(t, day, date)
	require.Equal(t, "weather", key)

	_, _, err = splitDayField("2024-06-03")
	require.Error(t, err)
	_, _, err = splitDayField("june/weather")
	require.Error(t, err)
}

func TestDecodeDocumentMergesFields(t *testing.T) {
	day := caldate.Date{Year: 2024, Month: time.June, Day: 3}
	rec, err := decodeDocument(day, map[string]json.RawMessage{
		"airQuality": json.RawMessage(`{"score":3,"scale":"station_5","observedAt":"2024-06-03T09:00:00Z"}`),
		"weather":    json.RawMessage(`{"temperatureC":18.5}`),
		"pollen":     json.RawMessage(`null`),
	})
	require.NoError(t, err)
	require.Equal(t, day, rec.Date)
	require.Equal(t, 3, rec.AirQuality.Score)
	require.Equal(t, 18.5, rec.Weather.TemperatureC)
	require.Nil(t, rec.Pollen)
}
