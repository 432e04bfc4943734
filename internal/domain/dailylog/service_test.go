package dailylog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/weather"
	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
)

func TestServiceApplyCreatesAndMerges(t *testing.T) {
	repo := newStubRepo()
	obs := &stubObserver{}
	svc := newTestService(repo, nil, obs)

	rec, err := svc.Apply(context.Background(), "u1", symptomUpdate(2, nil))
	require.NoError(t, err)
	require.NotNil(t, rec.Symptoms)

	rec, err = svc.Apply(context.Background(), "u1", airUpdate(61))
	require.NoError(t, err)
	require.NotNil(t, rec.Symptoms)
	require.Equal(t, 61, rec.AirQuality.Score)

	stored, err := svc.Get(context.Background(), "u1", day)
	require.NoError(t, err)
	require.Equal(t, rec, stored)
	require.Equal(t, []string{"symptoms", "air_quality"}, obs.fields)
}

func TestServiceApplyRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newStubRepo(), nil, nil)

	_, err := svc.Apply(context.Background(), " ", airUpdate(10))
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.Apply(context.Background(), "u1", Update{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestServiceApplyStorageFailure(t *testing.T) {
	repo := newStubRepo()
	repo.storeErr = errors.New("disk full")
	svc := newTestService(repo, nil, nil)

	_, err := svc.Apply(context.Background(), "u1", airUpdate(10))
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorageError))
}

func TestServiceConcurrentDifferentFieldsKeepBoth(t *testing.T) {
	repo := newStubRepo()
	repo.delay = time.Millisecond
	svc := newTestService(repo, nil, nil)

	updates := []Update{airUpdate(44), pollenUpdate(), symptomUpdate(3, nil), WeatherUpdate(day, weather.Snapshot{TemperatureC: 7})}
	for round := 0; round < 5; round++ {
		var wg sync.WaitGroup
		errs := make(chan error, len(updates))
		for _, u := range updates {
			wg.Add(1)
			go func(u Update) {
				defer wg.Done()
				_, err := svc.Apply(context.Background(), "u1", u)
				errs <- err
			}(u)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	}

	rec, err := svc.Get(context.Background(), "u1", day)
	require.NoError(t, err)
	require.Len(t, rec.Fields(), 4)
	require.Equal(t, 0, svc.(*service).locks.size())
}

func TestServiceReplicasSharingStoreKeepBothFields(t *testing.T) {
	repo := newStubRepo()
	repo.delay = 5 * time.Millisecond
	// separate services have separate in-process locks, like two processes
	first := newTestService(repo, nil, nil)
	second := newTestService(repo, nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := first.Apply(context.Background(), "u1", airUpdate(57))
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := second.Apply(context.Background(), "u1", WeatherUpdate(day, weather.Snapshot{TemperatureC: 12}))
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := first.Get(context.Background(), "u1", day)
	require.NoError(t, err)
	require.ElementsMatch(t, []Field{FieldAirQuality, FieldWeather}, rec.Fields())
	require.Equal(t, 57, rec.AirQuality.Score)
	require.Equal(t, 12.0, rec.Weather.TemperatureC)
}

func TestRecordCopyField(t *testing.T) {
	src := Merge(nil, airUpdate(80))
	dst := Merge(nil, symptomUpdate(2, nil))

	dst.CopyField(src, FieldAirQuality)
	require.Equal(t, 80, dst.AirQuality.Score)
	require.NotNil(t, dst.Symptoms)
	require.NotSame(t, src.AirQuality, dst.AirQuality)

	dst.CopyField(Record{Date: day}, FieldSymptoms)
	require.Nil(t, dst.Symptoms)
	require.Equal(t, "airQuality", FieldAirQuality.DocumentKey())
	require.Nil(t, dst.FieldValue(FieldPollen))
}

func TestServiceGetNotFound(t *testing.T) {
	svc := newTestService(newStubRepo(), nil, nil)
	_, err := svc.Get(context.Background(), "u1", day)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestServiceMonthDropsForeignDays(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, nil, nil)
	_, err := svc.Apply(context.Background(), "u1", airUpdate(10))
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), "u1", AirQualityUpdate(caldate.Date{Year: 2024, Month: time.June, Day: 1}, airUpdate(10).airQuality))
	require.NoError(t, err)

	records, err := svc.Month(context.Background(), "u1", day.YearMonth())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Contains(t, records, day)
}

func TestServiceExportMonth(t *testing.T) {
	repo := newStubRepo()
	archive := &stubArchive{}
	svc := newTestService(repo, archive, nil)
	_, err := svc.Apply(context.Background(), "u1", symptomUpdate(4, map[string]int{"Coughing": 2}))
	require.NoError(t, err)

	obj, err := svc.ExportMonth(context.Background(), "u1", day.YearMonth())
	require.NoError(t, err)
	require.Equal(t, "exports/u1/2024-05/fixed-id.json", obj.Key)

	var doc MonthExport
	require.NoError(t, json.Unmarshal(archive.data, &doc))
	require.Equal(t, "u1", doc.UserID)
	require.Equal(t, day.YearMonth(), doc.Month)
	require.Len(t, doc.Records, 1)
	require.Equal(t, 4, doc.Records[0].Symptoms.GeneralSeverity)
}

func TestServiceOpenExport(t *testing.T) {
	archive := &stubArchive{}
	svc := newTestService(newStubRepo(), archive, nil)
	_, err := svc.Apply(context.Background(), "u1", symptomUpdate(1, nil))
	require.NoError(t, err)
	obj, err := svc.ExportMonth(context.Background(), "u1", day.YearMonth())
	require.NoError(t, err)

	doc, err := svc.OpenExport(context.Background(), "u1", obj.Key)
	require.NoError(t, err)
	require.Len(t, doc.Records, 1)

	_, err = svc.OpenExport(context.Background(), "u2", obj.Key)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.OpenExport(context.Background(), "u1", "exports/u1/2024-05/missing.json")
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorageError))
}

func TestServiceExportWithoutArchive(t *testing.T) {
	svc := newTestService(newStubRepo(), nil, nil)
	_, err := svc.ExportMonth(context.Background(), "u1", day.YearMonth())
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorageError))
}

func TestSortedRecords(t *testing.T) {
	d2 := day.AddDays(1)
	out := SortedRecords(map[caldate.Date]Record{d2: {Date: d2}, day: {Date: day}})
	require.Equal(t, day, out[0].Date)
	require.Equal(t, d2, out[1].Date)
}

func newTestService(repo Repository, archive Archive, obs MergeObserver) Service {
	return &service{
		repo:     repo,
		archive:  archive,
		observer: obs,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:    newKeyedMutex(),
		now:      func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
		newID:    func() string { return "fixed-id" },
	}
}

type stubRepo struct {
	mu       sync.Mutex
	records  map[string]map[caldate.Date]Record
	storeErr error
	delay    time.Duration
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: make(map[string]map[caldate.Date]Record)}
}

func (r *stubRepo) Load(_ context.Context, userID string, date caldate.Date) (Record, bool, error) {
	r.mu.Lock()
	rec, ok := r.records[userID][date]
	r.mu.Unlock()
	// widen the read-modify-write window so unsynchronised callers would lose updates
	time.Sleep(r.delay)
	if !ok {
		return Record{}, false, nil
	}
	return rec.Clone(), true, nil
}

func (r *stubRepo) StoreField(_ context.Context, userID string, rec Record, field Field) (Record, error) {
	if r.storeErr != nil {
		return Record{}, r.storeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records[userID] == nil {
		r.records[userID] = make(map[caldate.Date]Record)
	}
	current, ok := r.records[userID][rec.Date]
	if !ok {
		current = Record{Date: rec.Date}
	}
	current.CopyField(rec, field)
	r.records[userID][rec.Date] = current
	return current.Clone(), nil
}

func (r *stubRepo) LoadMonth(_ context.Context, userID string, _ caldate.YearMonth) (map[caldate.Date]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[caldate.Date]Record)
	for d, rec := range r.records[userID] {
		out[d] = rec.Clone()
	}
	return out, nil
}

type stubArchive struct {
	key  string
	data []byte
}

func (a *stubArchive) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	a.key = key
	a.data = data
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType}, nil
}

func (a *stubArchive) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if key != a.key {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(a.data)), nil
}

type stubObserver struct {
	mu     sync.Mutex
	fields []string
}

func (o *stubObserver) RecordMerged(_ context.Context, field string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields = append(o.fields, field)
}
