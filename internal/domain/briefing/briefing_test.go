package briefing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/allergen"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/internal/domain/weather"
	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
)

var day = caldate.Date{Year: 2024, Month: time.January, Day: 9}

func TestComposeFullRecord(t *testing.T) {
	coldest := 3.7
	rec := dailylog.Record{
		Date:       day,
		Weather:    &weather.Snapshot{TemperatureC: 8, ColdestDaytimeC: &coldest},
		AirQuality: &airquality.Record{Score: 42, Scale: airquality.ScaleEPA},
	}
	risk := allergen.Risk{Defined: true, Score: 4, IsHighRisk: true, HighRiskPlants: []pollen.PlantCode{"BIRCH"}}

	lines := Compose(rec, risk)
	require.Equal(t, "Coldest today: 3°C", lines[0])
	require.Equal(t, "Air Quality: 42 (Good)", lines[1])
	require.Contains(t, lines[2], "Birch")
}

func TestComposeFallbacks(t *testing.T) {
	lines := Compose(dailylog.Record{Date: day}, allergen.Risk{})
	require.Equal(t, []string{
		"Coldest today: Unknown",
		"Air Quality: Unknown",
		"Pollen: Check app for details",
	}, lines)

	lines = Compose(dailylog.Record{Weather: &weather.Snapshot{TemperatureC: 12.9}}, allergen.Risk{})
	require.Equal(t, "Coldest today: 12°C", lines[0])

	station := dailylog.Record{AirQuality: &airquality.Record{Score: 4, Scale: airquality.ScaleStation}}
	require.Equal(t, "Air Quality: 4 (Poor)", Compose(station, allergen.Risk{})[1])
}

func TestSendDeliversMessage(t *testing.T) {
	rec := dailylog.Record{
		Date:   day,
		Pollen: &pollen.DayRecord{Plants: map[pollen.PlantCode]pollen.PlantIndex{"HAZEL": {Value: 5}}},
	}
	notifier := &stubNotifier{}
	svc := newTestService(stubLogs{rec: &rec}, notifier)

	msg, err := svc.Send(context.Background(), "u1", day)
	require.NoError(t, err)
	require.Equal(t, "fixed", msg.ID)
	require.Equal(t, Title, msg.Title)
	require.Contains(t, msg.Lines[2], "Hazel")
	require.Equal(t, msg, notifier.sent[0])
}

func TestSendWithoutRecord(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newTestService(stubLogs{}, notifier)

	msg, err := svc.Send(context.Background(), "u1", day)
	require.NoError(t, err)
	require.Equal(t, "Air Quality: Unknown", msg.Lines[1])
}

func TestSendNotifierFailure(t *testing.T) {
	svc := newTestService(stubLogs{}, &stubNotifier{err: errors.New("broker down")})
	_, err := svc.Send(context.Background(), "u1", day)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotifyError))

	_, err = svc.Send(context.Background(), "u1", caldate.Date{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func newTestService(logs dailylog.Service, notifier Notifier) Service {
	return &service{
		logs:     logs,
		profiles: stubProfiles{tracked: []pollen.PlantCode{"HAZEL"}},
		notifier: notifier,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return time.Date(2024, 1, 9, 7, 0, 0, 0, time.UTC) },
		newID:    func() string { return "fixed" },
	}
}

type stubNotifier struct {
	sent []Message
	err  error
}

func (n *stubNotifier) Notify(_ context.Context, msg Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

type stubLogs struct {
	rec *dailylog.Record
}

func (s stubLogs) Apply(context.Context, string, dailylog.Update) (dailylog.Record, error) {
	return dailylog.Record{}, nil
}

func (s stubLogs) Get(context.Context, string, caldate.Date) (dailylog.Record, error) {
	if s.rec == nil {
		return dailylog.Record{}, apperrors.Wrap(apperrors.CodeNotFound, "none", nil)
	}
	return *s.rec, nil
}

func (s stubLogs) Month(context.Context, string, caldate.YearMonth) (map[caldate.Date]dailylog.Record, error) {
	return nil, nil
}

func (s stubLogs) ExportMonth(context.Context, string, caldate.YearMonth) (dailylog.StoredObject, error) {
	return dailylog.StoredObject{}, nil
}

func (s stubLogs) OpenExport(context.Context, string, string) (dailylog.MonthExport, error) {
	return dailylog.MonthExport{}, nil
}

type stubProfiles struct {
	tracked []pollen.PlantCode
}

func (s stubProfiles) Get(_ context.Context, userID string) (profile.Profile, error) {
	p := profile.Default(userID)
	p.TrackedAllergens = s.tracked
	return p, nil
}

func (s stubProfiles) UpdateAllergens(context.Context, string, []string) (profile.Profile, error) {
	return profile.Profile{}, nil
}

func (s stubProfiles) UpdateBriefingTime(context.Context, string, profile.BriefingTime) (profile.Profile, error) {
	return profile.Profile{}, nil
}
