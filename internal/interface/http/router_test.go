package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/auth"
	"github.com/yanqian/clearday/internal/domain/briefing"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/dashboard"
	"github.com/yanqian/clearday/internal/domain/forecast"
	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/internal/infra/archive"
	"github.com/yanqian/clearday/internal/infra/config"
	"github.com/yanqian/clearday/internal/infra/dailylogrepo"
	"github.com/yanqian/clearday/internal/infra/profilerepo"
	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/geo"
)

var fixedNow = time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)

func TestRouter_Health(t *testing.T) {
	env := newRouterUnderTest(t, nil)
	rec := env.do(t, http.MethodGet, "/healthz", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ComputeAQI(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/aqi?pm25=6.0&pm10=27", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var got aqiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 25, got.Score)
	require.Equal(t, "Good", got.Category.Label)
	require.NotEmpty(t, got.Advice)
}

func TestRouter_ComputeAQIRequiresBothParticulates(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/aqi?pm25=6.0", "", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "pm10")
}

func TestRouter_ClassifyAQI(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/aqi/classify?score=4&scale=station_5", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var got aqiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Poor", got.Category.Label)

	rec = env.do(t, http.MethodGet, "/api/v1/aqi/classify?score=501", "", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apperrors.CodeInvalidInput, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/profile", "", false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, apperrors.CodeInvalidToken, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_SymptomsRoundTrip(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/daily-logs/2025-03-14/symptoms",
		`{"generalSeverity":2,"symptoms":{"Sneezing":4}}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/daily-logs/2025-03-14", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var got dailylog.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.Symptoms)
	require.Equal(t, 2, got.Symptoms.GeneralSeverity)
	require.Equal(t, 4, got.Symptoms.PerSymptom["Sneezing"])
	require.Nil(t, got.AirQuality)
}

func TestRouter_SymptomsValidation(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodPut, "/api/v1/daily-logs/2025-03-14/symptoms", `{"symptoms":{}}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = env.do(t, http.MethodPut, "/api/v1/daily-logs/2025-03-14/symptoms", `{"generalSeverity":9}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apperrors.CodeInvalidInput, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = env.do(t, http.MethodPut, "/api/v1/daily-logs/14-03-2025/symptoms", `{"generalSeverity":1}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_DailyLogNotFound(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/daily-logs/2025-01-01", "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, apperrors.CodeNotFound, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_CalendarMonth(t *testing.T) {
	env := newRouterUnderTest(t, nil)
	rec := env.do(t, http.MethodPut, "/api/v1/daily-logs/2025-02-03/symptoms", `{"generalSeverity":5}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/calendar/2025-02", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Month string                       `json:"month"`
		Cells map[string]map[string]string `json:"cells"`
		Grid  [][]json.RawMessage          `json:"grid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "2025-02", got.Month)
	require.Len(t, got.Cells, 28)
	require.Equal(t, "#F44336", got.Cells["2025-02-03"]["fill"])
	require.Equal(t, "#E0E0E0", got.Cells["2025-02-04"]["fill"])
	require.Len(t, got.Grid, 5)
	for _, week := range got.Grid {
		require.Len(t, week, 7)
	}
}

func TestRouter_ExportAndOpen(t *testing.T) {
	env := newRouterUnderTest(t, nil)
	rec := env.do(t, http.MethodPut, "/api/v1/daily-logs/2025-02-03/symptoms", `{"generalSeverity":1}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/calendar/2025-02/export", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	key, _ := created["key"].(string)
	require.Contains(t, key, "exports/u1/2025-02/")

	rec = env.do(t, http.MethodGet, "/api/v1/exports?key="+key, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc dailylog.MonthExport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, "u1", doc.UserID)
	require.Len(t, doc.Records, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/exports?key=exports/u2/2025-02/x.json", "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ProfileUpdates(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/profile", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var p profile.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Empty(t, p.TrackedAllergens)
	require.Equal(t, profile.DefaultBriefingHour, p.BriefingTime.Hour)

	rec = env.do(t, http.MethodPut, "/api/v1/profile", `{"trackedAllergens":["birch","GRASS","birch"]}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Len(t, p.TrackedAllergens, 2)

	rec = env.do(t, http.MethodPut, "/api/v1/profile", `{"trackedAllergens":["PALM"]}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/profile/briefing-time", `{"hour":6,"minute":45}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Equal(t, profile.BriefingTime{Hour: 6, Minute: 45}, p.BriefingTime)

	rec = env.do(t, http.MethodPut, "/api/v1/profile/briefing-time", `{"hour":24,"minute":0}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RiskWithoutPollenIsUndefined(t *testing.T) {
	env := newRouterUnderTest(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/risk/2025-03-14", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Risk struct {
			Defined bool `json:"defined"`
		} `json:"risk"`
		Alert string `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.False(t, got.Risk.Defined)
	require.Empty(t, got.Alert)
}

func TestRouter_DashboardRefreshConflict(t *testing.T) {
	dash := &stubDashboard{
		refreshFn: func(context.Context, string, geo.Point) (dashboard.Result, error) {
			return dashboard.Result{}, apperrors.Wrap(apperrors.CodeConflict, "refresh already in progress", nil)
		},
	}
	env := newRouterUnderTest(t, &stubs{dashboard: dash})

	rec := env.do(t, http.MethodPost, "/api/v1/dashboard/refresh", `{"lat":1.3,"lon":103.8}`, true)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "u1", dash.lastUser)

	rec = env.do(t, http.MethodPost, "/api/v1/dashboard/refresh", `{"lat":1.3}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_SourceErrorHidesUpstreamDetail(t *testing.T) {
	fc := &stubForecast{
		forecastFn: func(context.Context, string, geo.Point, int) ([]forecast.Day, error) {
			return nil, apperrors.Wrap(apperrors.CodeSourceError, "failed to fetch pollen forecast", errors.New("key=secret status=403"))
		},
	}
	env := newRouterUnderTest(t, &stubs{forecast: fc})

	rec := env.do(t, http.MethodGet, "/api/v1/pollen/forecast?lat=1&lon=2&days=3", "", true)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, apperrors.CodeSourceError, errBody["error"]["code"])
	require.NotContains(t, errBody["error"]["message"], "secret")
	require.Equal(t, 3, fc.lastDays)
}

func TestRouter_RetriesUpstreamFailureOnGet(t *testing.T) {
	fc := &stubForecast{}
	fc.forecastFn = func(context.Context, string, geo.Point, int) ([]forecast.Day, error) {
		if fc.calls == 1 {
			return nil, apperrors.Wrap(apperrors.CodeSourceError, "failed to fetch pollen forecast", nil)
		}
		return []forecast.Day{}, nil
	}
	env := newRouterUnderTest(t, &stubs{forecast: fc}, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3}
	})

	rec := env.do(t, http.MethodGet, "/api/v1/pollen/forecast?lat=1&lon=2", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, fc.calls)
}

func TestRouter_BriefingDefaultsToLocalToday(t *testing.T) {
	br := &stubBriefing{}
	env := newRouterUnderTest(t, &stubs{briefing: br}, func(cfg *config.Config) {
		cfg.Timezone = "Asia/Singapore"
	})

	rec := env.do(t, http.MethodPost, "/api/v1/briefings", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	// 23:30 UTC is already the next morning in Singapore
	require.Equal(t, "2025-03-15", br.lastDate.String())

	rec = env.do(t, http.MethodPost, "/api/v1/briefings", `{"date":"2025-03-01"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2025-03-01", br.lastDate.String())

	br.err = apperrors.Wrap(apperrors.CodeNotifyError, "failed to deliver briefing", errors.New("broker down"))
	rec = env.do(t, http.MethodPost, "/api/v1/briefings", "", true)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	env := newRouterUnderTest(t, nil, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "", false).Code)
	rec := env.do(t, http.MethodGet, "/healthz", "", false)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newRouterUnderTest(t, nil, func(cfg *config.Config) {
		cfg.HTTP.AllowedOrigins = []string{"https://app.clearday.example"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	req.Header.Set("Origin", "https://app.clearday.example")
	rec := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.clearday.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

type routerEnv struct {
	server *http.Server
	token  string
}

func (e *routerEnv) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

type stubs struct {
	dashboard *stubDashboard
	forecast  *stubForecast
	briefing  *stubBriefing
}

func newRouterUnderTest(t *testing.T, s *stubs, mutate ...func(*config.Config)) *routerEnv {
	t.Helper()
	if s == nil {
		s = &stubs{}
	}
	if s.dashboard == nil {
		s.dashboard = &stubDashboard{}
	}
	if s.forecast == nil {
		s.forecast = &stubForecast{}
	}
	if s.briefing == nil {
		s.briefing = &stubBriefing{}
	}

	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Timezone: "UTC",
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	logger := newTestLogger()
	authSvc := auth.NewService(auth.Config{Secret: "test-secret", TokenTTL: time.Hour, Issuer: "clearday"}, logger)
	token, err := authSvc.IssueToken(context.Background(), "u1")
	require.NoError(t, err)

	logs := dailylog.NewService(dailylogrepo.NewMemoryRepository(), archive.NewMemoryArchive(), nil, logger)
	handler := NewHandler(Services{
		Dashboard: s.dashboard,
		Logs:      logs,
		Profiles:  profile.NewService(profilerepo.NewMemoryRepository(), logger),
		Forecast:  s.forecast,
		Briefings: s.briefing,
	}, cfg.Location(), logger)
	handler.now = func() time.Time { return fixedNow }

	return &routerEnv{server: NewRouter(cfg, handler, authSvc, logger), token: token}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubDashboard struct {
	refreshFn func(ctx context.Context, userID string, at geo.Point) (dashboard.Result, error)
	lastUser  string
}

func (s *stubDashboard) Refresh(ctx context.Context, userID string, at geo.Point) (dashboard.Result, error) {
	s.lastUser = userID
	if s.refreshFn != nil {
		return s.refreshFn(ctx, userID, at)
	}
	return dashboard.Result{}, nil
}

func (s *stubDashboard) Status(context.Context, string) dashboard.Status {
	return dashboard.Status{}
}

type stubForecast struct {
	forecastFn func(ctx context.Context, userID string, at geo.Point, days int) ([]forecast.Day, error)
	calls      int
	lastDays   int
}

func (s *stubForecast) Forecast(ctx context.Context, userID string, at geo.Point, days int) ([]forecast.Day, error) {
	s.calls++
	s.lastDays = days
	if s.forecastFn != nil {
		return s.forecastFn(ctx, userID, at, days)
	}
	return []forecast.Day{}, nil
}

type stubBriefing struct {
	lastDate caldate.Date
	err      error
}

func (s *stubBriefing) Send(_ context.Context, userID string, date caldate.Date) (briefing.Message, error) {
	s.lastDate = date
	if s.err != nil {
		return briefing.Message{}, s.err
	}
	return briefing.Message{UserID: userID, Date: date, Title: briefing.Title}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
