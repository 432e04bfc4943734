package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/allergen"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/internal/domain/weather"
	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/geo"
	"github.com/yanqian/clearday/pkg/util"
)

// ObservationSink receives every successful air quality fetch.
type ObservationSink interface {
	WriteAirQuality(ctx context.Context, userID string, at geo.Point, rec airquality.Record) error
}

// Metrics records fetch outcomes and observed scores.
type Metrics interface {
	SourceFetched(ctx context.Context, source string, err error)
	AirQualityObserved(ctx context.Context, scale string, score int)
}

// Result is returned by a refresh.
type Result struct {
	Date    caldate.Date    `json:"date"`
	Sources Status          `json:"sources"`
	Record  dailylog.Record `json:"record"`
	Risk    allergen.Risk   `json:"risk"`
}

// Service orchestrates the home screen feeds.
type Service interface {
	Refresh(ctx context.Context, userID string, at geo.Point) (Result, error)
	Status(ctx context.Context, userID string) Status
}

// Feeds bundles the upstream providers.
type Feeds struct {
	Weather    weather.Source
	AirQuality airquality.Source
	Pollen     pollen.Source
}

type service struct {
	feeds    Feeds
	logs     dailylog.Service
	profiles profile.Service
	sink     ObservationSink
	metrics  Metrics
	logger   *slog.Logger
	states   *tracker
	location *time.Location
	now      func() time.Time
}

// NewService wires the dashboard. sink and metrics may be nil; loc is the zone
// that decides what "today" is.
func NewService(feeds Feeds, logs dailylog.Service, profiles profile.Service, sink ObservationSink, metrics Metrics, loc *time.Location, logger *slog.Logger) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		feeds:    feeds,
		logs:     logs,
		profiles: profiles,
		sink:     sink,
		metrics:  metrics,
		logger:   logger.With("component", "dashboard.service"),
		states:   newTracker(time.Now),
		location: loc,
		now:      time.Now,
	}
}

func (s *service) Refresh(ctx context.Context, userID string, at geo.Point) (Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id is required", nil)
	}
	if err := at.Validate(); err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if !s.states.begin(userID) {
		return Result{}, apperrors.Wrap(apperrors.CodeConflict, "refresh already in progress", nil)
	}

	today := util.Today(s.now, s.location)
	// a failing provider only marks its own source; a failing store fails the
	// refresh and cancels the remaining fetches
	g, gctx := errgroup.WithContext(ctx)
	for src, fetch := range map[Source]func(context.Context, string, geo.Point, caldate.Date) error{
		SourceWeather:    s.refreshWeather,
		SourceAirQuality: s.refreshAirQuality,
		SourcePollen:     s.refreshPollen,
	} {
		src, fetch := src, fetch
		g.Go(func() error {
			err := fetch(gctx, userID, at, today)
			s.complete(gctx, userID, src, err)
			if apperrors.IsCode(err, apperrors.CodeStorageError) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Date: today, Sources: s.states.snapshot(userID), Record: dailylog.Record{Date: today}}
	rec, err := s.logs.Get(ctx, userID, today)
	switch {
	case err == nil:
		res.Record = rec
	case !apperrors.IsCode(err, apperrors.CodeNotFound):
		return Result{}, err
	}

	if res.Record.Pollen != nil {
		p, err := s.profiles.Get(ctx, userID)
		if err != nil {
			return Result{}, err
		}
		res.Risk = allergen.ComputeRisk(p.Tracked(), *res.Record.Pollen)
	} else {
		res.Risk = allergen.ComputeRisk(nil, pollen.DayRecord{})
	}
	return res, nil
}

func (s *service) Status(_ context.Context, userID string) Status {
	return s.states.snapshot(strings.TrimSpace(userID))
}

func (s *service) complete(ctx context.Context, userID string, src Source, err error) {
	if s.metrics != nil {
		s.metrics.SourceFetched(ctx, string(src), err)
	}
	if err != nil {
		s.logger.Warn("dashboard source failed", "user", userID, "source", src, "error", err)
	}
	s.states.finish(userID, src, err)
}

func (s *service) refreshWeather(ctx context.Context, userID string, at geo.Point, today caldate.Date) error {
	if s.feeds.Weather == nil {
		return fmt.Errorf("weather source not configured")
	}
	snap, err := s.feeds.Weather.Current(ctx, at)
	if err != nil {
		return err
	}
	points, err := s.feeds.Weather.Forecast(ctx, at)
	if err != nil {
		s.logger.Debug("weather forecast unavailable, using current temperature", "error", err)
	} else if coldest, ok := weather.ColdestDaytime(points, today, s.location); ok {
		snap.ColdestDaytimeC = &coldest
	}
	_, err = s.logs.Apply(ctx, userID, dailylog.WeatherUpdate(today, snap))
	return err
}

func (s *service) refreshAirQuality(ctx context.Context, userID string, at geo.Point, today caldate.Date) error {
	if s.feeds.AirQuality == nil {
		return fmt.Errorf("air quality source not configured")
	}
	rec, err := s.feeds.AirQuality.Fetch(ctx, at)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.AirQualityObserved(ctx, string(rec.Scale), rec.Score)
	}
	if s.sink != nil {
		if err := s.sink.WriteAirQuality(ctx, userID, at, rec); err != nil {
			s.logger.Warn("observation sink write failed", "error", err)
		}
	}
	_, err = s.logs.Apply(ctx, userID, dailylog.AirQualityUpdate(today, rec))
	return err
}

func (s *service) refreshPollen(ctx context.Context, userID string, at geo.Point, today caldate.Date) error {
	if s.feeds.Pollen == nil {
		return fmt.Errorf("pollen source not configured")
	}
	days, err := s.feeds.Pollen.Forecast(ctx, at, 1)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("pollen source returned no days")
	}
	for _, d := range days {
		if d.Date == today {
			_, err = s.logs.Apply(ctx, userID, dailylog.PollenUpdate(today, d))
			return err
		}
	}
	return fmt.Errorf("pollen source has no forecast for %s (first day %s)", today, days[0].Date)
}
