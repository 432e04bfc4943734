package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/clearday/internal/domain/allergen"
	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/profile"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/geo"
)

// Forecast horizon supported by the pollen provider.
const (
	MinDays     = 1
	MaxDays     = 5
	DefaultDays = 5
)

// Cache keeps provider responses keyed by rounded location and horizon.
type Cache interface {
	Get(ctx context.Context, key string) ([]pollen.DayRecord, bool, error)
	Set(ctx context.Context, key string, days []pollen.DayRecord, ttl time.Duration) error
}

// Metrics counts upstream fetches.
type Metrics interface {
	SourceFetched(ctx context.Context, source string, err error)
}

// Day is one forecast day with the user's allergen risk.
type Day struct {
	pollen.DayRecord
	Risk allergen.Risk `json:"risk"`
}

// Service serves personalised pollen forecasts.
type Service interface {
	Forecast(ctx context.Context, userID string, at geo.Point, days int) ([]Day, error)
}

// Config tunes caching.
type Config struct {
	CacheTTL time.Duration
}

type service struct {
	cfg      Config
	source   pollen.Source
	cache    Cache
	profiles profile.Service
	metrics  Metrics
	logger   *slog.Logger
}

// NewService wires the forecast domain. cache and metrics may be nil.
func NewService(cfg Config, source pollen.Source, cache Cache, profiles profile.Service, metrics Metrics, logger *slog.Logger) Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	return &service{
		cfg:      cfg,
		source:   source,
		cache:    cache,
		profiles: profiles,
		metrics:  metrics,
		logger:   logger.With("component", "forecast.service"),
	}
}

func (s *service) Forecast(ctx context.Context, userID string, at geo.Point, days int) ([]Day, error) {
	if err := at.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if days == 0 {
		days = DefaultDays
	}
	if days < MinDays || days > MaxDays {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("days must be between %d and %d", MinDays, MaxDays), nil)
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.load(ctx, at, days)
	if err != nil {
		return nil, err
	}

	tracked := p.Tracked()
	out := make([]Day, 0, len(records))
	for _, rec := range records {
		out = append(out, Day{DayRecord: rec, Risk: allergen.ComputeRisk(tracked, rec)})
	}
	return out, nil
}

func (s *service) load(ctx context.Context, at geo.Point, days int) ([]pollen.DayRecord, error) {
	key := cacheKey(at, days)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("forecast cache read failed", "key", key, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	records, err := s.source.Forecast(ctx, at, days)
	if s.metrics != nil {
		s.metrics.SourceFetched(ctx, "pollen", err)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSourceError, "failed to fetch pollen forecast", err)
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeSourceError, "pollen provider returned invalid data", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, records, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("forecast cache write failed", "key", key, "error", err)
		}
	}
	return records, nil
}

func cacheKey(at geo.Point, days int) string {
	return strings.Join([]string{"pollen", at.Rounded(2).Key(), fmt.Sprint(days)}, ":")
}
