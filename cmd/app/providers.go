package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/clearday/internal/bootstrap"
	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/auth"
	"github.com/yanqian/clearday/internal/domain/briefing"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/dashboard"
	"github.com/yanqian/clearday/internal/domain/forecast"
	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/internal/infra/archive"
	"github.com/yanqian/clearday/internal/infra/config"
	"github.com/yanqian/clearday/internal/infra/dailylogrepo"
	"github.com/yanqian/clearday/internal/infra/forecastcache"
	"github.com/yanqian/clearday/internal/infra/googlepollen"
	"github.com/yanqian/clearday/internal/infra/notify"
	"github.com/yanqian/clearday/internal/infra/observations"
	"github.com/yanqian/clearday/internal/infra/openweather"
	"github.com/yanqian/clearday/internal/infra/profilerepo"
	"github.com/yanqian/clearday/internal/infra/waqi"
	"github.com/yanqian/clearday/pkg/metrics"
)

func provideLocation(cfg *config.Config) *time.Location {
	return cfg.Location()
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	}
}

func provideForecastConfig(cfg *config.Config) forecast.Config {
	return forecast.Config{CacheTTL: cfg.Cache.ForecastTTL}
}

func provideMetricsProvider(cfg *config.Config, logger *slog.Logger, res *bootstrap.Resources) (*metrics.Provider, error) {
	provider, err := metrics.NewProvider(context.Background(), metrics.Config{
		Exporter: cfg.Metrics.Exporter,
		Endpoint: cfg.Metrics.Endpoint,
		Insecure: cfg.Metrics.Insecure,
		Interval: cfg.Metrics.Interval,
	}, logger)
	if err != nil {
		return nil, err
	}
	res.Add("metrics", provider.Shutdown)
	return provider, nil
}

func provideMetricsRecorder(provider *metrics.Provider) (*metrics.Recorder, error) {
	return metrics.NewRecorder(provider)
}

// providePostgresPool returns nil when postgres is unconfigured or unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger, res *bootstrap.Resources) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Storage.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Storage.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Storage.Postgres.MaxConns
	}
	if cfg.Storage.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Storage.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	res.AddFunc("postgres", pool.Close)
	logger.Info("postgres enabled")
	return pool
}

// provideValkeyClient returns nil when valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger, res *bootstrap.Resources) valkey.Client {
	if !cfg.Storage.Valkey.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory", "error", err)
		client.Close()
		return nil
	}
	res.AddFunc("valkey", client.Close)
	logger.Info("valkey enabled", "addr", cfg.Storage.Valkey.Addr)
	return client
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Storage.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Storage.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Storage.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

// provideDailyLogRepository prefers postgres, then valkey, then memory.
func provideDailyLogRepository(cfg *config.Config, pool *pgxpool.Pool, vk valkey.Client, logger *slog.Logger) dailylog.Repository {
	if pool != nil {
		repo := dailylogrepo.NewPostgresRepository(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("daily log schema setup failed, using memory repository", "error", err)
			return dailylogrepo.NewMemoryRepository()
		}
		return repo
	}
	if vk != nil {
		logger.Info("daily log valkey repository enabled")
		return dailylogrepo.NewValkeyRepository(vk, cfg.Storage.Valkey.Prefix)
	}
	return dailylogrepo.NewMemoryRepository()
}

func provideProfileRepository(pool *pgxpool.Pool, logger *slog.Logger) profile.Repository {
	if pool == nil {
		return profilerepo.NewMemoryRepository()
	}
	repo := profilerepo.NewPostgresRepository(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("profile schema setup failed, using memory repository", "error", err)
		return profilerepo.NewMemoryRepository()
	}
	return repo
}

func provideForecastCache(cfg *config.Config, vk valkey.Client) forecast.Cache {
	if vk != nil {
		return forecastcache.NewValkeyStore(vk, cfg.Storage.Valkey.Prefix)
	}
	return forecastcache.NewMemoryStore()
}

// provideArchive falls back to memory when R2 is unconfigured. A configured but
// broken R2 disables exports rather than silently keeping them in memory.
func provideArchive(cfg *config.Config, logger *slog.Logger) dailylog.Archive {
	r2 := cfg.Archive.R2
	if !r2.Enabled() {
		logger.Info("r2 archive not configured, month exports use memory archive")
		return archive.NewMemoryArchive()
	}
	a, err := archive.NewR2Archive(r2.Endpoint, r2.AccessKey, r2.SecretKey, r2.Bucket, r2.Region, logger)
	if err != nil {
		logger.Error("failed to initialize r2 archive, month exports disabled", "error", err)
		return nil
	}
	return a
}

func provideOpenWeatherClient(cfg *config.Config) *openweather.Client {
	return openweather.NewClient(cfg.Sources.OpenWeather.BaseURL, cfg.Sources.OpenWeather.APIKey, cfg.Sources.Timeout)
}

func providePollenClient(cfg *config.Config, logger *slog.Logger) *googlepollen.Client {
	p := cfg.Sources.Pollen
	return googlepollen.NewClient(p.BaseURL, p.APIKey, p.LanguageCode, cfg.Sources.Timeout, logger)
}

// provideAirQualitySource resolves "auto" to waqi when a token is present.
func provideAirQualitySource(cfg *config.Config, ow *openweather.Client, logger *slog.Logger) airquality.Source {
	provider := strings.ToLower(cfg.Sources.AirQualityProvider)
	if provider == "auto" {
		provider = "openweather"
		if strings.TrimSpace(cfg.Sources.WAQI.Token) != "" {
			provider = "waqi"
		}
	}
	if provider == "waqi" {
		logger.Info("air quality source selected", "provider", waqi.Name)
		return waqi.NewClient(cfg.Sources.WAQI.BaseURL, cfg.Sources.WAQI.Token, cfg.Sources.Timeout)
	}
	logger.Info("air quality source selected", "provider", openweather.Name)
	return ow
}

func provideFeeds(ow *openweather.Client, aq airquality.Source, pollenClient *googlepollen.Client) dashboard.Feeds {
	return dashboard.Feeds{Weather: ow, AirQuality: aq, Pollen: pollenClient}
}

func providePollenSource(client *googlepollen.Client) pollen.Source {
	return client
}

func provideNotifier(cfg *config.Config, logger *slog.Logger, res *bootstrap.Resources) briefing.Notifier {
	m := cfg.Briefing.MQTT
	if strings.TrimSpace(m.Broker) == "" {
		logger.Info("mqtt broker not set, briefings are logged")
		return notify.NewLogNotifier(logger)
	}
	n, err := notify.NewMQTTNotifier(notify.MQTTOptions{
		Broker:      m.Broker,
		ClientID:    m.ClientID,
		Username:    m.Username,
		Password:    m.Password,
		TopicPrefix: m.TopicPrefix,
		QoS:         byte(m.QoS),
	}, logger)
	if err != nil {
		logger.Error("mqtt unavailable, briefings are logged", "error", err)
		return notify.NewLogNotifier(logger)
	}
	res.AddFunc("mqtt", n.Close)
	return n
}

// provideObservationSink returns a nil interface when influx is not configured.
func provideObservationSink(cfg *config.Config, logger *slog.Logger, res *bootstrap.Resources) dashboard.ObservationSink {
	in := cfg.Observations.Influx
	if strings.TrimSpace(in.Addr) == "" {
		return nil
	}
	sink, err := observations.NewInfluxSink(observations.InfluxOptions{
		Addr:        in.Addr,
		Database:    in.Database,
		Measurement: in.Measurement,
		Username:    in.Username,
		Password:    in.Password,
		Timeout:     cfg.Sources.Timeout,
	}, logger)
	if err != nil {
		logger.Error("influx sink disabled", "error", err)
		return nil
	}
	res.Add("influx", func(context.Context) error { return sink.Close() })
	logger.Info("influx observation sink enabled", "addr", in.Addr, "database", in.Database)
	return sink
}
