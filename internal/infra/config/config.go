package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/naoina/toml"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Auth         AuthConfig         `yaml:"auth"`
	Timezone     string             `yaml:"timezone"`
	Sources      SourcesConfig      `yaml:"sources"`
	Storage      StorageConfig      `yaml:"storage"`
	Cache        CacheConfig        `yaml:"cache"`
	Briefing     BriefingConfig     `yaml:"briefing"`
	Archive      ArchiveConfig      `yaml:"archive"`
	Observations ObservationsConfig `yaml:"observations"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig configures bearer token signing and verification.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
	Issuer   string        `yaml:"issuer"`
}

// SourcesConfig lists the upstream weather, air-quality and pollen APIs.
type SourcesConfig struct {
	// AirQualityProvider is "waqi", "openweather" or "auto" (waqi when a token is set).
	AirQualityProvider string            `yaml:"airQualityProvider"`
	Timeout            time.Duration     `yaml:"timeout"`
	OpenWeather        OpenWeatherConfig `yaml:"openWeather"`
	WAQI               WAQIConfig        `yaml:"waqi"`
	Pollen             PollenConfig      `yaml:"pollen"`
}

// OpenWeatherConfig covers the weather and air pollution endpoints.
type OpenWeatherConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// WAQIConfig covers the World Air Quality Index station feed.
type WAQIConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Token   string `yaml:"token"`
}

// PollenConfig covers the Google Pollen forecast API.
type PollenConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	APIKey       string `yaml:"apiKey"`
	LanguageCode string `yaml:"languageCode"`
}

// StorageConfig selects the daily log and profile backends.
type StorageConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig contains connection information for key-value storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// CacheConfig controls upstream response caching.
type CacheConfig struct {
	ForecastTTL time.Duration `yaml:"forecastTtl"`
}

// BriefingConfig configures delivery of morning briefings.
type BriefingConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig points at the broker briefings are published to. An empty broker logs briefings instead.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"clientId"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topicPrefix"`
	QoS         int    `yaml:"qos"`
}

// ArchiveConfig configures where month exports are written.
type ArchiveConfig struct {
	R2 R2Config `yaml:"r2"`
}

// R2Config holds S3-compatible object storage credentials.
type R2Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Enabled reports whether enough settings are present to reach a bucket.
func (c R2Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// ObservationsConfig configures the time-series sink for air-quality readings.
type ObservationsConfig struct {
	Influx InfluxConfig `yaml:"influx"`
}

// InfluxConfig targets an InfluxDB 1.x HTTP endpoint.
type InfluxConfig struct {
	Addr        string `yaml:"addr"`
	Database    string `yaml:"database"`
	Measurement string `yaml:"measurement"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// MetricsConfig selects the OpenTelemetry exporter.
type MetricsConfig struct {
	Exporter string        `yaml:"exporter"`
	Endpoint string        `yaml:"endpoint"`
	Insecure bool          `yaml:"insecure"`
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from a YAML or TOML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = tomlToYAML(data)
		if err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// tomlToYAML re-encodes a TOML document so both formats share the yaml field
// tags and duration parsing.
func tomlToYAML(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setString(&cfg.Auth.Secret, "AUTH_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "AUTH_TOKEN_TTL")
	setString(&cfg.Auth.Issuer, "AUTH_ISSUER")

	setString(&cfg.Timezone, "TIMEZONE")

	setString(&cfg.Sources.AirQualityProvider, "AIR_QUALITY_PROVIDER")
	setDuration(&cfg.Sources.Timeout, "SOURCES_TIMEOUT")
	setString(&cfg.Sources.OpenWeather.BaseURL, "OPENWEATHER_BASE_URL")
	setString(&cfg.Sources.OpenWeather.APIKey, "OPENWEATHER_API_KEY")
	setString(&cfg.Sources.WAQI.BaseURL, "WAQI_BASE_URL")
	setString(&cfg.Sources.WAQI.Token, "WAQI_TOKEN")
	setString(&cfg.Sources.Pollen.BaseURL, "POLLEN_BASE_URL")
	setString(&cfg.Sources.Pollen.APIKey, "POLLEN_API_KEY")

	setString(&cfg.Storage.Postgres.DSN, "POSTGRES_DSN")
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MinConns = int32(parsed)
		}
	}
	setBool(&cfg.Storage.Valkey.Enabled, "VALKEY_ENABLED")
	setString(&cfg.Storage.Valkey.Addr, "VALKEY_ADDR")
	setString(&cfg.Storage.Valkey.Prefix, "VALKEY_PREFIX")

	setDuration(&cfg.Cache.ForecastTTL, "FORECAST_CACHE_TTL")

	setString(&cfg.Briefing.MQTT.Broker, "MQTT_BROKER")
	setString(&cfg.Briefing.MQTT.ClientID, "MQTT_CLIENT_ID")
	setString(&cfg.Briefing.MQTT.Username, "MQTT_USERNAME")
	setString(&cfg.Briefing.MQTT.Password, "MQTT_PASSWORD")
	setString(&cfg.Briefing.MQTT.TopicPrefix, "MQTT_TOPIC_PREFIX")

	setString(&cfg.Archive.R2.Endpoint, "R2_ENDPOINT")
	setString(&cfg.Archive.R2.AccessKey, "R2_ACCESS_KEY")
	setString(&cfg.Archive.R2.SecretKey, "R2_SECRET_KEY")
	setString(&cfg.Archive.R2.Bucket, "R2_BUCKET")
	setString(&cfg.Archive.R2.Region, "R2_REGION")

	setString(&cfg.Observations.Influx.Addr, "INFLUX_ADDR")
	setString(&cfg.Observations.Influx.Database, "INFLUX_DATABASE")
	setString(&cfg.Observations.Influx.Username, "INFLUX_USERNAME")
	setString(&cfg.Observations.Influx.Password, "INFLUX_PASSWORD")

	setString(&cfg.Metrics.Exporter, "METRICS_EXPORTER")
	setString(&cfg.Metrics.Endpoint, "METRICS_ENDPOINT")
	setBool(&cfg.Metrics.Insecure, "METRICS_INSECURE")
	setDuration(&cfg.Metrics.Interval, "METRICS_INTERVAL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
			},
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			Issuer:   "clearday",
		},
		Timezone: "UTC",
		Sources: SourcesConfig{
			AirQualityProvider: "auto",
			Timeout:            10 * time.Second,
			OpenWeather: OpenWeatherConfig{
				BaseURL: "https://api.openweathermap.org/data/2.5",
			},
			WAQI: WAQIConfig{
				BaseURL: "https://api.waqi.info",
			},
			Pollen: PollenConfig{
				BaseURL:      "https://pollen.googleapis.com/v1",
				LanguageCode: "en",
			},
		},
		Storage: StorageConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
			Valkey: ValkeyConfig{
				Prefix: "clearday",
			},
		},
		Cache: CacheConfig{
			ForecastTTL: 30 * time.Minute,
		},
		Briefing: BriefingConfig{
			MQTT: MQTTConfig{
				ClientID:    "clearday",
				TopicPrefix: "clearday",
			},
		},
		Archive: ArchiveConfig{
			R2: R2Config{
				Region: "auto",
			},
		},
		Observations: ObservationsConfig{
			Influx: InfluxConfig{
				Database:    "clearday",
				Measurement: "air_quality",
			},
		},
		Metrics: MetricsConfig{
			Exporter: "none",
			Interval: time.Minute,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	switch c.Sources.AirQualityProvider {
	case "auto", "waqi", "openweather":
	default:
		return fmt.Errorf("sources.airQualityProvider %q must be auto, waqi or openweather", c.Sources.AirQualityProvider)
	}
	if c.Sources.AirQualityProvider == "waqi" && strings.TrimSpace(c.Sources.WAQI.Token) == "" {
		return errors.New("sources.waqi.token cannot be empty when waqi is the air quality provider")
	}
	if c.Sources.Timeout <= 0 {
		return errors.New("sources.timeout must be positive")
	}
	if c.Cache.ForecastTTL < 0 {
		return errors.New("cache.forecastTtl cannot be negative")
	}
	if c.Storage.Valkey.Enabled && strings.TrimSpace(c.Storage.Valkey.Addr) == "" {
		return errors.New("storage.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Briefing.MQTT.QoS < 0 || c.Briefing.MQTT.QoS > 2 {
		return errors.New("briefing.mqtt.qos must be 0, 1 or 2")
	}
	switch c.Metrics.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("metrics.exporter %q must be none, stdout or otlp", c.Metrics.Exporter)
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
