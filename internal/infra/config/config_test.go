package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
auth:
  secret: from-file
timezone: Europe/Berlin
cache:
  forecastTtl: 10m
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("AUTH_SECRET", "from-env")
	t.Setenv("VALKEY_ENABLED", "true")
	t.Setenv("VALKEY_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "from-env", cfg.Auth.Secret)
	require.Equal(t, 10*time.Minute, cfg.Cache.ForecastTTL)
	require.True(t, cfg.Storage.Valkey.Enabled)
	require.Equal(t, "Europe/Berlin", cfg.Location().String())
	require.Equal(t, "auto", cfg.Sources.AirQualityProvider)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone = "UTC"

[auth]
secret = "toml-secret"
tokenTtl = "2h"

[sources]
airQualityProvider = "openweather"

[briefing.mqtt]
broker = "tcp://localhost:1883"
qos = 1
`), 0o600))

	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "toml-secret", cfg.Auth.Secret)
	require.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "openweather", cfg.Sources.AirQualityProvider)
	require.Equal(t, "tcp://localhost:1883", cfg.Briefing.MQTT.Broker)
	require.Equal(t, 1, cfg.Briefing.MQTT.QoS)
	require.Equal(t, ":8080", cfg.HTTP.Address)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Auth.Secret = "s"
		return cfg
	}
	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Auth.Secret = " "
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Sources.AirQualityProvider = "waqi"
	require.Error(t, cfg.Validate())
	cfg.Sources.WAQI.Token = "tok"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Timezone = "Mars/Olympus"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Metrics.Exporter = "prometheus"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Briefing.MQTT.QoS = 3
	require.Error(t, cfg.Validate())
}
