package observations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/influxdata/influxdb1-client" // pulls the root module so go mod resolves v2 correctly
	influxclient "github.com/influxdata/influxdb1-client/v2"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/dashboard"
	"github.com/yanqian/clearday/pkg/geo"
)

// InfluxOptions targets an InfluxDB 1.x database.
type InfluxOptions struct {
	Addr        string
	Database    string
	Measurement string
	Username    string
	Password    string
	Timeout     time.Duration
}

// InfluxSink writes one point per air quality observation.
type InfluxSink struct {
	client      influxclient.Client
	database    string
	measurement string
	logger      *slog.Logger
	now         func() time.Time
}

// NewInfluxSink builds the HTTP client. No connection is made until the first write.
func NewInfluxSink(opts InfluxOptions, logger *slog.Logger) (*InfluxSink, error) {
	httpConfig := influxclient.HTTPConfig{
		Addr:    opts.Addr,
		Timeout: opts.Timeout,
	}
	if opts.Username != "" && opts.Password != "" {
		httpConfig.Username = opts.Username
		httpConfig.Password = opts.Password
	}
	c, err := influxclient.NewHTTPClient(httpConfig)
	if err != nil {
		return nil, fmt.Errorf("create influx client: %w", err)
	}
	return newInfluxSink(c, opts.Database, opts.Measurement, logger), nil
}

func newInfluxSink(c influxclient.Client, database, measurement string, logger *slog.Logger) *InfluxSink {
	if measurement == "" {
		measurement = "air_quality"
	}
	return &InfluxSink{
		client:      c,
		database:    database,
		measurement: measurement,
		logger:      logger.With("component", "observations.influx"),
		now:         time.Now,
	}
}

// WriteAirQuality implements dashboard.ObservationSink.
func (s *InfluxSink) WriteAirQuality(_ context.Context, userID string, at geo.Point, rec airquality.Record) error {
	bp, err := influxclient.NewBatchPoints(influxclient.BatchPointsConfig{
		Database:  s.database,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("create batch points: %w", err)
	}

	cat := rec.Category()
	tags := map[string]string{
		"user":     userID,
		"scale":    string(rec.Scale),
		"location": at.Rounded(2).Key(),
		"category": cat.Label,
	}
	fields := map[string]interface{}{
		"score": rec.Score,
		"level": cat.Level,
	}
	if p := rec.Pollutants; p != nil {
		addField(fields, "pm2_5", p.PM25)
		addField(fields, "pm10", p.PM10)
		addField(fields, "no2", p.NO2)
		addField(fields, "o3", p.O3)
		addField(fields, "so2", p.SO2)
		addField(fields, "co", p.CO)
	}

	ts := rec.ObservedAt
	if ts.IsZero() {
		ts = s.now()
	}
	point, err := influxclient.NewPoint(s.measurement, tags, fields, ts)
	if err != nil {
		return fmt.Errorf("create point: %w", err)
	}
	bp.AddPoint(point)
	if err := s.client.Write(bp); err != nil {
		return fmt.Errorf("write influx point: %w", err)
	}
	s.logger.Debug("air quality observation written", "user", userID, "score", rec.Score)
	return nil
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	return s.client.Close()
}

func addField(fields map[string]interface{}, name string, v *float64) {
	if v != nil {
		fields[name] = *v
	}
}

var _ dashboard.ObservationSink = (*InfluxSink)(nil)
