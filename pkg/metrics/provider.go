package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-logr/stdr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Config selects the metric exporter.
type Config struct {
	Exporter string // stdout, otlp or none
	Endpoint string
	Insecure bool
	Interval time.Duration
}

// Provider owns the meter provider and its shutdown hook.
type Provider struct {
	metric.MeterProvider
	shutdown func(context.Context) error
}

// NewProvider builds a meter provider for cfg. Exporter "none" (or empty) yields a noop provider.
func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("otel error", "error", err)
	}))
	otel.SetLogger(stdr.New(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)))

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "", "none":
		return &Provider{MeterProvider: noop.NewMeterProvider(), shutdown: func(context.Context) error { return nil }}, nil
	case "stdout":
		exporter, err = stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	case "otlp":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create metrics exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", "clearday"))),
	)
	return &Provider{MeterProvider: mp, shutdown: mp.Shutdown}, nil
}

// Shutdown flushes pending measurements.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}
