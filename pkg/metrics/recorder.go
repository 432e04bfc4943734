package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/yanqian/clearday"

// Recorder captures the handful of domain measurements the service exports.
type Recorder struct {
	fetches metric.Int64Counter
	merges  metric.Int64Counter
	aqi     metric.Float64Gauge
}

// NewRecorder registers the instruments on the given provider.
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)
	fetches, err := meter.Int64Counter("clearday.source.fetches",
		metric.WithDescription("Upstream source fetches by outcome"))
	if err != nil {
		return nil, err
	}
	merges, err := meter.Int64Counter("clearday.dailylog.merges",
		metric.WithDescription("Daily record field merges"))
	if err != nil {
		return nil, err
	}
	aqi, err := meter.Float64Gauge("clearday.air_quality.score",
		metric.WithDescription("Last observed air quality score"))
	if err != nil {
		return nil, err
	}
	return &Recorder{fetches: fetches, merges: merges, aqi: aqi}, nil
}

// NewNoopRecorder returns a recorder that drops everything. Used by tests.
func NewNoopRecorder() *Recorder {
	rec, _ := NewRecorder(noop.NewMeterProvider())
	return rec
}

// SourceFetched counts a fetch against source; a non-nil err counts as failure.
func (r *Recorder) SourceFetched(ctx context.Context, source string, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.fetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

// RecordMerged counts a field merge into a daily record.
func (r *Recorder) RecordMerged(ctx context.Context, field string) {
	if r == nil {
		return
	}
	r.merges.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

// AirQualityObserved records the latest score for a scale.
func (r *Recorder) AirQualityObserved(ctx context.Context, scale string, score int) {
	if r == nil {
		return
	}
	r.aqi.Record(ctx, float64(score), metric.WithAttributes(attribute.String("scale", scale)))
}
