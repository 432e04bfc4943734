package airquality

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/palette"
)

type bucket struct {
	upper int
	label string
	color palette.Color
}

var epaBuckets = []bucket{
	{upper: 50, label: "Good", color: "#009966"},
	{upper: 100, label: "Moderate", color: "#FFDE33"},
	{upper: 150, label: "Unhealthy for Sensitive Groups", color: "#FF9933"},
	{upper: 200, label: "Unhealthy", color: "#CC0033"},
	{upper: 300, label: "Very Unhealthy", color: "#660099"},
	{upper: MaxEPAScore, label: "Hazardous", color: "#7E0023"},
}

var stationBuckets = []bucket{
	{upper: 1, label: "Good", color: "#81C784"},
	{upper: 2, label: "Fair", color: "#FFD54F"},
	{upper: 3, label: "Moderate", color: "#FFB74D"},
	{upper: 4, label: "Poor", color: "#E57373"},
	{upper: 5, label: "Very Poor", color: "#EF5350"},
}

var unknownCategory = Category{Label: "Unknown", Color: "#BDBDBD"}

// Classify buckets a score using the table of its own scale. Scores outside the
// scale's bounds are clamped first.
func Classify(score int, scale Scale) Category {
	var table []bucket
	switch scale {
	case ScaleEPA:
		table = epaBuckets
	case ScaleStation:
		table = stationBuckets
	default:
		return unknownCategory
	}
	lo, hi := scale.Bounds()
	score = clampScore(score, lo, hi)
	for i, b := range table {
		if score <= b.upper {
			return Category{Scale: scale, Level: i + 1, Label: b.label, Color: b.color}
		}
	}
	last := table[len(table)-1]
	return Category{Scale: scale, Level: len(table), Label: last.label, Color: last.color}
}

// Category returns the classification of the record.
func (r Record) Category() Category {
	return Classify(r.Score, r.Scale)
}

var healthAdvice = [][]string{
	{"Air quality is satisfactory", "Enjoy your outdoor activities"},
	{"Air quality is acceptable", "Sensitive individuals should consider limiting exposure"},
	{"Sensitive groups may experience health effects", "Consider reducing prolonged outdoor exertion"},
	{"Everyone may begin to experience health effects", "Keep windows closed", "Use air purifiers"},
	{"Health alert: avoid outdoor activities", "Wear a mask if you must go outside", "Keep windows and doors closed"},
}

// HealthAdvice lists recommendations for a category. The two worst EPA levels share advice.
func HealthAdvice(c Category) []string {
	if c.Level < 1 {
		return []string{"Data unavailable"}
	}
	idx := min(c.Level, len(healthAdvice)) - 1
	return append([]string(nil), healthAdvice[idx]...)
}

// NewRecord validates score against scale and builds a record.
func NewRecord(score int, scale Scale, pollutants *PollutantReading, observedAt time.Time) (Record, error) {
	if !scale.Valid() {
		return Record{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown scale %q", scale), nil)
	}
	lo, hi := scale.Bounds()
	if score < lo || score > hi {
		return Record{}, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("score %d outside %s range %d-%d", score, scale, lo, hi), nil)
	}
	if pollutants != nil {
		if err := pollutants.validate(); err != nil {
			return Record{}, err
		}
		p := pollutants.clone()
		pollutants = &p
	}
	return Record{Score: score, Scale: scale, Pollutants: pollutants, ObservedAt: observedAt.UTC()}, nil
}

// FromConcentrations derives an EPA record from PM2.5 and PM10.
func FromConcentrations(p PollutantReading, observedAt time.Time) (Record, error) {
	if !p.HasParticulates() {
		return Record{}, apperrors.Wrap(apperrors.CodeInvalidInput, "pm2_5 and pm10 are required", nil)
	}
	if err := p.validate(); err != nil {
		return Record{}, err
	}
	return NewRecord(ComputeEPAAQI(*p.PM25, *p.PM10), ScaleEPA, &p, observedAt)
}

func (p PollutantReading) validate() error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"pm2_5", p.PM25}, {"pm10", p.PM10}, {"no2", p.NO2},
		{"o3", p.O3}, {"so2", p.SO2}, {"co", p.CO},
	}
	for _, f := range fields {
		if f.v == nil {
			continue
		}
		if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) || *f.v < 0 {
			return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("%s must be a non-negative number", f.name), nil)
		}
	}
	return nil
}

// FromReport turns a provider report into a record. Particulate concentrations win
// over the provider's own 1-5 index because they can be placed on the EPA scale.
func FromReport(stationIndex int, p PollutantReading, observedAt time.Time) (Record, error) {
	if p.HasParticulates() {
		return FromConcentrations(p, observedAt)
	}
	return NewRecord(stationIndex, ScaleStation, &p, observedAt)
}
