package airquality

import (
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/clearday/pkg/palette"
)

// Scale tags which index an air quality score is expressed in.
type Scale string

const (
	// ScaleEPA is the 0-500 US EPA index.
	ScaleEPA Scale = "epa_500"
	// ScaleStation is the 1-5 index reported directly by some providers.
	ScaleStation Scale = "station_5"
)

// Score bounds per scale.
const (
	MinEPAScore     = 0
	MaxEPAScore     = 500
	MinStationScore = 1
	MaxStationScore = 5
)

// ParseScale accepts the wire name of a scale.
func ParseScale(raw string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(raw))) {
	case ScaleEPA:
		return ScaleEPA, nil
	case ScaleStation:
		return ScaleStation, nil
	default:
		return "", fmt.Errorf("unknown air quality scale %q", raw)
	}
}

// Bounds returns the inclusive score range of the scale.
func (s Scale) Bounds() (int, int) {
	switch s {
	case ScaleStation:
		return MinStationScore, MaxStationScore
	default:
		return MinEPAScore, MaxEPAScore
	}
}

// Valid reports whether s is a known scale.
func (s Scale) Valid() bool {
	return s == ScaleEPA || s == ScaleStation
}

// PollutantReading holds concentrations in μg/m³. Nil means not reported.
type PollutantReading struct {
	PM25 *float64 `json:"pm2_5,omitempty"`
	PM10 *float64 `json:"pm10,omitempty"`
	NO2  *float64 `json:"no2,omitempty"`
	O3   *float64 `json:"o3,omitempty"`
	SO2  *float64 `json:"so2,omitempty"`
	CO   *float64 `json:"co,omitempty"`
}

// HasParticulates reports whether both PM2.5 and PM10 are present.
func (p PollutantReading) HasParticulates() bool {
	return p.PM25 != nil && p.PM10 != nil
}

func (p PollutantReading) clone() PollutantReading {
	return PollutantReading{
		PM25: copyFloat(p.PM25),
		PM10: copyFloat(p.PM10),
		NO2:  copyFloat(p.NO2),
		O3:   copyFloat(p.O3),
		SO2:  copyFloat(p.SO2),
		CO:   copyFloat(p.CO),
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Record is one air quality observation. Score always lies within Scale's bounds.
type Record struct {
	Score      int               `json:"score"`
	Scale      Scale             `json:"scale"`
	Pollutants *PollutantReading `json:"pollutants,omitempty"`
	ObservedAt time.Time         `json:"observedAt"`
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := r
	if r.Pollutants != nil {
		p := r.Pollutants.clone()
		out.Pollutants = &p
	}
	return out
}

// Category is the bucketed presentation of a score.
type Category struct {
	Scale Scale         `json:"scale"`
	Level int           `json:"level"`
	Label string        `json:"label"`
	Color palette.Color `json:"color"`
}
