package weather

import (
	"time"

	"github.com/yanqian/clearday/pkg/caldate"
)

// Daytime window used for the coldest temperature, inclusive hours.
const (
	DaytimeStartHour = 7
	DaytimeEndHour   = 20
)

// Snapshot is the current weather at a location.
type Snapshot struct {
	TemperatureC    float64   `json:"temperatureC"`
	FeelsLikeC      float64   `json:"feelsLikeC"`
	Humidity        int       `json:"humidity"`
	Description     string    `json:"description"`
	Icon            string    `json:"icon,omitempty"`
	Location        string    `json:"location,omitempty"`
	ColdestDaytimeC *float64  `json:"coldestDaytimeC,omitempty"`
	ObservedAt      time.Time `json:"observedAt"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.ColdestDaytimeC != nil {
		v := *s.ColdestDaytimeC
		out.ColdestDaytimeC = &v
	}
	return out
}

// ColdestOrCurrent prefers the coldest daytime temperature.
func (s Snapshot) ColdestOrCurrent() float64 {
	if s.ColdestDaytimeC != nil {
		return *s.ColdestDaytimeC
	}
	return s.TemperatureC
}

// ForecastPoint is one step of a multi-hour forecast.
type ForecastPoint struct {
	At           time.Time
	TemperatureC float64
}

// ColdestDaytime returns the minimum forecast temperature on day between 07:00 and
// 20:00 in loc. ok is false when no point falls inside the window.
func ColdestDaytime(points []ForecastPoint, day caldate.Date, loc *time.Location) (coldest float64, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, pt := range points {
		local := pt.At.In(loc)
		if caldate.Of(local) != day {
			continue
		}
		if h := local.Hour(); h < DaytimeStartHour || h > DaytimeEndHour {
			continue
		}
		if !ok || pt.TemperatureC < coldest {
			coldest = pt.TemperatureC
			ok = true
		}
	}
	return coldest, ok
}
