package dailylog

import (
	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/symptoms"
	"github.com/yanqian/clearday/internal/domain/weather"
	"github.com/yanqian/clearday/pkg/caldate"
)

// Record aggregates everything known about one user-day. Each field is optional
// and owned by a single source.
type Record struct {
	Date       caldate.Date       `json:"date"`
	AirQuality *airquality.Record `json:"airQuality,omitempty"`
	Pollen     *pollen.DayRecord  `json:"pollen,omitempty"`
	Symptoms   *symptoms.Entry    `json:"symptoms,omitempty"`
	Weather    *weather.Snapshot  `json:"weather,omitempty"`
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := Record{Date: r.Date}
	if r.AirQuality != nil {
		v := r.AirQuality.Clone()
		out.AirQuality = &v
	}
	if r.Pollen != nil {
		v := r.Pollen.Clone()
		out.Pollen = &v
	}
	if r.Symptoms != nil {
		v := r.Symptoms.Clone()
		out.Symptoms = &v
	}
	if r.Weather != nil {
		v := r.Weather.Clone()
		out.Weather = &v
	}
	return out
}

// Fields lists the populated fields.
func (r Record) Fields() []Field {
	var out []Field
	if r.AirQuality != nil {
		out = append(out, FieldAirQuality)
	}
	if r.Pollen != nil {
		out = append(out, FieldPollen)
	}
	if r.Symptoms != nil {
		out = append(out, FieldSymptoms)
	}
	if r.Weather != nil {
		out = append(out, FieldWeather)
	}
	return out
}

// Fields of a record in storage order.
var allFields = []Field{FieldAirQuality, FieldPollen, FieldSymptoms, FieldWeather}

// AllFields lists every field a record can carry.
func AllFields() []Field {
	return append([]Field(nil), allFields...)
}

// DocumentKey is the JSON key the field is encoded under in a Record.
func (f Field) DocumentKey() string {
	switch f {
	case FieldAirQuality:
		return "airQuality"
	case FieldPollen:
		return "pollen"
	case FieldSymptoms:
		return "symptoms"
	case FieldWeather:
		return "weather"
	}
	return ""
}

// FieldValue returns the value of field, or nil when it is unset.
func (r Record) FieldValue(field Field) any {
	switch field {
	case FieldAirQuality:
		if r.AirQuality != nil {
			return r.AirQuality
		}
	case FieldPollen:
		if r.Pollen != nil {
			return r.Pollen
		}
	case FieldSymptoms:
		if r.Symptoms != nil {
			return r.Symptoms
		}
	case FieldWeather:
		if r.Weather != nil {
			return r.Weather
		}
	}
	return nil
}

// CopyField replaces field of r with a deep copy of the same field of src.
func (r *Record) CopyField(src Record, field Field) {
	cp := src.Clone()
	switch field {
	case FieldAirQuality:
		r.AirQuality = cp.AirQuality
	case FieldPollen:
		r.Pollen = cp.Pollen
	case FieldSymptoms:
		r.Symptoms = cp.Symptoms
	case FieldWeather:
		r.Weather = cp.Weather
	}
}
