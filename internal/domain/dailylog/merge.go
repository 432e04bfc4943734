package dailylog

import (
	"fmt"

	"github.com/yanqian/clearday/internal/domain/airquality"
	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/symptoms"
	"github.com/yanqian/clearday/internal/domain/weather"
	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
)

// Field names one of the independently arriving parts of a record.
type Field string

const (
	FieldAirQuality Field = "air_quality"
	FieldPollen     Field = "pollen"
	FieldSymptoms   Field = "symptoms"
	FieldWeather    Field = "weather"
)

// Update replaces exactly one field of a day's record. Build it with one of the
// *Update constructors; the zero value is invalid.
type Update struct {
	date       caldate.Date
	field      Field
	airQuality airquality.Record
	pollen     pollen.DayRecord
	symptoms   symptoms.Entry
	weather    weather.Snapshot
}

// AirQualityUpdate sets the air quality of date.
func AirQualityUpdate(date caldate.Date, rec airquality.Record) Update {
	return Update{date: date, field: FieldAirQuality, airQuality: rec.Clone()}
}

// PollenUpdate sets the pollen of date. The pollen record is re-dated to date.
func PollenUpdate(date caldate.Date, rec pollen.DayRecord) Update {
	cp := rec.Clone()
	cp.Date = date
	return Update{date: date, field: FieldPollen, pollen: cp}
}

// SymptomsUpdate replaces the symptom entry of date as a whole.
func SymptomsUpdate(date caldate.Date, entry symptoms.Entry) Update {
	cp := entry.Clone()
	cp.Date = date
	return Update{date: date, field: FieldSymptoms, symptoms: cp}
}

// WeatherUpdate sets the weather of date.
func WeatherUpdate(date caldate.Date, snap weather.Snapshot) Update {
	return Update{date: date, field: FieldWeather, weather: snap.Clone()}
}

// Date is the day the update targets.
func (u Update) Date() caldate.Date { return u.date }

// Field is the part of the record the update replaces.
func (u Update) Field() Field { return u.field }

// Validate rejects zero updates and out-of-range payloads.
func (u Update) Validate() error {
	if u.date.IsZero() {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "update has no date", nil)
	}
	switch u.field {
	case FieldAirQuality:
		lo, hi := u.airQuality.Scale.Bounds()
		if !u.airQuality.Scale.Valid() || u.airQuality.Score < lo || u.airQuality.Score > hi {
			return apperrors.Wrap(apperrors.CodeInvalidInput,
				fmt.Sprintf("air quality score %d invalid for scale %q", u.airQuality.Score, u.airQuality.Scale), nil)
		}
	case FieldPollen:
		return u.pollen.Validate()
	case FieldSymptoms:
		_, err := symptoms.NewEntry(u.date, u.symptoms.GeneralSeverity, u.symptoms.PerSymptom)
		return err
	case FieldWeather:
	default:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "update carries no field", nil)
	}
	return nil
}

// Merge applies update to existing, which may be nil. Only the update's field is
// replaced; every other field is carried over. The result never aliases existing
// or the update.
func Merge(existing *Record, update Update) Record {
	var out Record
	if existing != nil {
		out = existing.Clone()
	}
	out.Date = update.date

	switch update.field {
	case FieldAirQuality:
		v := update.airQuality.Clone()
		out.AirQuality = &v
	case FieldPollen:
		v := update.pollen.Clone()
		out.Pollen = &v
	case FieldSymptoms:
		v := update.symptoms.Clone()
		out.Symptoms = &v
	case FieldWeather:
		v := update.weather.Clone()
		out.Weather = &v
	}
	return out
}
