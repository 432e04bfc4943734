package symptoms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/palette"
)

// Severity bounds shared by the general rating and every named symptom.
const (
	MinSeverity = 0
	MaxSeverity = 5
)

// KnownSymptoms are the names offered by the diary screen. Other names are accepted.
var KnownSymptoms = []string{"Sneezing", "Runny Nose", "Coughing", "Itchy Eyes", "Shortness of Breath"}

// Entry is the symptom diary for one day. Writes replace the whole entry.
type Entry struct {
	Date            caldate.Date   `json:"date"`
	GeneralSeverity int            `json:"generalSeverity"`
	PerSymptom      map[string]int `json:"symptoms"`
}

// NewEntry validates severities and names and copies the map.
func NewEntry(date caldate.Date, general int, perSymptom map[string]int) (Entry, error) {
	if date.IsZero() {
		return Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput, "date is required", nil)
	}
	if !inRange(general) {
		return Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("generalSeverity must be between %d and %d", MinSeverity, MaxSeverity), nil)
	}
	copied := make(map[string]int, len(perSymptom))
	for name, value := range perSymptom {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput, "symptom name must not be empty", nil)
		}
		if !inRange(value) {
			return Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput,
				fmt.Sprintf("severity of %q must be between %d and %d", trimmed, MinSeverity, MaxSeverity), nil)
		}
		copied[trimmed] = value
	}
	return Entry{Date: date, GeneralSeverity: general, PerSymptom: copied}, nil
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	out := e
	if e.PerSymptom != nil {
		out.PerSymptom = make(map[string]int, len(e.PerSymptom))
		for k, v := range e.PerSymptom {
			out.PerSymptom[k] = v
		}
	}
	return out
}

// Names returns the logged symptom names in order.
func (e Entry) Names() []string {
	names := make([]string, 0, len(e.PerSymptom))
	for name := range e.PerSymptom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Score combines the entry's ratings.
func (e Entry) Score() float64 {
	return Score(e.GeneralSeverity, e.PerSymptom)
}

// Color is the severity colour of the entry.
func (e Entry) Color() palette.Color {
	return SeverityColor(e.GeneralSeverity, e.PerSymptom)
}

func inRange(v int) bool {
	return v >= MinSeverity && v <= MaxSeverity
}

func clampSeverity(v int) int {
	return min(max(v, MinSeverity), MaxSeverity)
}
