package briefing

import (
	"fmt"
	"time"

	"github.com/yanqian/clearday/internal/domain/allergen"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/pkg/caldate"
)

// Title of every morning briefing.
const Title = "Morning Briefing"

const unknown = "Unknown"

// Message is a briefing ready to be delivered.
type Message struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Date      caldate.Date `json:"date"`
	Title     string       `json:"title"`
	Lines     []string     `json:"lines"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Compose renders the briefing lines for a day.
func Compose(rec dailylog.Record, risk allergen.Risk) []string {
	temp := unknown
	if rec.Weather != nil {
		temp = fmt.Sprintf("%d°C", int(rec.Weather.ColdestOrCurrent()))
	}

	air := unknown
	if rec.AirQuality != nil {
		air = fmt.Sprintf("%d (%s)", rec.AirQuality.Score, rec.AirQuality.Category().Label)
	}

	pollenLine := allergen.AlertText(risk)
	if pollenLine == "" {
		pollenLine = "Check app for details"
	}

	return []string{
		"Coldest today: " + temp,
		"Air Quality: " + air,
		"Pollen: " + pollenLine,
	}
}
