package allergen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yanqian/clearday/internal/domain/pollen"
)

// HighRiskThreshold applies both to the averaged score and to single plants.
const HighRiskThreshold = 3.0

// Risk is the allergen exposure for one day. When Defined is false none of the
// tracked plants were reported and Score carries no meaning.
type Risk struct {
	Defined        bool               `json:"defined"`
	Score          float64            `json:"score"`
	IsHighRisk     bool               `json:"isHighRisk"`
	HighRiskPlants []pollen.PlantCode `json:"highRiskPlants"`
}

// ComputeRisk averages the plant values of day that the user tracks.
func ComputeRisk(tracked pollen.Set, day pollen.DayRecord) Risk {
	var (
		sum   int
		count int
		high  []pollen.PlantCode
	)
	for code, idx := range day.Plants {
		if !tracked.Has(code) {
			continue
		}
		sum += idx.Value
		count++
		if float64(idx.Value) >= HighRiskThreshold {
			high = append(high, code)
		}
	}
	if count == 0 {
		return Risk{HighRiskPlants: []pollen.PlantCode{}}
	}
	sort.Slice(high, func(i, j int) bool { return high[i] < high[j] })
	if high == nil {
		high = []pollen.PlantCode{}
	}
	score := float64(sum) / float64(count)
	return Risk{
		Defined:        true,
		Score:          score,
		IsHighRisk:     score >= HighRiskThreshold,
		HighRiskPlants: high,
	}
}

// AlertText is the one-line pollen alert. It is empty when the risk is undefined
// or no individual plant is high.
func AlertText(r Risk) string {
	if !r.Defined || len(r.HighRiskPlants) == 0 {
		return ""
	}
	names := make([]string, 0, len(r.HighRiskPlants))
	for _, code := range r.HighRiskPlants {
		names = append(names, displayName(code))
	}
	return fmt.Sprintf("High pollen levels today: %s. Consider staying indoors during peak hours (10am-4pm).", strings.Join(names, ", "))
}

func displayName(code pollen.PlantCode) string {
	lower := strings.ToLower(string(code))
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}
