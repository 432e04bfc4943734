package symptoms

import "github.com/yanqian/clearday/pkg/palette"

// Bucket is one of the five severity bands, best first.
type Bucket struct {
	Level int           `json:"level"`
	Label string        `json:"label"`
	Color palette.Color `json:"color"`
}

var buckets = []struct {
	below float64
	label string
	color palette.Color
}{
	{below: 1, label: "Feels Good", color: "#4CAF50"},
	{below: 2, label: "Mild", color: "#8BC34A"},
	{below: 3, label: "Moderate", color: "#FFEB3B"},
	{below: 4, label: "Strong", color: "#FF9800"},
}

var worst = Bucket{Level: 5, Label: "Severe", Color: "#F44336"}

// Score returns general when perSymptom is empty, otherwise the mean of general
// and the average named rating. Ratings are clamped into [0,5].
func Score(general int, perSymptom map[string]int) float64 {
	g := float64(clampSeverity(general))
	if len(perSymptom) == 0 {
		return g
	}
	sum := 0
	for _, v := range perSymptom {
		sum += clampSeverity(v)
	}
	avg := float64(sum) / float64(len(perSymptom))
	return (g + avg) / 2
}

// Classify maps a continuous score onto a bucket using half-open bands.
func Classify(score float64) Bucket {
	for i, b := range buckets {
		if score < b.below {
			return Bucket{Level: i + 1, Label: b.label, Color: b.color}
		}
	}
	return worst
}

// SeverityColor is Classify(Score(general, perSymptom)).Color.
func SeverityColor(general int, perSymptom map[string]int) palette.Color {
	return Classify(Score(general, perSymptom)).Color
}
