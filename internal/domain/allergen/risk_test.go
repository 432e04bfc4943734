package allergen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clearday/internal/domain/pollen"
)

func dayWith(values map[pollen.PlantCode]int) pollen.DayRecord {
	plants := make(map[pollen.PlantCode]pollen.PlantIndex, len(values))
	for code, v := range values {
		plants[code] = pollen.PlantIndex{Value: v, InSeason: v > 0}
	}
	return pollen.DayRecord{Plants: plants}
}

func TestComputeRiskAveragesTrackedPlants(t *testing.T) {
	risk := ComputeRisk(pollen.NewSet("BIRCH", "GRASS"), dayWith(map[pollen.PlantCode]int{"BIRCH": 4, "GRASS": 2, "OLIVE": 5}))
	require.True(t, risk.Defined)
	require.Equal(t, 3.0, risk.Score)
	require.True(t, risk.IsHighRisk)
	require.Equal(t, []pollen.PlantCode{"BIRCH"}, risk.HighRiskPlants)
}

func TestComputeRiskPlantListIndependentOfAverage(t *testing.T) {
	risk := ComputeRisk(pollen.NewSet("RAGWEED", "PINE", "HAZEL"), dayWith(map[pollen.PlantCode]int{"RAGWEED": 4, "PINE": 0, "HAZEL": 1}))
	require.False(t, risk.IsHighRisk)
	require.InDelta(t, 1.667, risk.Score, 0.001)
	require.Equal(t, []pollen.PlantCode{"RAGWEED"}, risk.HighRiskPlants)
	require.Equal(t, "High pollen levels today: Ragweed. Consider staying indoors during peak hours (10am-4pm).", AlertText(risk))
}

func TestComputeRiskUndefined(t *testing.T) {
	day := dayWith(map[pollen.PlantCode]int{"OLIVE": 5})
	for _, tracked := range []pollen.Set{nil, pollen.NewSet(), pollen.NewSet("BIRCH")} {
		risk := ComputeRisk(tracked, day)
		require.False(t, risk.Defined)
		require.False(t, risk.IsHighRisk)
		require.Empty(t, risk.HighRiskPlants)
		require.Empty(t, AlertText(risk))
	}
	require.False(t, ComputeRisk(pollen.NewSet("BIRCH"), pollen.DayRecord{}).Defined)
}

func TestHighRiskPlantsSorted(t *testing.T) {
	risk := ComputeRisk(pollen.NewSet("OLIVE", "BIRCH", "ALDER"), dayWith(map[pollen.PlantCode]int{"OLIVE": 5, "BIRCH": 3, "ALDER": 4}))
	require.Equal(t, []pollen.PlantCode{"ALDER", "BIRCH", "OLIVE"}, risk.HighRiskPlants)
	require.Contains(t, AlertText(risk), "today: Alder, Birch, Olive.")
}
