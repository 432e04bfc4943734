package pollen

import (
	"fmt"
	"sort"
	"strings"
)

// PlantCode identifies a plant as reported by the pollen provider.
type PlantCode string

// Registry lists the plants a user can track.
var Registry = []PlantCode{
	"ALDER", "BIRCH", "CEDAR", "CYPRESS", "ELDER", "GRASS", "HAZEL",
	"JUNIPER", "MUGWORT", "OLIVE", "PINE", "POACEAE", "RAGWEED",
}

var registrySet = func() map[PlantCode]struct{} {
	set := make(map[PlantCode]struct{}, len(Registry))
	for _, code := range Registry {
		set[code] = struct{}{}
	}
	return set
}()

// ParsePlantCode upper-cases raw and checks it against the registry.
func ParsePlantCode(raw string) (PlantCode, error) {
	code := PlantCode(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := registrySet[code]; !ok {
		return "", fmt.Errorf("unknown plant %q", raw)
	}
	return code, nil
}

// Set is an unordered collection of plant codes.
type Set map[PlantCode]struct{}

// NewSet builds a set from codes.
func NewSet(codes ...PlantCode) Set {
	set := make(Set, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s Set) Has(code PlantCode) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in ascending order.
func (s Set) Sorted() []PlantCode {
	out := make([]PlantCode, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
