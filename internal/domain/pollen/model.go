package pollen

import (
	"fmt"
	"strings"

	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/palette"
)

// MaxIndex is the top of the Universal Pollen Index.
const MaxIndex = 5

// TypeCode groups plants into the three reported pollen types.
type TypeCode string

const (
	TypeTree  TypeCode = "TREE"
	TypeGrass TypeCode = "GRASS"
	TypeWeed  TypeCode = "WEED"
)

// Category is the UPI band of a value.
type Category string

const (
	CategoryNone     Category = "NONE"
	CategoryLow      Category = "LOW"
	CategoryModerate Category = "MODERATE"
	CategoryHigh     Category = "HIGH"
	CategoryVeryHigh Category = "VERY_HIGH"
)

// CategoryForValue bands a UPI value. Values 1 and 2 both read as LOW.
func CategoryForValue(v int) Category {
	switch {
	case v <= 0:
		return CategoryNone
	case v <= 2:
		return CategoryLow
	case v == 3:
		return CategoryModerate
	case v == 4:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}

// ParseCategory accepts provider spellings such as "Very High" or "very_high".
// Unrecognised input falls back to the band of value.
func ParseCategory(raw string, value int) Category {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_"))
	switch Category(normalized) {
	case CategoryNone, CategoryLow, CategoryModerate, CategoryHigh, CategoryVeryHigh:
		return Category(normalized)
	case "VERY_LOW":
		return CategoryLow
	}
	return CategoryForValue(value)
}

// Color is the chip colour used for a category.
func (c Category) Color() palette.Color {
	switch c {
	case CategoryNone:
		return "#E8F5E9"
	case CategoryLow:
		return "#FFF9C4"
	case CategoryModerate:
		return "#FFE082"
	case CategoryHigh:
		return "#FFAB91"
	case CategoryVeryHigh:
		return "#EF5350"
	default:
		return "#EEEEEE"
	}
}

// TypeIndex is the index of a pollen type for a day.
type TypeIndex struct {
	Value    int      `json:"value"`
	Category Category `json:"category"`
}

// PlantIndex is the index of a single plant for a day.
type PlantIndex struct {
	Value    int  `json:"value"`
	InSeason bool `json:"inSeason"`
}

// DayRecord is the pollen picture for one date.
type DayRecord struct {
	Date   caldate.Date             `json:"date"`
	Types  map[TypeCode]TypeIndex   `json:"types,omitempty"`
	Plants map[PlantCode]PlantIndex `json:"plants,omitempty"`
}

// Validate checks every value against the UPI range.
func (d DayRecord) Validate() error {
	for code, idx := range d.Types {
		if idx.Value < 0 || idx.Value > MaxIndex {
			return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("pollen type %s value %d out of range", code, idx.Value), nil)
		}
	}
	for code, idx := range d.Plants {
		if idx.Value < 0 || idx.Value > MaxIndex {
			return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("plant %s value %d out of range", code, idx.Value), nil)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (d DayRecord) Clone() DayRecord {
	out := DayRecord{Date: d.Date}
	if d.Types != nil {
		out.Types = make(map[TypeCode]TypeIndex, len(d.Types))
		for k, v := range d.Types {
			out.Types[k] = v
		}
	}
	if d.Plants != nil {
		out.Plants = make(map[PlantCode]PlantIndex, len(d.Plants))
		for k, v := range d.Plants {
			out.Plants[k] = v
		}
	}
	return out
}
