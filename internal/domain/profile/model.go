package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/yanqian/clearday/internal/domain/pollen"
)

// Default morning briefing time.
const (
	DefaultBriefingHour   = 7
	DefaultBriefingMinute = 0
)

// BriefingTime is the local wall clock time of the morning briefing.
type BriefingTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (b BriefingTime) String() string {
	return fmt.Sprintf("%02d:%02d", b.Hour, b.Minute)
}

// Valid reports whether b is a real time of day.
func (b BriefingTime) Valid() bool {
	return b.Hour >= 0 && b.Hour <= 23 && b.Minute >= 0 && b.Minute <= 59
}

// Profile holds the user's preferences.
type Profile struct {
	UserID           string             `json:"userId"`
	TrackedAllergens []pollen.PlantCode `json:"trackedAllergens"`
	BriefingTime     BriefingTime       `json:"briefingTime"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// Default is the profile of a user who never saved one.
func Default(userID string) Profile {
	return Profile{
		UserID:           userID,
		TrackedAllergens: []pollen.PlantCode{},
		BriefingTime:     BriefingTime{Hour: DefaultBriefingHour, Minute: DefaultBriefingMinute},
	}
}

// Tracked returns the tracked allergens as a set.
func (p Profile) Tracked() pollen.Set {
	return pollen.NewSet(p.TrackedAllergens...)
}

// Repository persists profiles.
type Repository interface {
	Get(ctx context.Context, userID string) (Profile, bool, error)
	Save(ctx context.Context, p Profile) error
}
