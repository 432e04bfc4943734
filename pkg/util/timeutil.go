package util

import (
	"time"

	"github.com/yanqian/clearday/pkg/caldate"
)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Today returns the civil date of now in loc; a nil loc means UTC.
func Today(now func() time.Time, loc *time.Location) caldate.Date {
	if loc == nil {
		loc = time.UTC
	}
	return caldate.Of(now().In(loc))
}
