package pollen

import (
	"context"

	"github.com/yanqian/clearday/pkg/geo"
)

// Source fetches a multi-day pollen forecast, one record per date starting today.
type Source interface {
	Forecast(ctx context.Context, at geo.Point, days int) ([]DayRecord, error)
}
