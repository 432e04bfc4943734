package weather

import (
	"context"

	"github.com/yanqian/clearday/pkg/geo"
)

// Source fetches current conditions and the short-range forecast.
type Source interface {
	Current(ctx context.Context, at geo.Point) (Snapshot, error)
	Forecast(ctx context.Context, at geo.Point) ([]ForecastPoint, error)
}
