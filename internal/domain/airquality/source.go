package airquality

import (
	"context"

	"github.com/yanqian/clearday/pkg/geo"
)

// Source fetches the current air quality at a location.
type Source interface {
	Name() string
	Fetch(ctx context.Context, at geo.Point) (Record, error)
}
