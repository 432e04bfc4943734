package geo

import (
	"fmt"
	"math"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %v out of range", p.Lon)
	}
	return nil
}

// Rounded snaps the point to the given number of decimals, roughly 1.1km at 2.
func (p Point) Rounded(decimals int) Point {
	f := math.Pow(10, float64(decimals))
	return Point{Lat: math.Round(p.Lat*f) / f, Lon: math.Round(p.Lon*f) / f}
}

// Key formats the point for use in cache keys.
func (p Point) Key() string {
	return fmt.Sprintf("%.2f,%.2f", p.Lat, p.Lon)
}
