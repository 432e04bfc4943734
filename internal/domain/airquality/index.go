package airquality

import "math"

// Breakpoint is one bracket of a piecewise-linear concentration to index table.
type Breakpoint struct {
	CLow  float64
	CHigh float64
	ILow  int
	IHigh int
}

// Table maps a pollutant concentration onto the EPA index. Precision is the
// reporting resolution concentrations are truncated to before lookup; zero disables truncation.
type Table struct {
	Breakpoints []Breakpoint
	Precision   float64
}

// PM25Table is the EPA table for 24h PM2.5 in μg/m³.
var PM25Table = Table{
	Precision: 0.1,
	Breakpoints: []Breakpoint{
		{CLow: 0.0, CHigh: 12.0, ILow: 0, IHigh: 50},
		{CLow: 12.1, CHigh: 35.4, ILow: 51, IHigh: 100},
		{CLow: 35.5, CHigh: 55.4, ILow: 101, IHigh: 150},
		{CLow: 55.5, CHigh: 150.4, ILow: 151, IHigh: 200},
		{CLow: 150.5, CHigh: 250.4, ILow: 201, IHigh: 300},
		{CLow: 250.5, CHigh: 350.4, ILow: 301, IHigh: 400},
		{CLow: 350.5, CHigh: 500.4, ILow: 401, IHigh: 500},
	},
}

// PM10Table is the EPA table for 24h PM10 in μg/m³.
var PM10Table = Table{
	Precision: 1,
	Breakpoints: []Breakpoint{
		{CLow: 0, CHigh: 54, ILow: 0, IHigh: 50},
		{CLow: 55, CHigh: 154, ILow: 51, IHigh: 100},
		{CLow: 155, CHigh: 254, ILow: 101, IHigh: 150},
		{CLow: 255, CHigh: 354, ILow: 151, IHigh: 200},
		{CLow: 355, CHigh: 424, ILow: 201, IHigh: 300},
		{CLow: 425, CHigh: 504, ILow: 301, IHigh: 400},
		{CLow: 505, CHigh: 604, ILow: 401, IHigh: 500},
	},
}

// ComputeEPAAQI returns the EPA index for the worse of the two particulate readings.
// Negative or NaN concentrations count as zero; anything past the last bracket saturates at 500.
func ComputeEPAAQI(pm25, pm10 float64) int {
	return max(PM25Table.Index(pm25), PM10Table.Index(pm10))
}

// Index evaluates the table for concentration c.
func (t Table) Index(c float64) int {
	if math.IsNaN(c) || c < 0 {
		c = 0
	}
	if math.IsInf(c, 1) {
		return MaxEPAScore
	}
	c = t.truncate(c)
	if len(t.Breakpoints) == 0 {
		return MinEPAScore
	}
	for _, bp := range t.Breakpoints {
		if c > bp.CHigh {
			continue
		}
		return clampScore(bp.interpolate(c), MinEPAScore, MaxEPAScore)
	}
	return MaxEPAScore
}

func (t Table) truncate(c float64) float64 {
	if t.Precision <= 0 {
		return c
	}
	steps := math.Round(1 / t.Precision)
	// epsilon keeps 12.1 from flooring to 12.0 after the multiply
	return math.Floor(c*steps+1e-9) / steps
}

func (bp Breakpoint) interpolate(c float64) int {
	if bp.CHigh == bp.CLow {
		return bp.IHigh
	}
	if c < bp.CLow {
		c = bp.CLow
	}
	slope := float64(bp.IHigh-bp.ILow) / (bp.CHigh - bp.CLow)
	return int(math.Round(slope*(c-bp.CLow) + float64(bp.ILow)))
}

func clampScore(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
