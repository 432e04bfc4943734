package calendar

import (
	"time"

	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/pkg/caldate"
	"github.com/yanqian/clearday/pkg/palette"
)

// CellVisual is how one day is drawn: fill from symptoms, border from air quality.
type CellVisual struct {
	Fill   palette.Color `json:"fill"`
	Border palette.Color `json:"border"`
}

// NoData is the visual of a day without symptoms or air quality.
var NoData = CellVisual{Fill: palette.Neutral, Border: palette.Transparent}

// ProjectDay computes the visual of one record; nil means no record.
func ProjectDay(rec *dailylog.Record) CellVisual {
	out := NoData
	if rec == nil {
		return out
	}
	if rec.Symptoms != nil {
		out.Fill = rec.Symptoms.Color()
	}
	if rec.AirQuality != nil {
		out.Border = rec.AirQuality.Category().Color
	}
	return out
}

// ProjectMonth returns a visual for every day of month. Records outside the month are ignored.
func ProjectMonth(records map[caldate.Date]dailylog.Record, month caldate.YearMonth) map[caldate.Date]CellVisual {
	cells := make(map[caldate.Date]CellVisual, month.Days())
	for _, date := range month.Dates() {
		if rec, ok := records[date]; ok {
			cells[date] = ProjectDay(&rec)
			continue
		}
		cells[date] = NoData
	}
	return cells
}

// GridCell is a slot of the month grid. Placeholders pad the first and last week and carry no date.
type GridCell struct {
	Date        *caldate.Date `json:"date,omitempty"`
	Placeholder bool          `json:"placeholder,omitempty"`
	CellVisual
}

// Grid lays cells out in Monday-first weeks of seven columns.
func Grid(month caldate.YearMonth, cells map[caldate.Date]CellVisual) [][]GridCell {
	lead := mondayOffset(month.First().Weekday())
	total := lead + month.Days()
	weeks := (total + 6) / 7

	grid := make([][]GridCell, weeks)
	for w := range grid {
		grid[w] = make([]GridCell, 7)
		for col := range grid[w] {
			day := w*7 + col - lead + 1
			if day < 1 || day > month.Days() {
				grid[w][col] = GridCell{Placeholder: true}
				continue
			}
			date := caldate.Date{Year: month.Year, Month: month.Month, Day: day}
			visual, ok := cells[date]
			if !ok {
				visual = NoData
			}
			grid[w][col] = GridCell{Date: &date, CellVisual: visual}
		}
	}
	return grid
}

func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
