package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yanqian/clearday/internal/domain/calendar"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/infra/archive"
	"github.com/yanqian/clearday/internal/infra/config"
	"github.com/yanqian/clearday/pkg/caldate"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar [EXPORT_FILE]",
	Short: "Render a month export as a calendar",
	Long: `Render a month export produced by the service. The export is read from
EXPORT_FILE, from stdin when EXPORT_FILE is "-", or from the configured R2
bucket with --key. Cells are coloured when stdout is a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalendar,
}

var (
	calendarKey     string
	calendarNoColor bool
)

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().StringVar(&calendarKey, "key", "", "object key of the export in the R2 archive")
	calendarCmd.Flags().BoolVar(&calendarNoColor, "no-color", false, "disable ANSI colours")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	rc, err := openExport(cmd.Context(), cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	defer rc.Close()

	var doc dailylog.MonthExport
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return fmt.Errorf("decode export: %w", err)
	}

	color := !calendarNoColor && isTerminal(cmd.OutOrStdout())
	renderCalendar(cmd.OutOrStdout(), doc, color)
	return nil
}

func openExport(ctx context.Context, stdin io.Reader, args []string) (io.ReadCloser, error) {
	switch {
	case calendarKey != "":
		if len(args) > 0 {
			return nil, fmt.Errorf("pass either EXPORT_FILE or --key, not both")
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		r2 := cfg.Archive.R2
		if !r2.Enabled() {
			return nil, fmt.Errorf("r2 archive is not configured")
		}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		a, err := archive.NewR2Archive(r2.Endpoint, r2.AccessKey, r2.SecretKey, r2.Bucket, r2.Region, logger)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		body, err := a.Get(ctx, calendarKey)
		if err != nil {
			return nil, err
		}
		// the object streams, so read it before cancel fires
		defer body.Close()
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read export: %w", err)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	case len(args) == 0 || args[0] == "-":
		return io.NopCloser(stdin), nil
	default:
		return os.Open(args[0])
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// renderCalendar prints a Monday-first grid followed by a legend of recorded days.
func renderCalendar(w io.Writer, doc dailylog.MonthExport, color bool) {
	records := make(map[caldate.Date]dailylog.Record, len(doc.Records))
	for _, rec := range doc.Records {
		records[rec.Date] = rec
	}
	cells := calendar.ProjectMonth(records, doc.Month)

	title := doc.Month.First().Time().Format("January 2006")
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintln(w, strings.Join(weekdayHeader, " "))
	for _, week := range calendar.Grid(doc.Month, cells) {
		parts := make([]string, len(week))
		for i, cell := range week {
			parts[i] = formatCell(cell, color)
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}

	sorted := dailylog.SortedRecords(records)
	if len(sorted) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, rec := range sorted {
		if !doc.Month.Contains(rec.Date) {
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", rec.Date, describeDay(rec))
	}
}

func formatCell(cell calendar.GridCell, color bool) string {
	if cell.Placeholder || cell.Date == nil {
		return "  "
	}
	label := fmt.Sprintf("%2d", cell.Date.Day)
	if !color {
		return label
	}
	out := label
	if r, g, b, ok := cell.Fill.RGB(); ok {
		out = fmt.Sprintf("\x1b[48;2;%d;%d;%dm\x1b[30m%s\x1b[0m", r, g, b, label)
	}
	if r, g, b, ok := cell.Border.RGB(); ok && !cell.Border.IsTransparent() {
		out = fmt.Sprintf("\x1b[4m\x1b[58;2;%d;%d;%dm%s", r, g, b, out)
	}
	return out
}

func describeDay(rec dailylog.Record) string {
	var parts []string
	if rec.Symptoms != nil {
		parts = append(parts, fmt.Sprintf("symptoms %.1f", rec.Symptoms.Score()))
	}
	if rec.AirQuality != nil {
		parts = append(parts, fmt.Sprintf("air %d %s", rec.AirQuality.Score, rec.AirQuality.Category().Label))
	}
	if rec.Pollen != nil {
		parts = append(parts, fmt.Sprintf("pollen %d plants", len(rec.Pollen.Plants)))
	}
	if rec.Weather != nil {
		parts = append(parts, "weather")
	}
	if len(parts) == 0 {
		return "no data"
	}
	return strings.Join(parts, ", ")
}
