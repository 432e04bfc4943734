package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/clearday/internal/domain/symptoms"
	"github.com/yanqian/clearday/pkg/caldate"
)

var severityCmd = &cobra.Command{
	Use:   "severity GENERAL [NAME=RATING ...]",
	Short: "Score a symptom diary entry",
	Long: `Combine the general rating with optional per-symptom ratings (0-5) and
print the resulting severity bucket, e.g.

  clearday severity 2 Sneezing=4 "Itchy Eyes=3"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeverity,
}

func init() {
	severityCmd.Long += "\n\nKnown symptoms: " + knownSymptoms()
	rootCmd.AddCommand(severityCmd)
}

func runSeverity(cmd *cobra.Command, args []string) error {
	general, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("general rating must be an integer: %w", err)
	}
	perSymptom, err := parseRatings(args[1:])
	if err != nil {
		return err
	}
	entry, err := symptoms.NewEntry(caldate.Of(time.Now()), general, perSymptom)
	if err != nil {
		return err
	}

	score := entry.Score()
	bucket := symptoms.Classify(score)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Score:  %.2f\n", score)
	fmt.Fprintf(out, "Bucket: %d %s (%s)\n", bucket.Level, bucket.Label, bucket.Color)
	for _, name := range entry.Names() {
		fmt.Fprintf(out, "  %-20s %d\n", name, entry.PerSymptom[name])
	}
	return nil
}

func parseRatings(args []string) (map[string]int, error) {
	out := make(map[string]int, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected NAME=RATING, got %q", arg)
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("rating of %q must be an integer", name)
		}
		out[name] = v
	}
	return out, nil
}

func knownSymptoms() string {
	names := append([]string(nil), symptoms.KnownSymptoms...)
	sort.Strings(names)
	return strings.Join(names, ", ")
}
