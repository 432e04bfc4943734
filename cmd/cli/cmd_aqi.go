package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/clearday/internal/domain/airquality"
)

var aqiCmd = &cobra.Command{
	Use:   "aqi",
	Short: "Compute the EPA air quality index",
	Long:  `Compute the 0-500 EPA index from PM2.5 and PM10 concentrations in µg/m³.`,
	RunE:  runAQI,
}

var classifyCmd = &cobra.Command{
	Use:   "classify SCORE",
	Short: "Classify an air quality score",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var (
	aqiPM25       float64
	aqiPM10       float64
	classifyScale string
)

func init() {
	rootCmd.AddCommand(aqiCmd)
	aqiCmd.AddCommand(classifyCmd)

	aqiCmd.Flags().Float64Var(&aqiPM25, "pm25", 0, "PM2.5 concentration")
	aqiCmd.Flags().Float64Var(&aqiPM10, "pm10", 0, "PM10 concentration")
	_ = aqiCmd.MarkFlagRequired("pm25")
	_ = aqiCmd.MarkFlagRequired("pm10")

	classifyCmd.Flags().StringVar(&classifyScale, "scale", string(airquality.ScaleEPA), "score scale (epa_500 or station_5)")
}

func runAQI(cmd *cobra.Command, args []string) error {
	rec, err := airquality.FromConcentrations(airquality.PollutantReading{PM25: &aqiPM25, PM10: &aqiPM10}, time.Now())
	if err != nil {
		return err
	}
	printRecord(cmd.OutOrStdout(), rec)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	score, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("score must be an integer: %w", err)
	}
	scale, err := airquality.ParseScale(classifyScale)
	if err != nil {
		return err
	}
	rec, err := airquality.NewRecord(score, scale, nil, time.Now())
	if err != nil {
		return err
	}
	printRecord(cmd.OutOrStdout(), rec)
	return nil
}

func printRecord(w io.Writer, rec airquality.Record) {
	category := rec.Category()
	fmt.Fprintf(w, "Score:    %d (%s)\n", rec.Score, rec.Scale)
	fmt.Fprintf(w, "Category: %s\n", category.Label)
	fmt.Fprintf(w, "Color:    %s\n", category.Color)
	fmt.Fprintf(w, "Advice:   %s\n", strings.Join(airquality.HealthAdvice(category), "; "))
}
