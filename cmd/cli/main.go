package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clearday",
	Short: "ClearDay operator tools",
	Long: `Offline helpers for the ClearDay service: air quality and symptom
index calculations, calendar rendering from month exports and development tokens.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
