package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/api"
	"github.com/jackzampolin/linemark/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "linemark",
	Short: "Highlight spreadsheet-driven line matches in PDF documents",
	Long: `Linemark finds lines in a PDF where fragments from a spreadsheet
co-occur and marks them with highlight annotations.

Two modes are available:
  - restricted: each workbook row holds 2-3 fragments that must appear
    together on one line; every sheet gets its own deterministic color
  - full: columns A-D hold exact terms, highlighted with per-column colors

Rows or terms that never match are collected into a not-found report.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.linemark/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "linemark home directory (default: ~/.linemark)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
