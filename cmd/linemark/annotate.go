package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/annotate"
	"github.com/jackzampolin/linemark/internal/api"
	"github.com/jackzampolin/linemark/internal/config"
)

// loadJobConfig resolves the effective config for one-shot CLI jobs.
func loadJobConfig() (*config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	return mgr.Get(), nil
}

// defaultOutputPath derives <base>_ann<ext> next to the input document.
func defaultOutputPath(pdfPath, ext string) string {
	base := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath))
	return base + "_ann" + ext
}

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Run a restricted co-occurrence job locally",
	Long: `Annotate a PDF with highlights where a workbook row's fragments
co-occur on one line.

Each workbook sheet holds fragment rows: columns A-C of a row must all
appear on a single line for it to match (rows with fewer than two filled
cells are skipped). Every sheet is highlighted in its own deterministic
color. Rows never found anywhere are written to a JSON report.

Examples:
  linemark annotate --xlsx terms.xlsx --pdf drawing.pdf
  linemark annotate --xlsx terms.xlsx --pdf drawing.pdf --require-order
  linemark annotate --xlsx terms.xlsx --pdf drawing.pdf --out marked.pdf --opacity 0.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		pdfPath, _ := cmd.Flags().GetString("pdf")
		outPath, _ := cmd.Flags().GetString("out")
		reportPath, _ := cmd.Flags().GetString("report")
		ignoreCase, _ := cmd.Flags().GetBool("ignore-case")
		requireOrder, _ := cmd.Flags().GetBool("require-order")
		trimCells, _ := cmd.Flags().GetBool("trim")
		opacity, _ := cmd.Flags().GetFloat64("opacity")
		workers, _ := cmd.Flags().GetInt("workers")

		cfg, err := loadJobConfig()
		if err != nil {
			return err
		}
		defaults := cfg.Defaults
		if !cmd.Flags().Changed("ignore-case") {
			ignoreCase = defaults.IgnoreCase
		}
		if !cmd.Flags().Changed("require-order") {
			requireOrder = defaults.RequireOrder
		}
		if !cmd.Flags().Changed("trim") {
			trimCells = defaults.TrimCells
		}
		if !cmd.Flags().Changed("opacity") {
			opacity = defaults.Opacity
		}
		if !cmd.Flags().Changed("workers") {
			workers = defaults.Workers
		}
		if outPath == "" {
			outPath = defaultOutputPath(pdfPath, ".pdf")
		}
		if reportPath == "" {
			reportPath = defaultOutputPath(pdfPath, ".json")
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("job_type", "restricted")

		result, err := annotate.RunFiles(cmd.Context(), annotate.Options{
			SpreadsheetPath: xlsxPath,
			DocumentPath:    pdfPath,
			OutputPath:      outPath,
			ReportPath:      reportPath,
			IgnoreCase:      ignoreCase,
			RequireOrder:    requireOrder,
			TrimCells:       trimCells,
			Opacity:         opacity,
			Workers:         workers,
			Logger:          logger,
		})
		if err != nil {
			return err
		}
		return api.Output(result)
	},
}

func init() {
	annotateCmd.Flags().String("xlsx", "", "Workbook with fragment rows")
	annotateCmd.Flags().String("pdf", "", "Document to annotate")
	annotateCmd.Flags().String("out", "", "Annotated output path (default: <pdf>_ann.pdf)")
	annotateCmd.Flags().String("report", "", "Not-found report path (default: <pdf>_ann.json)")
	annotateCmd.Flags().Bool("ignore-case", true, "Case-insensitive matching")
	annotateCmd.Flags().Bool("require-order", false, "Fragments must appear in column order")
	annotateCmd.Flags().Bool("trim", true, "Trim whitespace around workbook cells")
	annotateCmd.Flags().Float64("opacity", 0.35, "Highlight opacity")
	annotateCmd.Flags().Int("workers", 0, "Page scan workers (0 = config default)")
	_ = annotateCmd.MarkFlagRequired("xlsx")
	_ = annotateCmd.MarkFlagRequired("pdf")

	rootCmd.AddCommand(annotateCmd)
}
