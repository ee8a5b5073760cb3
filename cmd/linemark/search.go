package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/api"
	"github.com/jackzampolin/linemark/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run an exact-term job locally",
	Long: `Annotate a PDF with highlights for every exact term occurrence.

Columns A-D of the workbook's first sheet are labeled term lists; each
term is searched as a literal substring on every line and highlighted
with the label's color. Terms never found are written to a JSON report.

Examples:
  linemark search --xlsx tags.xlsx --pdf drawing.pdf
  linemark search --xlsx tags.xlsx --pdf drawing.pdf --whole-word
  linemark search --xlsx tags.xlsx --pdf drawing.pdf --color A=FFE080 --color B=80D0FF`,
	RunE: func(cmd *cobra.Command, args []string) error {
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		pdfPath, _ := cmd.Flags().GetString("pdf")
		outPath, _ := cmd.Flags().GetString("out")
		reportPath, _ := cmd.Flags().GetString("report")
		ignoreCase, _ := cmd.Flags().GetBool("ignore-case")
		wholeWord, _ := cmd.Flags().GetBool("whole-word")
		opacity, _ := cmd.Flags().GetFloat64("opacity")
		workers, _ := cmd.Flags().GetInt("workers")
		colorPairs, _ := cmd.Flags().GetStringArray("color")

		cfg, err := loadJobConfig()
		if err != nil {
			return err
		}
		defaults := cfg.Defaults
		if !cmd.Flags().Changed("ignore-case") {
			ignoreCase = defaults.IgnoreCase
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

		labelColors := make(map[string]string)
		for label, hex := range defaults.FullColors {
			labelColors[label] = hex
		}
		for _, pair := range colorPairs {
			label, hex, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --color %q, want LABEL=RRGGBB", pair)
			}
			labelColors[strings.ToUpper(label)] = strings.TrimPrefix(hex, "#")
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("job_type", "full")

		result, err := search.RunFiles(cmd.Context(), search.Options{
			SpreadsheetPath: xlsxPath,
			DocumentPath:    pdfPath,
			OutputPath:      outPath,
			ReportPath:      reportPath,
			IgnoreCase:      ignoreCase,
			WholeWord:       wholeWord,
			Opacity:         opacity,
			Workers:         workers,
			LabelColors:     labelColors,
			Logger:          logger,
		})
		if err != nil {
			return err
		}
		return api.Output(result)
	},
}

func init() {
	searchCmd.Flags().String("xlsx", "", "Workbook with term columns A-D")
	searchCmd.Flags().String("pdf", "", "Document to annotate")
	searchCmd.Flags().String("out", "", "Annotated output path (default: <pdf>_ann.pdf)")
	searchCmd.Flags().String("report", "", "Not-found report path (default: <pdf>_ann.json)")
	searchCmd.Flags().Bool("ignore-case", true, "Case-insensitive matching")
	searchCmd.Flags().Bool("whole-word", false, "Match terms on word boundaries only")
	searchCmd.Flags().Float64("opacity", 0.35, "Highlight opacity")
	searchCmd.Flags().Int("workers", 0, "Page scan workers (0 = config default)")
	searchCmd.Flags().StringArray("color", nil, "Per-label color override, e.g. A=FFFF99 (repeatable)")
	_ = searchCmd.MarkFlagRequired("xlsx")
	_ = searchCmd.MarkFlagRequired("pdf")

	rootCmd.AddCommand(searchCmd)
}
