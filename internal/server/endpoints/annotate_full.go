package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/annotate"
	"github.com/jackzampolin/linemark/internal/api"
	"github.com/jackzampolin/linemark/internal/search"
	"github.com/jackzampolin/linemark/internal/svcctx"
	"github.com/jackzampolin/linemark/internal/terms"
)

// FullResponse wraps a finished exact-term job.
type FullResponse struct {
	JobID  string         `json:"job_id"`
	Result *search.Result `json:"result"`
}

// AnnotateFullEndpoint handles POST /api/annotate/full. Column labels A-D of
// the uploaded workbook's first sheet become term lists; per-label colors
// can be overridden with color_A..color_D form fields.
type AnnotateFullEndpoint struct{}

var _ api.Endpoint = (*AnnotateFullEndpoint)(nil)

func (e *AnnotateFullEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/annotate/full", e.handler
}

func (e *AnnotateFullEndpoint) RequiresInit() bool { return true }

func (e *AnnotateFullEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	h := svcctx.HomeFrom(r.Context())
	if h == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}
	logger := svcctx.LoggerFrom(r.Context())

	up, err := saveJobUploads(r, h)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := search.Options{
		SpreadsheetPath: up.XLSXPath,
		DocumentPath:    up.PDFPath,
		OutputPath:      h.OutputPDFPath(up.OriginalPDF),
		ReportPath:      h.ReportPath(up.OriginalPDF),
		IgnoreCase:      formBool(r, "ignore_case"),
		WholeWord:       formBool(r, "whole_word"),
		Opacity:         formFloat(r, "opacity", 0),
		LabelColors:     map[string]string{},
	}
	if mgr := svcctx.ConfigManagerFrom(r.Context()); mgr != nil {
		defaults := mgr.Get().Defaults
		opts.Workers = defaults.Workers
		if opts.Opacity == 0 {
			opts.Opacity = defaults.Opacity
		}
		for label, hex := range defaults.FullColors {
			opts.LabelColors[label] = hex
		}
	}
	for _, label := range search.Labels {
		if v := r.FormValue("color_" + label); v != "" {
			opts.LabelColors[label] = strings.TrimPrefix(v, "#")
		}
	}
	if logger != nil {
		opts.Logger = logger.With("job_type", "full", "job_id", up.JobID)
		opts.Logger.Info("job accepted", "xlsx", up.XLSXPath, "pdf", up.PDFPath)
	}

	result, err := search.RunFiles(r.Context(), opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, terms.ErrNoUsableTerms),
			errors.Is(err, annotate.ErrInputNotFound),
			errors.Is(err, search.ErrBadColor):
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	result.Output = up.OutputName
	if result.Report != "" {
		result.Report = up.ReportName
	}

	writeJSON(w, http.StatusOK, FullResponse{JobID: up.JobID, Result: result})
}

func (e *AnnotateFullEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		xlsxPath   string
		pdfPath    string
		ignoreCase bool
		wholeWord  bool
		opacity    float64
		colors     []string
	)
	cmd := &cobra.Command{
		Use:   "full",
		Short: "Run an exact-term job on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			fields := map[string]string{
				"ignore_case": fmt.Sprintf("%t", ignoreCase),
				"whole_word":  fmt.Sprintf("%t", wholeWord),
				"opacity":     fmt.Sprintf("%g", opacity),
			}
			for _, pair := range colors {
				label, hex, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --color %q, want LABEL=RRGGBB", pair)
				}
				fields["color_"+strings.ToUpper(label)] = hex
			}
			files := map[string]string{
				"excel_file": xlsxPath,
				"pdf_file":   pdfPath,
			}
			var resp FullResponse
			if err := client.PostFiles(cmd.Context(), "/api/annotate/full", files, fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Workbook with term columns A-D")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Document to annotate")
	cmd.Flags().BoolVar(&ignoreCase, "ignore-case", true, "Case-insensitive matching")
	cmd.Flags().BoolVar(&wholeWord, "whole-word", false, "Match terms on word boundaries only")
	cmd.Flags().Float64Var(&opacity, "opacity", 0, "Highlight opacity (0 = server default)")
	cmd.Flags().StringArrayVar(&colors, "color", nil, "Per-label color override, e.g. A=FFFF99 (repeatable)")
	_ = cmd.MarkFlagRequired("xlsx")
	_ = cmd.MarkFlagRequired("pdf")
	return cmd
}
