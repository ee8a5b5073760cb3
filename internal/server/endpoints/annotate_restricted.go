package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/annotate"
	"github.com/jackzampolin/linemark/internal/api"
	"github.com/jackzampolin/linemark/internal/svcctx"
	"github.com/jackzampolin/linemark/internal/terms"
)

// RestrictedResponse wraps a finished restricted job.
type RestrictedResponse struct {
	JobID  string              `json:"job_id"`
	Result *annotate.JobResult `json:"result"`
}

// AnnotateRestrictedEndpoint handles POST /api/annotate/restricted with a
// multipart upload of one workbook and one document. The job runs
// synchronously; the response carries the JobResult and the names of the
// files available under /api/outputs/.
type AnnotateRestrictedEndpoint struct{}

var _ api.Endpoint = (*AnnotateRestrictedEndpoint)(nil)

func (e *AnnotateRestrictedEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/annotate/restricted", e.handler
}

func (e *AnnotateRestrictedEndpoint) RequiresInit() bool { return true }

func (e *AnnotateRestrictedEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	opts := annotate.Options{
		SpreadsheetPath: up.XLSXPath,
		DocumentPath:    up.PDFPath,
		OutputPath:      h.OutputPDFPath(up.OriginalPDF),
		ReportPath:      h.ReportPath(up.OriginalPDF),
		IgnoreCase:      formBool(r, "ignore_case"),
		RequireOrder:    formBool(r, "require_order"),
		TrimCells:       true,
		Opacity:         formFloat(r, "opacity", 0),
	}
	if mgr := svcctx.ConfigManagerFrom(r.Context()); mgr != nil {
		defaults := mgr.Get().Defaults
		opts.TrimCells = defaults.TrimCells
		opts.Workers = defaults.Workers
		if opts.Opacity == 0 {
			opts.Opacity = defaults.Opacity
		}
	}
	if logger != nil {
		opts.Logger = logger.With("job_type", "restricted", "job_id", up.JobID)
		opts.Logger.Info("job accepted", "xlsx", up.XLSXPath, "pdf", up.PDFPath)
	}

	result, err := annotate.RunFiles(r.Context(), opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, terms.ErrNoUsableTerms) || errors.Is(err, annotate.ErrInputNotFound) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	result.Output = up.OutputName
	if result.Report != "" {
		result.Report = up.ReportName
	}

	writeJSON(w, http.StatusOK, RestrictedResponse{JobID: up.JobID, Result: result})
}

func (e *AnnotateRestrictedEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		xlsxPath     string
		pdfPath      string
		ignoreCase   bool
		requireOrder bool
		opacity      float64
	)
	cmd := &cobra.Command{
		Use:   "restricted",
		Short: "Run a restricted co-occurrence job on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			fields := map[string]string{
				"ignore_case":   fmt.Sprintf("%t", ignoreCase),
				"require_order": fmt.Sprintf("%t", requireOrder),
				"opacity":       fmt.Sprintf("%g", opacity),
			}
			files := map[string]string{
				"excel_file": xlsxPath,
				"pdf_file":   pdfPath,
			}
			var resp RestrictedResponse
			if err := client.PostFiles(cmd.Context(), "/api/annotate/restricted", files, fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Workbook with fragment rows")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Document to annotate")
	cmd.Flags().BoolVar(&ignoreCase, "ignore-case", true, "Case-insensitive matching")
	cmd.Flags().BoolVar(&requireOrder, "require-order", false, "Fragments must appear in column order")
	cmd.Flags().Float64Var(&opacity, "opacity", 0, "Highlight opacity (0 = server default)")
	_ = cmd.MarkFlagRequired("xlsx")
	_ = cmd.MarkFlagRequired("pdf")
	return cmd
}
