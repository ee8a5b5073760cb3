package endpoints

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/linemark/internal/home"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing.
const maxUploadMemory = 500 << 20 // 500MB

var (
	allowedPDF   = map[string]bool{".pdf": true}
	allowedExcel = map[string]bool{".xlsx": true, ".xls": true}
)

func extAllowed(filename string, allow map[string]bool) bool {
	return allow[strings.ToLower(filepath.Ext(filename))]
}

// newJobID builds a job identifier of the form <unix-seconds>_<8 hex chars>.
func newJobID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%d_%s", time.Now().Unix(), hex[:8])
}

// secureName reduces an uploaded filename to a safe basename: path
// components are stripped and anything outside [A-Za-z0-9._-] becomes '_'.
func secureName(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" || s == "." || s == ".." {
		return "upload"
	}
	return s
}

// jobUploads are the saved input files of one upload request.
type jobUploads struct {
	JobID        string
	XLSXPath     string
	PDFPath      string
	OriginalPDF  string // sanitized original document name, drives output naming
	OutputName   string
	ReportName   string
}

// saveJobUploads validates and persists the excel_file and pdf_file parts of
// a multipart request under the home upload directories, prefixed with a
// fresh job id.
func saveJobUploads(r *http.Request, h *home.Dir) (*jobUploads, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	excel, excelHeader, err := r.FormFile("excel_file")
	if err != nil {
		return nil, fmt.Errorf("excel_file is required")
	}
	defer excel.Close()

	pdf, pdfHeader, err := r.FormFile("pdf_file")
	if err != nil {
		return nil, fmt.Errorf("pdf_file is required")
	}
	defer pdf.Close()

	if !extAllowed(excelHeader.Filename, allowedExcel) {
		return nil, fmt.Errorf("excel_file must be .xlsx or .xls")
	}
	if !extAllowed(pdfHeader.Filename, allowedPDF) {
		return nil, fmt.Errorf("pdf_file must be .pdf")
	}

	jobID := newJobID()
	origPDF := secureName(pdfHeader.Filename)

	xlsxPath := filepath.Join(h.UploadsXLSXDir(), jobID+"_"+secureName(excelHeader.Filename))
	pdfPath := filepath.Join(h.UploadsPDFDir(), jobID+"_"+origPDF)

	if err := savePart(excel, xlsxPath); err != nil {
		return nil, err
	}
	if err := savePart(pdf, pdfPath); err != nil {
		os.Remove(xlsxPath)
		return nil, err
	}

	return &jobUploads{
		JobID:       jobID,
		XLSXPath:    xlsxPath,
		PDFPath:     pdfPath,
		OriginalPDF: origPDF,
		OutputName:  filepath.Base(h.OutputPDFPath(origPDF)),
		ReportName:  filepath.Base(h.ReportPath(origPDF)),
	}, nil
}

func savePart(src multipart.File, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("failed to save %s: %w", dest, err)
	}
	return nil
}

// formBool reads a checkbox-style form value; "on", "true" and "1" count.
func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "on", "true", "1":
		return true
	}
	return false
}

// formFloat reads a float form value, falling back when absent or invalid.
func formFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.FormValue(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
