package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDirName is the default name for the linemark home directory.
	DefaultDirName = ".linemark"

	// UploadsDirName is the subdirectory for uploaded inputs.
	UploadsDirName = "uploads"

	// OutputsDirName is the subdirectory for annotated outputs and reports.
	OutputsDirName = "outputs"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the linemark home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.linemark).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// UploadsPDFDir returns the directory for uploaded documents.
func (d *Dir) UploadsPDFDir() string {
	return filepath.Join(d.path, UploadsDirName, "pdf")
}

// UploadsXLSXDir returns the directory for uploaded workbooks.
func (d *Dir) UploadsXLSXDir() string {
	return filepath.Join(d.path, UploadsDirName, "xlsx")
}

// OutputsDir returns the directory for annotated documents and reports.
func (d *Dir) OutputsDir() string {
	return filepath.Join(d.path, OutputsDirName)
}

// OutputPDFPath returns the annotated-copy path for an original document
// name: <base>_ann.pdf under the outputs directory.
func (d *Dir) OutputPDFPath(originalName string) string {
	return filepath.Join(d.OutputsDir(), outputBase(originalName)+"_ann.pdf")
}

// ReportPath returns the not-found report path for an original document
// name: <base>_ann.json under the outputs directory.
func (d *Dir) ReportPath(originalName string) string {
	return filepath.Join(d.OutputsDir(), outputBase(originalName)+"_ann.json")
}

func outputBase(originalName string) string {
	base := filepath.Base(originalName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.UploadsPDFDir(), d.UploadsXLSXDir(), d.OutputsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
