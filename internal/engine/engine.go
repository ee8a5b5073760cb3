// Package engine defines the document engine boundary: the page-level
// operations the matching core needs from a PDF backend, plus the production
// implementation backed by tabula (text/line extraction) and pdfcpu
// (annotation write and save).
package engine

import (
	"context"
	"fmt"

	"github.com/jackzampolin/linemark/internal/colors"
)

// Rect is an axis-aligned bounding box in PDF user-space coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Key returns the rect's dedup identity, rounded to two decimal places to
// absorb floating-point jitter between extractions of the same line.
func (r Rect) Key() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", r.X0, r.Y0, r.X1, r.Y1)
}

// LineRecord is one visually contiguous text line on a page. Records are
// produced fresh per page per scan and never cached across pages.
type LineRecord struct {
	Page int // 1-indexed
	Rect Rect
	Text string
}

// Highlight is one rendered mark: a translucent rectangle over a matched
// line, labeled for the PDF viewer's annotation list.
type Highlight struct {
	Page    int // 1-indexed
	Rect    Rect
	Color   colors.RGB
	Opacity float64
	Label   string
}

// Engine provides read access to a paginated document plus highlight
// rendering and persistence. Lines must be safe to call concurrently from
// independent page tasks; AddHighlight and Save are invoked from a single
// aggregation goroutine.
type Engine interface {
	// PageCount returns the document's page count.
	PageCount(ctx context.Context) (int, error)

	// Lines returns the page's line records in the order the backend
	// produces them.
	Lines(ctx context.Context, page int) ([]LineRecord, error)

	// AddHighlight stages one highlight for rendering.
	AddHighlight(ctx context.Context, h Highlight) error

	// Save writes the document, with all staged highlights applied, to
	// outPath. Called once at job completion.
	Save(ctx context.Context, outPath string) error
}
