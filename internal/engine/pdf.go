package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcolor "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/tsawler/tabula"
)

// PDF is the production Engine over a PDF file on disk.
//
// Reads never share state: every Lines call opens its own tabula extractor
// (and file handle), so concurrent page tasks are isolated. Highlights are
// staged in memory and applied in a single pdfcpu pass at Save time, keeping
// document mutation out of the scan path entirely.
type PDF struct {
	path      string
	conf      *model.Configuration
	pageCount int

	mu      sync.Mutex
	pending map[int][]model.AnnotationRenderer
}

// OpenPDF validates the document and discovers its page count.
func OpenPDF(path string) (*PDF, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, conf)
	if err != nil {
		return nil, fmt.Errorf("reading page count for %s: %w", path, err)
	}

	return &PDF{
		path:      path,
		conf:      conf,
		pageCount: pageCount,
		pending:   make(map[int][]model.AnnotationRenderer),
	}, nil
}

// Path returns the source document path.
func (p *PDF) Path() string {
	return p.path
}

// PageCount returns the page count discovered at open time.
func (p *PDF) PageCount(ctx context.Context) (int, error) {
	return p.pageCount, nil
}

// Lines extracts the page's text lines with their bounding boxes.
func (p *PDF) Lines(ctx context.Context, page int) ([]LineRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 || page > p.pageCount {
		return nil, fmt.Errorf("page %d out of range (1-%d)", page, p.pageCount)
	}

	lines, err := tabula.Open(p.path).Pages(page).Lines()
	if err != nil {
		return nil, fmt.Errorf("extracting lines from page %d: %w", page, err)
	}

	records := make([]LineRecord, 0, len(lines))
	for _, ln := range lines {
		records = append(records, LineRecord{
			Page: page,
			Rect: Rect{
				X0: ln.BBox.Left(),
				Y0: ln.BBox.Bottom(),
				X1: ln.BBox.Right(),
				Y1: ln.BBox.Top(),
			},
			Text: ln.Text,
		})
	}
	return records, nil
}

// AddHighlight stages a highlight annotation for the given page.
func (p *PDF) AddHighlight(ctx context.Context, h Highlight) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.Page < 1 || h.Page > p.pageCount {
		return fmt.Errorf("page %d out of range (1-%d)", h.Page, p.pageCount)
	}

	col := pdfcolor.SimpleColor{
		R: float32(h.Color.R) / 255,
		G: float32(h.Color.G) / 255,
		B: float32(h.Color.B) / 255,
	}
	ca := h.Opacity
	r := types.NewRectangle(h.Rect.X0, h.Rect.Y0, h.Rect.X1, h.Rect.Y1)
	ql := types.NewQuadLiteralForRect(r)

	ann := model.NewHighlightAnnotation(
		*r,
		0,
		h.Label,
		"",
		types.DateString(time.Now()),
		0,
		&col,
		0,
		0,
		0,
		"linemark",
		nil,
		&ca,
		"",
		"",
		types.QuadPoints{*ql},
	)

	p.mu.Lock()
	p.pending[h.Page] = append(p.pending[h.Page], ann)
	p.mu.Unlock()
	return nil
}

// Save writes the annotated document to outPath. With no staged highlights
// the source bytes are copied through unchanged, so a best-effort output
// exists even for a job with zero matches.
func (p *PDF) Save(ctx context.Context, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	pending := p.pending
	p.mu.Unlock()

	if len(pending) == 0 {
		return copyFile(p.path, outPath)
	}

	if err := api.AddAnnotationsMapFile(p.path, outPath, pending, p.conf, false); err != nil {
		return fmt.Errorf("writing annotated document: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source document: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating output document: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying document: %w", err)
	}
	return out.Close()
}
