// Package render lays invoices out on A4 pages: structured records as titled
// key/value sections, or raw text line by line. Both modes share Paginator.
package render

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"contractinvoice/internal/domain"
)

const (
	dateFormat = "2006-01-02 15:04:05"
	emptyValue = "-"
)

// Renderer produces finished PDFs in memory; nothing is written on failure.
type Renderer struct {
	layout    Layout
	newCanvas CanvasFactory
	now       func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces time.Now for timestamps and filenames.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithCanvas replaces the fpdf canvas.
func WithCanvas(f CanvasFactory) Option {
	return func(r *Renderer) { r.newCanvas = f }
}

// New creates a Renderer with the given layout.
func New(layout Layout, opts ...Option) *Renderer {
	r := &Renderer{
		layout:    layout,
		newCanvas: NewPDFCanvas,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Filename is invoice_<unix-seconds>_<basename>.pdf.
func Filename(now time.Time, basename string) string {
	return fmt.Sprintf("invoice_%d_%s.pdf", now.Unix(), basename)
}

// Basename strips directories and the extension from an uploaded filename.
func Basename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RenderFromPlainText draws a title, a timestamp, then every line of text
// verbatim. Lines must already fit the page; they are not wrapped.
func (r *Renderer) RenderFromPlainText(text, basename string) (*domain.RenderedInvoice, error) {
	now := r.now()
	c, p := r.begin(now)

	p.SetFont(r.layout.BodyFont)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text != "" {
		for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
			p.Line(r.layout.LeftMargin, line)
		}
	}
	return r.finish(c, now, basename)
}

// RenderFromStructuredRecord draws every section of the record. A record
// missing a whole section fails with *domain.RenderError before anything is drawn.
func (r *Renderer) RenderFromStructuredRecord(record *domain.InvoiceRecord, basename string) (*domain.RenderedInvoice, error) {
	if err := validateRecord(record); err != nil {
		return nil, err
	}
	now := r.now()
	c, p := r.begin(now)

	width := r.layout.WrapWidth()
	for _, s := range sections(record) {
		p.SetFont(r.layout.HeaderFont)
		p.Line(r.layout.LeftMargin, s.title)

		p.SetFont(r.layout.BodyFont)
		for _, row := range s.rows {
			value := strings.TrimSpace(row.value)
			if value == "" {
				value = emptyValue
			}
			x := r.layout.LeftMargin
			if row.indent {
				x += r.layout.Indent
			}
			for _, line := range Wrap(row.label+": "+value, width) {
				p.Line(x, line)
			}
		}
	}
	return r.finish(c, now, basename)
}

func (r *Renderer) begin(now time.Time) (Canvas, *Paginator) {
	c := r.newCanvas(now)
	c.SetFont(r.layout.TitleFont.Family, r.layout.TitleFont.Style, r.layout.TitleFont.Size)
	c.DrawString(r.layout.LeftMargin, r.layout.TitleY, "Invoice")
	c.SetFont(r.layout.DateFont.Family, r.layout.DateFont.Style, r.layout.DateFont.Size)
	c.DrawString(r.layout.LeftMargin, r.layout.DateY, "Date: "+now.Format(dateFormat))
	return c, NewPaginator(c, r.layout)
}

func (r *Renderer) finish(c Canvas, now time.Time, basename string) (*domain.RenderedInvoice, error) {
	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, err
	}
	return &domain.RenderedInvoice{
		Filename:  Filename(now, basename),
		Bytes:     buf.Bytes(),
		Pages:     c.PageCount(),
		CreatedAt: now,
	}, nil
}
