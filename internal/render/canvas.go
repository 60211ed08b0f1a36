package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Canvas is the drawing surface. Coordinates are PDF points with the origin
// at the bottom-left corner of the page, y growing upwards.
type Canvas interface {
	SetFont(family, style string, size float64)
	DrawString(x, y float64, text string)
	// ShowPage ends the current page and starts a blank one.
	ShowPage()
	PageCount() int
	Output(w io.Writer) error
}

// CanvasFactory creates a fresh canvas holding one blank page.
type CanvasFactory func(created time.Time) Canvas

// coreFold spells the Romanian letters cp1252 has no code point for with
// their base letter. â and î exist in cp1252 and are left alone.
var coreFold = strings.NewReplacer(
	"ă", "a", "Ă", "A",
	"ș", "s", "Ș", "S", "ş", "s", "Ş", "S",
	"ț", "t", "Ț", "T", "ţ", "t", "Ţ", "T",
)

type fpdfCanvas struct {
	pdf        *fpdf.Fpdf
	pageHeight float64
	tr         func(string) string
}

// NewPDFCanvas returns an A4 canvas backed by go-pdf/fpdf using core fonts.
func NewPDFCanvas(created time.Time) Canvas {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle("Invoice", true)
	pdf.SetCreator("contractinvoice", true)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.AddPage()
	_, h := pdf.GetPageSize()
	return &fpdfCanvas{
		pdf:        pdf,
		pageHeight: h,
		// core fonts are cp1252
		tr: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *fpdfCanvas) SetFont(family, style string, size float64) {
	c.pdf.SetFont(family, style, size)
}

func (c *fpdfCanvas) DrawString(x, y float64, text string) {
	c.pdf.Text(x, c.pageHeight-y, c.encode(text))
}

func (c *fpdfCanvas) encode(text string) string {
	return c.tr(coreFold.Replace(text))
}

func (c *fpdfCanvas) ShowPage() {
	c.pdf.AddPage()
}

func (c *fpdfCanvas) PageCount() int {
	return c.pdf.PageCount()
}

func (c *fpdfCanvas) Output(w io.Writer) error {
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("building pdf: %w", err)
	}
	return c.pdf.Output(w)
}
