package render

import "strings"

// mm is one millimetre in points.
const mm = 72.0 / 25.4

// Font is a core font selection.
type Font struct {
	Family string
	Style  string
	Size   float64
}

// Layout holds the fixed page geometry shared by both rendering modes.
type Layout struct {
	TitleY       float64
	DateY        float64
	BodyTop      float64 // first body line on page one
	PageTop      float64 // first line on every following page
	LineHeight   float64
	BottomMargin float64
	LeftMargin   float64
	Indent       float64
	// PrintableWidth and CharWidthFactor give the wrap width for the body font.
	PrintableWidth  float64
	CharWidthFactor float64

	TitleFont  Font
	DateFont   Font
	HeaderFont Font
	BodyFont   Font
}

// DefaultLayout is A4 with Courier body text.
func DefaultLayout() Layout {
	return Layout{
		TitleY:          800,
		DateY:           780,
		BodyTop:         750,
		PageTop:         800,
		LineHeight:      14,
		BottomMargin:    40,
		LeftMargin:      100,
		Indent:          10,
		PrintableWidth:  170 * mm,
		CharWidthFactor: 0.6,
		TitleFont:       Font{Family: "Courier", Size: 16},
		DateFont:        Font{Family: "Courier", Size: 12},
		HeaderFont:      Font{Family: "Times", Style: "B", Size: 12},
		BodyFont:        Font{Family: "Courier", Size: 10},
	}
}

// WithBodyFont overrides the body font family and size; the wrap width follows.
func (l Layout) WithBodyFont(family string, size float64) Layout {
	if family != "" {
		l.BodyFont.Family = family
	}
	if size > 0 {
		l.BodyFont.Size = size
	}
	return l
}

// WrapWidth is the maximum number of characters per body line.
func (l Layout) WrapWidth() int {
	w := int(l.PrintableWidth / (l.BodyFont.Size * l.CharWidthFactor))
	if w < 1 {
		return 1
	}
	return w
}

// Paginator is the cursor state machine. It starts at BodyTop, moves down one
// LineHeight per line, and opens a new page at PageTop whenever the cursor has
// dropped below BottomMargin. Nothing is ever drawn below BottomMargin.
type Paginator struct {
	canvas Canvas
	layout Layout
	y      float64
	font   Font
}

// NewPaginator positions the cursor at the top of the body on page one.
func NewPaginator(c Canvas, l Layout) *Paginator {
	return &Paginator{canvas: c, layout: l, y: l.BodyTop}
}

// Y returns the cursor position for the next line.
func (p *Paginator) Y() float64 { return p.y }

// SetFont selects the font for the following lines and re-applies it after page breaks.
func (p *Paginator) SetFont(f Font) {
	p.font = f
	p.canvas.SetFont(f.Family, f.Style, f.Size)
}

// Line draws one line at x and advances the cursor.
func (p *Paginator) Line(x float64, text string) {
	if p.y < p.layout.BottomMargin {
		p.canvas.ShowPage()
		p.y = p.layout.PageTop
		if p.font.Family != "" {
			p.canvas.SetFont(p.font.Family, p.font.Style, p.font.Size)
		}
	}
	p.canvas.DrawString(x, p.y, text)
	p.y -= p.layout.LineHeight
}

// Wrap greedily packs the words of text into lines of at most width
// characters. Runs of whitespace collapse to one space and words longer than
// width are split. Blank text yields no lines.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	var cur []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > 0 {
			switch {
			case len(cur) == 0 && len(w) <= width:
				cur = append(cur, w...)
				w = nil
			case len(cur) == 0:
				lines = append(lines, string(w[:width]))
				w = w[width:]
			case len(cur)+1+len(w) <= width:
				cur = append(append(cur, ' '), w...)
				w = nil
			default:
				lines = append(lines, string(cur))
				cur = cur[:0]
			}
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}
