package pageops

import (
	"fmt"
	"io"

	"github.com/lvillar/pdftpl"
)

// TextWatermark defines a text-based watermark.
type TextWatermark struct {
	Text     string   // watermark text
	FontSize float64  // font size in points (default: 60)
	Color    RGBColor // text color (default: light gray)
	Opacity  float64  // 0.0 to 1.0 (default: 0.3)
	Angle    float64  // rotation angle in degrees (default: 45)
}

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// AddTextWatermark draws wm across every page of inputPath and writes the
// result to w.
func AddTextWatermark(w io.Writer, inputPath string, wm TextWatermark) error {
	return New().AddTextWatermark(w, inputPath, wm)
}

// AddTextWatermark is the package-level AddTextWatermark run with p's settings.
func (p *Processor) AddTextWatermark(w io.Writer, inputPath string, wm TextWatermark) error {
	return built(p.watermark(inputPath, wm, nil)).to(w)
}

// AddTextWatermarkToFile is AddTextWatermark writing to outputPath.
func AddTextWatermarkToFile(inputPath, outputPath string, wm TextWatermark) error {
	return New().AddTextWatermarkToFile(inputPath, outputPath, wm)
}

// AddTextWatermarkToFile is AddTextWatermark writing to outputPath.
func (p *Processor) AddTextWatermarkToFile(inputPath, outputPath string, wm TextWatermark) error {
	return built(p.watermark(inputPath, wm, nil)).toFile(outputPath)
}

// AddTextWatermarkToPages draws wm on the given 1-based pages only; nil pages
// selects every page.
func AddTextWatermarkToPages(w io.Writer, inputPath string, wm TextWatermark, pages []int) error {
	return New().AddTextWatermarkToPages(w, inputPath, wm, pages)
}

// AddTextWatermarkToPages is the package-level AddTextWatermarkToPages run with
// p's settings.
func (p *Processor) AddTextWatermarkToPages(w io.Writer, inputPath string, wm TextWatermark, pages []int) error {
	return built(p.watermark(inputPath, wm, pages)).to(w)
}

// withDefaults fills the zero fields of wm.
func (wm TextWatermark) withDefaults() TextWatermark {
	if wm.FontSize == 0 {
		wm.FontSize = 60
	}
	if wm.Opacity == 0 {
		wm.Opacity = 0.3
	}
	if wm.Angle == 0 {
		wm.Angle = 45
	}
	if wm.Color == (RGBColor{}) {
		wm.Color = RGBColor{200, 200, 200}
	}
	return wm
}

func (p *Processor) watermark(path string, wm TextWatermark, pages []int) (*pdftpl.Document, error) {
	if wm.Text == "" {
		return nil, fmt.Errorf("pageops: watermark text is empty")
	}
	wm = wm.withDefaults()
	return p.rework("watermark", path, pages, func(page *pdftpl.Page, _, _ int) error {
		return drawTextWatermark(page, wm)
	})
}

// drawTextWatermark renders the watermark text centered on the page.
func drawTextWatermark(page *pdftpl.Page, wm TextWatermark) error {
	pageW, pageH, err := page.Dimensions()
	if err != nil {
		return err
	}
	cx := pageW / 2
	cy := pageH / 2

	steps := []func() error{
		page.TransformBegin,
		func() error { return page.SetFont("Helvetica-Bold", wm.FontSize) },
		func() error { return page.SetTextColor(wm.Color.R, wm.Color.G, wm.Color.B) },
		func() error { return page.SetAlpha(wm.Opacity) },
		func() error { return page.TransformRotate(wm.Angle, cx, cy) },
		func() error {
			// Baseline about a third of the font size below the center.
			x := cx - page.StringWidth(wm.Text)/2
			y := cy - wm.FontSize/3
			return page.Text(x, y, wm.Text)
		},
		page.TransformEnd,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// PageNumberStyle defines the appearance and position of page numbers.
type PageNumberStyle struct {
	Format   string   // fmt format receiving the page number and the page count (default: "Page %d of %d")
	Position Position // zero value: Center
	FontSize float64  // default: 10
	Color    RGBColor // default: black
	Margin   float64  // distance from the page edge in points (default: 30)
}

// AddPageNumbers writes a copy of inputPath to w with every page numbered.
func AddPageNumbers(w io.Writer, inputPath string, style PageNumberStyle) error {
	return New().AddPageNumbers(w, inputPath, style)
}

// AddPageNumbers is the package-level AddPageNumbers run with p's settings.
func (p *Processor) AddPageNumbers(w io.Writer, inputPath string, style PageNumberStyle) error {
	return built(p.number(inputPath, style)).to(w)
}

// AddPageNumbersToFile is AddPageNumbers writing to outputPath.
func AddPageNumbersToFile(inputPath, outputPath string, style PageNumberStyle) error {
	return New().AddPageNumbersToFile(inputPath, outputPath, style)
}

// AddPageNumbersToFile is AddPageNumbers writing to outputPath.
func (p *Processor) AddPageNumbersToFile(inputPath, outputPath string, style PageNumberStyle) error {
	return built(p.number(inputPath, style)).toFile(outputPath)
}

func (p *Processor) number(path string, style PageNumberStyle) (*pdftpl.Document, error) {
	if style.Format == "" {
		style.Format = "Page %d of %d"
	}
	if style.FontSize == 0 {
		style.FontSize = 10
	}
	if style.Margin == 0 {
		style.Margin = 30
	}
	return p.rework("page numbers", path, nil, func(page *pdftpl.Page, n, total int) error {
		pw, ph, err := page.Dimensions()
		if err != nil {
			return err
		}
		text := fmt.Sprintf(style.Format, n, total)
		if err := page.SetFont("Helvetica", style.FontSize); err != nil {
			return err
		}
		if err := page.SetTextColor(style.Color.R, style.Color.G, style.Color.B); err != nil {
			return err
		}
		x, y := calculatePosition(style.Position, pw, ph, page.StringWidth(text), style.FontSize, style.Margin)
		return page.Text(x, y, text)
	})
}

// calculatePosition returns the baseline origin for text of width textW and height
// textH, with y measured upward from the bottom edge.
func calculatePosition(pos Position, pageW, pageH, textW, textH, margin float64) (x, y float64) {
	top := pageH - margin - textH
	switch pos {
	case TopLeft:
		return margin, top
	case TopCenter:
		return (pageW - textW) / 2, top
	case TopRight:
		return pageW - textW - margin, top
	case BottomLeft:
		return margin, margin
	case BottomRight:
		return pageW - textW - margin, margin
	case Center:
		return (pageW - textW) / 2, pageH / 2
	default: // BottomCenter
		return (pageW - textW) / 2, margin
	}
}
