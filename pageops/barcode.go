package pageops

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	pdf417 "github.com/ruudk/golang-pdf417"

	"github.com/lvillar/pdftpl"
)

// BarcodeKind selects the symbology of a stamped barcode.
type BarcodeKind int

const (
	QRCode BarcodeKind = iota
	Code128
	PDF417
)

// pdf417 layout used for stamps.
const (
	pdf417Columns       = 4
	pdf417SecurityLevel = 2
)

// BarcodeStamp describes a barcode drawn on existing pages. X and Y give the
// lower-left corner in points.
type BarcodeStamp struct {
	Kind   BarcodeKind
	Data   string
	X, Y   float64
	Width  float64  // default: 72
	Height float64  // default: Width for QR codes, Width/3 otherwise
	Color  RGBColor // default: black
}

// StampBarcode draws a barcode on the given pages (1-based; nil for all pages)
// and writes the result to w.
func StampBarcode(w io.Writer, inputPath string, stamp BarcodeStamp, pages []int) error {
	return New().StampBarcode(w, inputPath, stamp, pages)
}

// StampBarcode is the package-level StampBarcode run with p's settings.
func (p *Processor) StampBarcode(w io.Writer, inputPath string, stamp BarcodeStamp, pages []int) error {
	return built(p.stampBarcode(inputPath, stamp, pages)).to(w)
}

// StampBarcodeToFile is StampBarcode writing to outputPath.
func StampBarcodeToFile(inputPath, outputPath string, stamp BarcodeStamp, pages []int) error {
	return New().StampBarcodeToFile(inputPath, outputPath, stamp, pages)
}

// StampBarcodeToFile is StampBarcode writing to outputPath.
func (p *Processor) StampBarcodeToFile(inputPath, outputPath string, stamp BarcodeStamp, pages []int) error {
	return built(p.stampBarcode(inputPath, stamp, pages)).toFile(outputPath)
}

func (p *Processor) stampBarcode(path string, stamp BarcodeStamp, pages []int) (*pdftpl.Document, error) {
	if stamp.Width == 0 {
		stamp.Width = 72
	}
	if stamp.Height == 0 {
		stamp.Height = stamp.Width
		if stamp.Kind != QRCode {
			stamp.Height = stamp.Width / 3
		}
	}
	code, err := encodeBarcode(stamp.Kind, stamp.Data)
	if err != nil {
		return nil, err
	}
	return p.rework("barcode", path, pages, func(page *pdftpl.Page, _, _ int) error {
		return drawBarcode(page, code, stamp)
	})
}

// encodeBarcode returns the barcode as an image with one pixel per module.
func encodeBarcode(kind BarcodeKind, data string) (image.Image, error) {
	if data == "" {
		return nil, fmt.Errorf("pageops: barcode data is empty")
	}
	switch kind {
	case QRCode:
		code, err := qr.Encode(data, qr.M, qr.Auto)
		if err != nil {
			return nil, fmt.Errorf("pageops: qr: %w", err)
		}
		return code, nil
	case Code128:
		code, err := code128.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("pageops: code128: %w", err)
		}
		return code, nil
	case PDF417:
		return pdf417.Encode(data, pdf417Columns, pdf417SecurityLevel), nil
	}
	return nil, fmt.Errorf("pageops: unknown barcode kind %d", kind)
}

// drawBarcode fills one rectangle per horizontal run of dark modules, scaling the
// image to the stamp size. Image rows go downward, page coordinates upward.
func drawBarcode(page *pdftpl.Page, code image.Image, stamp BarcodeStamp) error {
	b := code.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fmt.Errorf("pageops: empty barcode")
	}
	mw := stamp.Width / float64(b.Dx())
	mh := stamp.Height / float64(b.Dy())

	if err := page.TransformBegin(); err != nil {
		return err
	}
	if err := page.SetFillColor(stamp.Color.R, stamp.Color.G, stamp.Color.B); err != nil {
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := float64(b.Max.Y - 1 - y)
		for x := b.Min.X; x < b.Max.X; {
			if !isDark(code.At(x, y)) {
				x++
				continue
			}
			start := x
			for x < b.Max.X && isDark(code.At(x, y)) {
				x++
			}
			rx := stamp.X + float64(start-b.Min.X)*mw
			ry := stamp.Y + row*mh
			if err := page.Rect(rx, ry, float64(x-start)*mw, mh, "F"); err != nil {
				return err
			}
		}
	}
	return page.TransformEnd()
}

func isDark(c color.Color) bool {
	gray := color.GrayModel.Convert(c).(color.Gray)
	return gray.Y < 128
}
