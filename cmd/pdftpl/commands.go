package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/lvillar/pdftpl"
	"github.com/lvillar/pdftpl/importer"
	"github.com/lvillar/pdftpl/pageops"
	"github.com/lvillar/pdftpl/reader"
)

type app struct {
	config Config
	log    *logrus.Logger
	cache  *importer.Cache
	ops    *pageops.Processor
}

func newApp(config Config, log *logrus.Logger) *app {
	cache := importer.NewCache(config.CacheEntries)
	return &app{
		config: config,
		log:    log,
		cache:  cache,
		ops: pageops.New(
			pageops.WithCache(cache),
			pageops.WithLogger(log),
			pageops.WithCompression(config.Compress),
			pageops.WithInfo(config.Info),
		),
	}
}

func (a *app) commands() map[string]func([]string) error {
	return map[string]func([]string) error{
		"merge":     a.merge,
		"extract":   a.extract,
		"split":     a.split,
		"rotate":    a.rotate,
		"watermark": a.watermark,
		"number":    a.number,
		"barcode":   a.barcode,
		"info":      a.info,
		"boxes":     a.boxes,
		"fill":      a.fill,
	}
}

// parsePages parses a list such as "1,3,5-7". An empty list yields nil.
func parsePages(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(hi); err != nil || end < start {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func oneInput(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one input file", fs.Name())
	}
	return fs.Arg(0), nil
}

func (a *app) done(op, output string) {
	fields := logrus.Fields{"command": op, "output": output}
	if info, err := os.Stat(output); err == nil {
		fields["size"] = humanize.Bytes(uint64(info.Size()))
	}
	a.log.WithFields(fields).Info("written")
}

func (a *app) merge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	out := fs.String("o", "merged.pdf", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.ops.MergeFiles(*out, fs.Args()...); err != nil {
		return err
	}
	a.done("merge", *out)
	return nil
}

func (a *app) extract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	out := fs.String("o", "extracted.pdf", "output file")
	list := fs.String("pages", "", "pages to extract, e.g. 1,3,5-7")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	pages, err := parsePages(*list)
	if err != nil {
		return err
	}
	if err := a.ops.ExtractPagesToFile(input, *out, pages...); err != nil {
		return err
	}
	a.done("extract", *out)
	return nil
}

func (a *app) split(args []string) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	dir := fs.String("dir", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	if err := a.ops.SplitToFiles(input, *dir); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{"command": "split", "dir": *dir}).Info("written")
	return nil
}

func (a *app) rotate(args []string) error {
	fs := flag.NewFlagSet("rotate", flag.ContinueOnError)
	out := fs.String("o", "rotated.pdf", "output file")
	angle := fs.Int("angle", 90, "rotation in degrees: 90, 180 or 270")
	list := fs.String("pages", "", "pages to rotate (default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	pages, err := parsePages(*list)
	if err != nil {
		return err
	}
	if err := a.ops.RotatePagesToFile(input, *out, *angle, pages); err != nil {
		return err
	}
	a.done("rotate", *out)
	return nil
}

func (a *app) watermark(args []string) error {
	fs := flag.NewFlagSet("watermark", flag.ContinueOnError)
	out := fs.String("o", "watermarked.pdf", "output file")
	text := fs.String("text", "CONFIDENTIAL", "watermark text")
	size := fs.Float64("size", 60, "font size in points")
	opacity := fs.Float64("opacity", 0.3, "opacity between 0 and 1")
	angle := fs.Float64("angle", 45, "rotation in degrees")
	list := fs.String("pages", "", "pages to watermark (default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	pages, err := parsePages(*list)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	wm := pageops.TextWatermark{Text: *text, FontSize: *size, Opacity: *opacity, Angle: *angle}
	if err := a.ops.AddTextWatermarkToPages(f, input, wm, pages); err != nil {
		return err
	}
	a.done("watermark", *out)
	return nil
}

func (a *app) number(args []string) error {
	fs := flag.NewFlagSet("number", flag.ContinueOnError)
	out := fs.String("o", "numbered.pdf", "output file")
	format := fs.String("format", "Page %d of %d", "number format")
	size := fs.Float64("size", 10, "font size in points")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	style := pageops.PageNumberStyle{Format: *format, FontSize: *size, Position: pageops.BottomCenter}
	if err := a.ops.AddPageNumbersToFile(input, *out, style); err != nil {
		return err
	}
	a.done("number", *out)
	return nil
}

var barcodeKinds = map[string]pageops.BarcodeKind{
	"qr":      pageops.QRCode,
	"code128": pageops.Code128,
	"pdf417":  pageops.PDF417,
}

func (a *app) barcode(args []string) error {
	fs := flag.NewFlagSet("barcode", flag.ContinueOnError)
	out := fs.String("o", "stamped.pdf", "output file")
	kind := fs.String("kind", "qr", "qr, code128 or pdf417")
	data := fs.String("data", "", "encoded data")
	x := fs.Float64("x", 36, "left edge in points")
	y := fs.Float64("y", 36, "bottom edge in points")
	width := fs.Float64("w", 72, "width in points")
	height := fs.Float64("h", 0, "height in points (default depends on kind)")
	list := fs.String("pages", "", "pages to stamp (default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	k, ok := barcodeKinds[*kind]
	if !ok {
		return fmt.Errorf("barcode: unknown kind %q", *kind)
	}
	pages, err := parsePages(*list)
	if err != nil {
		return err
	}
	stamp := pageops.BarcodeStamp{Kind: k, Data: *data, X: *x, Y: *y, Width: *width, Height: *height}
	if err := a.ops.StampBarcodeToFile(input, *out, stamp, pages); err != nil {
		return err
	}
	a.done("barcode", *out)
	return nil
}

func (a *app) info(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	doc, err := reader.Open(input)
	if err != nil {
		return err
	}
	fmt.Printf("File:    %s\n", input)
	fmt.Printf("Size:    %s\n", humanize.Bytes(uint64(doc.Size)))
	fmt.Printf("Version: %s\n", doc.Version)
	fmt.Printf("Objects: %d\n", doc.Len())
	fmt.Printf("Pages:   %d\n", doc.NumPages())

	meta := doc.Metadata()
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-8s %s\n", k+":", meta[k])
	}
	return nil
}

func (a *app) boxes(args []string) error {
	fs := flag.NewFlagSet("boxes", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	input, err := oneInput(fs)
	if err != nil {
		return err
	}
	boxes, err := pageops.PageBoxes(input)
	if err != nil {
		return err
	}
	pages := make([]int, 0, len(boxes))
	for p := range boxes {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	for _, p := range pages {
		for _, b := range boxes[p] {
			fmt.Printf("page %d %-9s [%g %g %g %g] %gx%g\n", p, b.Name, b.LLX, b.LLY, b.URX, b.URY, b.Width, b.Height)
		}
	}
	return nil
}

func (a *app) fill(args []string) error {
	fs := flag.NewFlagSet("fill", flag.ContinueOnError)
	tpl := fs.String("template", "", "template PDF (default: blank page)")
	out := fs.String("o", "filled.pdf", "output file")
	page := fs.Int("page", 1, "page receiving the text")
	font := fs.String("font", "Helvetica", "standard font name")
	size := fs.Float64("size", 12, "font size in points")
	x := fs.Float64("x", 72, "left edge of the text in points")
	y := fs.Float64("y", 720, "baseline of the first line in points")
	scaling := fs.Bool("no-print-scaling", false, "ask viewers to print at actual size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []pdftpl.Option{
		pdftpl.WithLogger(a.log),
		pdftpl.WithCache(a.cache),
		pdftpl.WithCompression(a.config.Compress),
		pdftpl.WithPageSize(a.config.PageSize),
		pdftpl.WithInfo(a.config.Info),
	}
	if *tpl != "" {
		opts = append(opts, pdftpl.WithTemplate(*tpl))
	}
	if *scaling {
		opts = append(opts, pdftpl.WithPrintScaling(pdftpl.PrintScalingNone))
	}
	doc, err := pdftpl.NewDocument(opts...)
	if err != nil {
		return err
	}
	if doc.PageCount() == 0 {
		if _, err := doc.StartNewPage(); err != nil {
			return err
		}
	}
	p, err := doc.GoToPage(*page)
	if err != nil {
		return err
	}
	if err := p.SetFont(*font, *size); err != nil {
		return err
	}
	for i, line := range fs.Args() {
		if err := p.Text(*x, *y-float64(i)*(*size)*1.2, line); err != nil {
			return err
		}
	}
	if err := doc.OutputFileAndClose(*out); err != nil {
		return err
	}
	a.done("fill", *out)
	return nil
}
