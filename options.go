package pdftpl

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/lvillar/pdftpl/importer"
)

// Size is a page size in points.
type Size struct {
	W, H float64
}

// Standard page sizes, in points.
var (
	PageSizeA3     = Size{841.89, 1190.55}
	PageSizeA4     = Size{595.28, 841.89}
	PageSizeA5     = Size{419.53, 595.28}
	PageSizeLetter = Size{612, 792}
	PageSizeLegal  = Size{612, 1008}
)

// PageSizes maps size names accepted by WithPageSize to their dimensions.
var PageSizes = map[string]Size{
	"A3":      PageSizeA3,
	"A4":      PageSizeA4,
	"A5":      PageSizeA5,
	"Letter":  PageSizeLetter,
	"Legal":   PageSizeLegal,
	"Tabloid": {792, 1224},
}

// PrintScaling values for WithPrintScaling.
const (
	PrintScalingNone       = "None"
	PrintScalingAppDefault = "AppDefault"
)

// Option is a functional option for configuring a new document via NewDocument.
type Option func(*documentConfig)

type documentConfig struct {
	template     *importer.Source
	info         map[string]string
	printScaling string
	pageSize     Size
	logger       *logrus.Logger
	cache        *importer.Cache
	compress     bool
}

// WithTemplate starts the document from every page of the PDF file at path.
func WithTemplate(path string) Option {
	return func(c *documentConfig) {
		src := importer.FileSource(path)
		c.template = &src
	}
}

// WithTemplateReader starts the document from a PDF read from r. name is used in
// errors and logs only.
func WithTemplateReader(name string, r io.Reader) Option {
	return func(c *documentConfig) {
		src := importer.ReaderSource(name, r)
		c.template = &src
	}
}

// WithInfo sets document information entries such as Title or Author. With a
// template they are merged into the template's information dictionary.
func WithInfo(info map[string]string) Option {
	return func(c *documentConfig) {
		if c.info == nil {
			c.info = make(map[string]string, len(info))
		}
		for k, v := range info {
			c.info[k] = v
		}
	}
}

// WithPrintScaling records the print scaling viewers should offer by default.
// Use PrintScalingNone to request printing at actual size.
func WithPrintScaling(mode string) Option {
	return func(c *documentConfig) {
		c.printScaling = mode
	}
}

// WithPageSize sets the default size of blank pages by name.
// Use "A3", "A4", "A5", "Letter", "Legal" or "Tabloid". Unknown names are ignored.
func WithPageSize(name string) Option {
	return func(c *documentConfig) {
		if size, ok := PageSizes[name]; ok {
			c.pageSize = size
		}
	}
}

// WithPageSizeCustom sets the default size of blank pages in points.
func WithPageSizeCustom(width, height float64) Option {
	return func(c *documentConfig) {
		c.pageSize = Size{W: width, H: height}
	}
}

// WithLogger sets the logger receiving import diagnostics.
func WithLogger(l *logrus.Logger) Option {
	return func(c *documentConfig) {
		c.logger = l
	}
}

// WithCache shares a template parse cache between documents. Without it, each
// document parses its templates into a cache of its own, released with the
// document.
func WithCache(cache *importer.Cache) Option {
	return func(c *documentConfig) {
		c.cache = cache
	}
}

// WithCompression compresses unfiltered streams when the document is written.
func WithCompression(compress bool) Option {
	return func(c *documentConfig) {
		c.compress = compress
	}
}

// PageOption configures a page started with StartNewPage.
type PageOption func(*pageConfig)

type pageConfig struct {
	template *importer.Source
	number   int // 1-based, negative from the end; zero selects the next unused page
	size     Size
}

// FromTemplate imports the page from the PDF file at path.
func FromTemplate(path string) PageOption {
	return func(c *pageConfig) {
		src := importer.FileSource(path)
		c.template = &src
	}
}

// FromTemplateReader imports the page from a PDF read from r.
func FromTemplateReader(name string, r io.Reader) PageOption {
	return func(c *pageConfig) {
		src := importer.ReaderSource(name, r)
		c.template = &src
	}
}

// TemplatePage selects the 1-based template page to import; negative numbers count
// from the last page. Without it, each call for the same template imports the page
// after the one imported last.
func TemplatePage(n int) PageOption {
	return func(c *pageConfig) {
		c.number = n
	}
}

// PageSize sets the size of a blank page in points.
func PageSize(width, height float64) PageOption {
	return func(c *pageConfig) {
		c.size = Size{W: width, H: height}
	}
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
