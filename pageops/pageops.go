// Package pageops provides operations for manipulating existing PDF documents,
// including merging, splitting, watermarking, rotating and stamping pages.
//
// Every operation builds a new pdftpl document whose pages are imported from the
// input files, so page content, resources and boxes are carried over unchanged
// and anything drawn on top is isolated from the original graphics state.
//
// A Processor carries the settings shared by the operations it runs: the
// template parse cache, the logger, stream compression and the information
// dictionary of the documents it writes. The package-level functions run with a
// fresh Processor each, so nothing is cached between calls.
package pageops

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/lvillar/pdftpl"
	"github.com/lvillar/pdftpl/importer"
)

// Position specifies where to place an element on a page.
type Position int

const (
	Center Position = iota
	TopLeft
	TopCenter
	TopRight
	BottomLeft
	BottomCenter
	BottomRight
)

// Processor runs page operations with shared settings. It is safe for
// concurrent use when its cache is.
type Processor struct {
	cache    *importer.Cache
	log      *logrus.Logger
	compress bool
	info     map[string]string
}

// Option configures a Processor.
type Option func(*Processor)

// WithCache parses input files through cache, so repeated operations on the
// same file parse it once.
func WithCache(cache *importer.Cache) Option {
	return func(p *Processor) {
		if cache != nil {
			p.cache = cache
		}
	}
}

// WithLogger sets the logger of the processor and of the documents it builds.
func WithLogger(l *logrus.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// WithCompression selects whether written streams are Flate-compressed
// (default true).
func WithCompression(compress bool) Option {
	return func(p *Processor) { p.compress = compress }
}

// WithInfo sets entries of the information dictionary of every written document.
func WithInfo(info map[string]string) Option {
	return func(p *Processor) { p.info = info }
}

// New returns a Processor. Without WithCache it owns a private cache.
func New(opts ...Option) *Processor {
	p := &Processor{compress: true}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = importer.NewCache(importer.DefaultCacheEntries)
	}
	if p.log == nil {
		p.log = logrus.New()
		p.log.SetOutput(io.Discard)
	}
	return p
}

// countPages returns the number of pages of the PDF file at path. The parse is
// kept in the cache for the import that follows.
func (p *Processor) countPages(path string) (int, error) {
	im := importer.New(importer.WithCache(p.cache), importer.WithLogger(p.log))
	tpl, err := im.Load(importer.FileSource(path))
	if err != nil {
		return 0, fmt.Errorf("pageops: reading %s: %w", path, err)
	}
	return tpl.NumPages(), nil
}

func (p *Processor) newDocument() (*pdftpl.Document, error) {
	return pdftpl.NewDocument(
		pdftpl.WithCompression(p.compress),
		pdftpl.WithCache(p.cache),
		pdftpl.WithLogger(p.log),
		pdftpl.WithInfo(p.info),
	)
}

// appendPages imports the given 1-based pages of path into doc, in order.
// Negative numbers count from the last page.
func appendPages(doc *pdftpl.Document, path string, nums ...int) ([]*pdftpl.Page, error) {
	out := make([]*pdftpl.Page, 0, len(nums))
	for _, n := range nums {
		if n == 0 {
			return nil, fmt.Errorf("pageops: invalid page number 0")
		}
		page, err := doc.StartNewPage(pdftpl.FromTemplate(path), pdftpl.TemplatePage(n))
		if err != nil {
			return nil, fmt.Errorf("pageops: page %d of %s: %w", n, path, err)
		}
		out = append(out, page)
	}
	return out, nil
}

// span returns the page numbers first..last.
func span(first, last int) []int {
	nums := make([]int, 0, max(0, last-first+1))
	for n := first; n <= last; n++ {
		nums = append(nums, n)
	}
	return nums
}

// pageFunc edits page n of total pages.
type pageFunc func(page *pdftpl.Page, n, total int) error

// rework copies every page of path into a new document and applies fn to the
// selected pages (1-based; nil selects all). op names the operation in errors.
func (p *Processor) rework(op, path string, selected []int, fn pageFunc) (*pdftpl.Document, error) {
	total, err := p.countPages(path)
	if err != nil {
		return nil, err
	}
	doc, err := p.newDocument()
	if err != nil {
		return nil, err
	}
	pages, err := appendPages(doc, path, span(1, total)...)
	if err != nil {
		return nil, fmt.Errorf("pageops: %s: %w", op, err)
	}

	want := func(int) bool { return true }
	if selected != nil {
		set := make(map[int]bool, len(selected))
		for _, n := range selected {
			set[n] = true
		}
		want = func(n int) bool { return set[n] }
	}
	edited := 0
	for i, page := range pages {
		if !want(i + 1) {
			continue
		}
		if err := fn(page, i+1, total); err != nil {
			return nil, fmt.Errorf("pageops: %s: page %d: %w", op, i+1, err)
		}
		edited++
	}
	p.log.WithFields(logrus.Fields{"op": op, "input": path, "pages": total, "edited": edited}).Debug("pages reworked")
	return doc, nil
}

// output is the document built by an operation, or the error that stopped it.
type output struct {
	doc *pdftpl.Document
	err error
}

func built(doc *pdftpl.Document, err error) output { return output{doc, err} }

func (o output) to(w io.Writer) error {
	if o.err != nil {
		return o.err
	}
	return o.doc.Output(w)
}

func (o output) toFile(path string) error {
	if o.err != nil {
		return o.err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pageops: creating %s: %w", path, err)
	}
	if err := o.doc.Output(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
