// Package pdftpl builds PDF documents from existing PDF templates.
//
// A document starts either blank or from every page of a template file
// (WithTemplate). Further pages may be blank or imported one at a time from any
// template (FromTemplate). Imported pages keep their original appearance: the
// template content is isolated in its own graphics state, so text and shapes
// added afterwards are drawn in the page's default coordinate system.
//
// Example:
//
//	doc, err := pdftpl.NewDocument(pdftpl.WithTemplate("letterhead.pdf"))
//	if err != nil {
//	    return err
//	}
//	page := doc.CurrentPage()
//	page.SetFont("Helvetica", 12)
//	page.Text(72, 700, "Hello")
//	err = doc.OutputFileAndClose("out.pdf")
package pdftpl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/lvillar/pdftpl/importer"
	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
	"github.com/lvillar/pdftpl/store"
	"github.com/lvillar/pdftpl/writer"
)

// ImportedPage records where a page of the document came from.
type ImportedPage struct {
	Source string           // template name
	Key    string           // template identity
	Number int              // 1-based page number in the template
	Origin object.Reference // leaf page in the template
	// Wrapped is set once the template content has been isolated in a save/restore
	// pair; it is applied at most once.
	Wrapped bool
	// KeepParent is set for pages imported with a whole document, whose Parent
	// still points into the imported page tree.
	KeepParent bool
}

// Document is a PDF document under construction.
type Document struct {
	cfg      documentConfig
	log      *logrus.Logger
	store    *store.Store
	importer *importer.Importer
	version  string
	pages    []*Page
	current  *Page
	fonts    map[string]object.Reference // base font name to font dictionary
	cursors  map[string]int              // template identity to next 0-based page
}

// NewDocument creates a document. With WithTemplate the document starts as a copy
// of the template: its information dictionary, catalog, page tree and version are
// kept, and the last template page becomes the current page. Otherwise it starts
// with no pages.
func NewDocument(opts ...Option) (*Document, error) {
	cfg := documentConfig{pageSize: PageSizeA4}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}
	if cfg.cache == nil {
		cfg.cache = importer.NewCache(importer.DefaultCacheEntries)
	}

	d := &Document{
		cfg:     cfg,
		log:     cfg.logger,
		version: writer.DefaultVersion,
		fonts:   make(map[string]object.Reference),
		cursors: make(map[string]int),
	}
	d.importer = importer.New(importer.WithCache(cfg.cache), importer.WithLogger(cfg.logger))

	if cfg.template != nil {
		if err := d.initFromTemplate(*cfg.template); err != nil {
			return nil, newPDFError("NewDocument", err)
		}
	} else {
		d.store = store.New()
	}

	if err := d.applyInfo(); err != nil {
		return nil, newPDFError("NewDocument", err)
	}
	if err := d.applyPrintScaling(); err != nil {
		return nil, newPDFError("NewDocument", err)
	}
	return d, nil
}

func (d *Document) initFromTemplate(src importer.Source) error {
	tpl, err := d.importer.Load(src)
	if err != nil {
		return err
	}
	s := store.NewEmpty()
	res, err := d.importer.ImportDocument(s, tpl)
	if err != nil {
		return err
	}
	s.SetInfo(res.Info)
	s.SetRoot(res.Root)
	s.Complete()
	d.store = s
	if tpl.Version != "" {
		d.version = tpl.Version
	}

	for i, leaf := range res.Leaves {
		d.pages = append(d.pages, &Page{
			doc: d,
			ref: leaf,
			imported: &ImportedPage{
				Source:     tpl.Name,
				Key:        tpl.Key,
				Number:     i + 1,
				KeepParent: true,
			},
		})
	}
	if n := len(d.pages); n > 0 {
		d.current = d.pages[n-1]
	}
	d.cursors[tpl.Key] = len(res.Leaves)

	d.log.WithFields(logrus.Fields{
		"template": tpl.Name,
		"pages":    len(res.Leaves),
		"objects":  s.Len(),
		"version":  d.version,
	}).Info("document started from template")
	return nil
}

func (d *Document) applyInfo() error {
	if len(d.cfg.info) == 0 {
		return nil
	}
	info, err := d.store.InfoDict()
	if err != nil {
		return err
	}
	for k, v := range d.cfg.info {
		info[object.Name(k)] = textString(v)
	}
	return nil
}

func (d *Document) applyPrintScaling() error {
	if d.cfg.printScaling == "" {
		return nil
	}
	cat, err := d.store.Catalog()
	if err != nil {
		return err
	}
	prefs, _ := pagetree.Deref(d.store, cat["ViewerPreferences"]).(object.Dict)
	prefs = prefs.Clone()
	if prefs == nil {
		prefs = object.Dict{}
	}
	prefs["PrintScaling"] = object.Name(d.cfg.printScaling)
	cat["ViewerPreferences"] = prefs
	return nil
}

// Store returns the object store of the document. Objects added to it are
// written with the document.
func (d *Document) Store() *store.Store { return d.store }

// Version returns the PDF version written in the file header.
func (d *Document) Version() string { return d.version }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// Pages returns the pages in document order.
func (d *Document) Pages() []*Page {
	return append([]*Page(nil), d.pages...)
}

// CurrentPage returns the page that receives drawing, or nil.
func (d *Document) CurrentPage() *Page { return d.current }

// GoToPage makes the 1-based page n current.
func (d *Document) GoToPage(n int) (*Page, error) {
	if len(d.pages) == 0 {
		return nil, newPDFError("GoToPage", ErrNoPage)
	}
	if n < 1 || n > len(d.pages) {
		return nil, newPDFError("GoToPage", fmt.Errorf("%w: page %d of %d", ErrInvalidParam, n, len(d.pages)))
	}
	d.current = d.pages[n-1]
	return d.current, nil
}

// StartNewPage appends a page and makes it current. With FromTemplate the page is
// imported from the template; otherwise it is blank.
func (d *Document) StartNewPage(opts ...PageOption) (*Page, error) {
	cfg := pageConfig{size: d.cfg.pageSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		page *Page
		err  error
	)
	if cfg.template != nil {
		page, err = d.importPage(*cfg.template, cfg.number)
	} else {
		page, err = d.blankPage(cfg.size)
	}
	if err != nil {
		return nil, newPDFError("StartNewPage", err)
	}
	d.pages = append(d.pages, page)
	d.current = page
	return page, nil
}

func (d *Document) blankPage(size Size) (*Page, error) {
	if size.W <= 0 || size.H <= 0 {
		return nil, fmt.Errorf("%w: page size %gx%g", ErrInvalidParam, size.W, size.H)
	}
	ref := d.store.Allocate(object.Dict{
		"Type":      object.Name("Page"),
		"MediaBox":  object.Array{object.Integer(0), object.Integer(0), object.Real(size.W), object.Real(size.H)},
		"Resources": object.Dict{},
		"Contents":  object.Array{},
	})
	if err := d.store.AddPage(ref); err != nil {
		return nil, err
	}
	return &Page{doc: d, ref: ref}, nil
}

func (d *Document) importPage(src importer.Source, number int) (*Page, error) {
	tpl, err := d.importer.Load(src)
	if err != nil {
		return nil, err
	}
	var index int
	switch {
	case number > 0:
		index = number - 1
	case number < 0:
		index = number
	default:
		index = d.cursors[tpl.Key]
	}

	cp := d.store.Checkpoint()
	res, err := d.importer.ImportPage(d.store, tpl, index)
	if err != nil {
		return nil, err
	}
	if err := d.store.AddPage(res.Page); err != nil {
		d.store.Rollback(cp)
		return nil, err
	}
	d.cursors[tpl.Key] = res.Index + 1
	if versionLess(d.version, tpl.Version) {
		d.version = tpl.Version
	}

	d.log.WithFields(logrus.Fields{
		"template": tpl.Name,
		"page":     res.Index + 1,
		"objects":  len(res.Mapping),
	}).Debug("page imported")
	return &Page{
		doc: d,
		ref: res.Page,
		imported: &ImportedPage{
			Source: tpl.Name,
			Key:    tpl.Key,
			Number: res.Index + 1,
			Origin: res.Source,
		},
	}, nil
}

func versionLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	return errA == nil && errB == nil && fa < fb
}

// Close terminates the open content stream of every page. Drawing on a page after
// Close starts a new stream.
func (d *Document) Close() error {
	for _, p := range d.pages {
		if err := p.closeContent(); err != nil {
			return newPDFError("Close", err)
		}
	}
	return nil
}

// Output closes open content streams and writes the document to w.
func (d *Document) Output(w io.Writer) error {
	if err := d.Close(); err != nil {
		return err
	}
	opts := writer.Options{Version: d.version, Compress: d.cfg.compress}
	if err := writer.Encode(w, d.store, opts); err != nil {
		return newPDFError("Output", err)
	}
	return nil
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OutputFileAndClose writes the document to the named file.
func (d *Document) OutputFileAndClose(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return newPDFError("OutputFileAndClose", err)
	}
	if err := d.Output(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return newPDFError("OutputFileAndClose", err)
	}
	return nil
}
