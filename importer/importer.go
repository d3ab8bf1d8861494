// Package importer merges the object graph of an existing PDF into an object store.
//
// Loading a template parses it once per source identity (see Cache). Every import
// then copies the needed part of the parsed graph into the destination store,
// allocating fresh references, and rewrites the copied references so the merged
// graph only points inside the destination store.
package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
	"github.com/lvillar/pdftpl/reader"
	"github.com/lvillar/pdftpl/store"
)

// Importer loads templates and copies their objects into stores.
type Importer struct {
	cache *Cache
	log   logrus.FieldLogger
}

// Option configures an Importer.
type Option func(*Importer)

// WithCache makes the importer share c with other importers.
func WithCache(c *Cache) Option {
	return func(im *Importer) {
		if c != nil {
			im.cache = c
		}
	}
}

// WithLogger sets the logger used for import diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(im *Importer) {
		if l != nil {
			im.log = l
		}
	}
}

// New returns an Importer. Without WithCache it gets a private cache.
func New(opts ...Option) *Importer {
	im := &Importer{}
	for _, opt := range opts {
		opt(im)
	}
	if im.cache == nil {
		im.cache = NewCache(0)
	}
	if im.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		im.log = l
	}
	return im
}

// Cache returns the parse cache used by the importer.
func (im *Importer) Cache() *Cache { return im.cache }

// Template is a parsed template together with its identity.
type Template struct {
	*reader.Document
	Name string
	Key  string
}

// Load returns the parsed graph for src, parsing it only if no importer sharing
// the cache has parsed the same source before.
//
// A source that cannot be opened yields an *ArgumentError before any parsing.
// Bytes that are not a PDF, fail to parse or declare encryption yield a
// *TemplateError.
func (im *Importer) Load(src Source) (*Template, error) {
	res, err := src.resolve()
	if err != nil {
		return nil, err
	}

	doc, hit, err := im.cache.get(res.key, func() (*reader.Document, error) {
		data, err := res.bytes(src.Name())
		if err != nil {
			return nil, err
		}
		data, err = decompress(data)
		if err != nil {
			return nil, &TemplateError{Source: src.Name(), Err: err}
		}
		doc, err := reader.Parse(data)
		if err != nil {
			return nil, &TemplateError{Source: src.Name(), Err: err}
		}
		return doc, nil
	})
	if err != nil {
		var argErr *ArgumentError
		if !errors.As(err, &argErr) {
			im.log.WithFields(logrus.Fields{"template": src.Name(), "error": err}).Warn("template rejected")
		}
		return nil, err
	}

	im.log.WithFields(logrus.Fields{
		"template": src.Name(),
		"cached":   hit,
		"objects":  doc.Len(),
		"pages":    doc.NumPages(),
		"size":     humanize.Bytes(uint64(doc.Size)),
	}).Debug("template loaded")
	return &Template{Document: doc, Name: src.Name(), Key: res.key}, nil
}

// Invalidate removes src from the cache so the next Load parses it again.
func (im *Importer) Invalidate(src Source) error {
	res, err := src.resolve()
	if err != nil {
		return err
	}
	im.cache.Invalidate(res.key)
	return nil
}

// DocumentResult describes a whole-document import.
type DocumentResult struct {
	Mapping Mapping
	Info    object.Reference // zero if the template has no information dictionary
	Root    object.Reference
	Pages   object.Reference   // page tree root in the destination store
	Leaves  []object.Reference // imported leaf pages, in page order
	Dropped int                // references that pointed outside the copied graph
}

// ImportDocument copies every object reachable from the template's information
// dictionary and catalog into dst. The page tree keeps its original shape.
// On failure dst is left as it was.
func (im *Importer) ImportDocument(dst *store.Store, tpl *Template) (*DocumentResult, error) {
	rootRef, ok := tpl.Root()
	if !ok {
		return nil, &TemplateError{Source: tpl.Name, Err: fmt.Errorf("missing catalog")}
	}
	roots := []object.Reference{}
	infoRef, hasInfo := tpl.Info()
	if hasInfo && tpl.Has(infoRef) {
		roots = append(roots, infoRef)
	}
	roots = append(roots, rootRef)

	cp := dst.Checkpoint()
	c := newCopier(tpl.Document, dst)
	for _, ref := range roots {
		c.enqueue(ref)
	}
	c.run()
	dropped, err := c.remap()
	if err != nil {
		dst.Rollback(cp)
		return nil, fmt.Errorf("importer: %s: %w", tpl.Name, err)
	}

	res := &DocumentResult{Mapping: c.mapping, Root: c.mapping[rootRef], Dropped: dropped}
	if hasInfo {
		res.Info = c.mapping[infoRef]
	}
	if srcPages, ok := tpl.PagesRoot(); ok {
		res.Pages = c.mapping[srcPages]
		res.Leaves = pagetree.Collect(dst, res.Pages)
	}

	im.log.WithFields(logrus.Fields{
		"template": tpl.Name,
		"objects":  len(c.mapping),
		"pages":    len(res.Leaves),
		"dropped":  dropped,
	}).Debug("document imported")
	return res, nil
}

// PageResult describes a single-page import.
type PageResult struct {
	Mapping Mapping
	Page    object.Reference // the copied leaf in the destination store
	Source  object.Reference // the leaf in the template
	Index   int              // zero-based page index in the template
	Dropped int
}

// ImportPage copies the leaf page at index (zero-based, negative counts from the
// end) and everything it references into dst. The leaf's /Parent is not followed
// and other page tree nodes are pruned; attributes the leaf inherits from its
// ancestors are copied and declared on the new leaf itself. The new leaf's /Parent
// is removed; the caller attaches it to a page tree.
// On failure dst is left as it was.
func (im *Importer) ImportPage(dst *store.Store, tpl *Template, index int) (*PageResult, error) {
	pagesRef, _ := tpl.PagesRoot()
	leaf, ok := pagetree.ObjectIDForPage(tpl, pagesRef, index)
	if !ok {
		return nil, fmt.Errorf("%w: page %d of %s (%d pages)", ErrPageOutOfRange, index, tpl.Name, tpl.NumPages())
	}
	if index < 0 {
		index += tpl.NumPages()
	}
	leafObj, err := tpl.Resolve(leaf)
	if err != nil {
		return nil, err
	}
	leafDict, ok := leafObj.(object.Dict)
	if !ok {
		return nil, &TemplateError{Source: tpl.Name, Err: fmt.Errorf("page %s is not a dictionary", leaf)}
	}

	// Attributes declared on ancestors only; they become local to the copy.
	inherited := object.Dict{}
	for _, key := range pagetree.InheritableKeys {
		if _, local := leafDict[key]; local {
			continue
		}
		if v := pagetree.InheritedFrom(tpl, leafDict, key); v != nil {
			inherited[key] = v
		}
	}

	cp := dst.Checkpoint()
	c := newCopier(tpl.Document, dst)
	c.skipKey = func(owner object.Reference, key object.Name) bool {
		return owner == leaf && key == "Parent"
	}
	c.prune = func(ref object.Reference, obj object.Object) bool {
		d, ok := obj.(object.Dict)
		if !ok || ref == leaf {
			return false
		}
		t := d.GetName("Type")
		return t == "Page" || t == "Pages"
	}
	c.enqueue(leaf)
	c.enqueueValue(inherited)
	c.run()
	dropped, err := c.remap()
	if err != nil {
		dst.Rollback(cp)
		return nil, fmt.Errorf("importer: %s: %w", tpl.Name, err)
	}

	newLeaf := c.mapping[leaf]
	page, err := dst.Dict(newLeaf)
	if err != nil {
		dst.Rollback(cp)
		return nil, err
	}
	for key, v := range inherited {
		page[key] = remapValue(v, c.mapping, &dropped)
	}
	delete(page, "Parent")

	im.log.WithFields(logrus.Fields{
		"template": tpl.Name,
		"page":     index + 1,
		"objects":  len(c.mapping),
		"dropped":  dropped,
	}).Debug("page imported")
	return &PageResult{Mapping: c.mapping, Page: newLeaf, Source: leaf, Index: index, Dropped: dropped}, nil
}
