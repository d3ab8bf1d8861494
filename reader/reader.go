// Package reader parses existing PDF files into an immutable object graph.
//
// A Document materializes every object listed in the cross-reference data when it
// is parsed, so it can be shared by concurrent readers once returned. Encrypted
// documents are rejected with ErrEncrypted; no decryption is attempted.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"sort"
	"strings"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
)

// Sentinel errors returned by Parse.
var (
	ErrNotPDF    = errors.New("reader: not a PDF file")
	ErrEncrypted = errors.New("reader: document is encrypted")
)

// Document represents a parsed PDF document.
type Document struct {
	Version string // PDF version from file header (e.g., "1.7")
	Size    int64  // size in bytes of the parsed input
	trailer object.Dict
	objects map[int]object.Object
	gens    map[int]int
	pages   []*Page
}

// Open opens and parses a PDF file from disk.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reader: opening %s: %w", filename, err)
	}
	return Parse(data)
}

// ReadFrom parses a PDF document from a reader.
// The reader content is read entirely into memory for random access.
func ReadFrom(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reader: reading input: %w", err)
	}
	return Parse(data)
}

// Parse builds a Document from raw PDF bytes.
func Parse(data []byte) (*Document, error) {
	version, ok := parseVersion(data)
	if !ok {
		return nil, ErrNotPDF
	}
	doc := &Document{
		Version: version,
		Size:    int64(len(data)),
		objects: make(map[int]object.Object),
		gens:    make(map[int]int),
	}

	startXRef, err := findStartXRef(data)
	if err != nil {
		return nil, err
	}
	xref, trailer, err := readXRef(data, startXRef)
	if err != nil {
		return nil, err
	}
	doc.trailer = trailer

	if _, ok := trailer["Encrypt"]; ok {
		return nil, ErrEncrypted
	}

	l := &loader{data: data, xref: xref, objStreams: make(map[int]*objectStream)}
	if err := l.loadAll(doc); err != nil {
		return nil, err
	}

	if _, ok := doc.Root(); !ok {
		return nil, fmt.Errorf("reader: missing /Root in trailer")
	}
	if err := doc.buildPageList(); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseVersion extracts the PDF version from the file header (e.g., "%PDF-1.7").
// The header may be preceded by up to 1024 bytes of garbage.
func parseVersion(data []byte) (string, bool) {
	head := data[:min(1024, len(data))]
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return "", false
	}
	end := idx + 5
	for end < len(data) && end < idx+16 && !isWhitespace(data[end]) && data[end] != '%' {
		end++
	}
	return strings.TrimSpace(string(data[idx+5 : end])), true
}

// Trailer returns the trailer dictionary. It must not be modified.
func (d *Document) Trailer() object.Dict {
	return d.trailer
}

// Root returns the catalog reference from the trailer.
func (d *Document) Root() (object.Reference, bool) {
	ref, ok := d.trailer["Root"].(object.Reference)
	return ref, ok
}

// Info returns the document information dictionary reference, if any.
func (d *Document) Info() (object.Reference, bool) {
	ref, ok := d.trailer["Info"].(object.Reference)
	return ref, ok
}

// Resolve returns the object named by ref. References to free or missing
// objects resolve to Null, as the PDF format defines.
func (d *Document) Resolve(ref object.Reference) (object.Object, error) {
	obj, ok := d.objects[ref.Number]
	if !ok {
		return object.Null{}, nil
	}
	return obj, nil
}

// Has reports whether ref names an object that exists in the document.
func (d *Document) Has(ref object.Reference) bool {
	_, ok := d.objects[ref.Number]
	return ok
}

// References returns the references of all objects in ascending object number.
func (d *Document) References() []object.Reference {
	refs := make([]object.Reference, 0, len(d.objects))
	for num := range d.objects {
		refs = append(refs, object.Reference{Number: num, Generation: d.gens[num]})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })
	return refs
}

// Len returns the number of objects in the document.
func (d *Document) Len() int {
	return len(d.objects)
}

// Catalog returns the document catalog dictionary.
func (d *Document) Catalog() (object.Dict, error) {
	ref, ok := d.Root()
	if !ok {
		return nil, fmt.Errorf("reader: missing /Root in trailer")
	}
	obj, err := d.Resolve(ref)
	if err != nil {
		return nil, err
	}
	cat, ok := obj.(object.Dict)
	if !ok {
		return nil, fmt.Errorf("reader: /Root is not a dictionary")
	}
	return cat, nil
}

// PagesRoot returns the reference of the page tree root.
func (d *Document) PagesRoot() (object.Reference, bool) {
	cat, err := d.Catalog()
	if err != nil {
		return object.Reference{}, false
	}
	ref, ok := cat["Pages"].(object.Reference)
	return ref, ok
}

// NumPages returns the total number of pages in the document.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Page returns the page at the given 1-based index.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("reader: page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Pages returns an iterator over all pages. Index is 1-based.
func (d *Document) Pages() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		for i, page := range d.pages {
			if !yield(i+1, page) {
				return
			}
		}
	}
}

// Metadata returns document metadata from the /Info dictionary.
func (d *Document) Metadata() map[string]string {
	meta := make(map[string]string)

	var infoDict object.Dict
	switch v := d.trailer["Info"].(type) {
	case object.Dict:
		infoDict = v
	case object.Reference:
		resolved, err := d.Resolve(v)
		if err != nil {
			return meta
		}
		infoDict, _ = resolved.(object.Dict)
	}

	for _, key := range []object.Name{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"} {
		if v, ok := infoDict[key]; ok {
			if s, ok := v.(object.String); ok {
				meta[string(key)] = decodePDFString(s.Value)
			}
		}
	}
	return meta
}

// buildPageList flattens the page tree into the ordered page list. A catalog
// without a usable /Pages yields a document with no pages.
func (d *Document) buildPageList() error {
	d.pages = nil
	pagesRef, ok := d.PagesRoot()
	if !ok {
		return nil
	}
	if _, ok := d.objects[pagesRef.Number].(object.Dict); !ok {
		return nil
	}

	for ref := range pagetree.Leaves(d, pagesRef) {
		page, err := d.newPage(len(d.pages)+1, ref)
		if err != nil {
			return err
		}
		d.pages = append(d.pages, page)
	}
	return nil
}
