package reader

import (
	"fmt"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
)

// Rectangle represents a PDF rectangle (typically [llx lly urx ury]).
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of the rectangle.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of the rectangle.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page represents a single page in a PDF document.
type Page struct {
	Number    int
	Ref       object.Reference // the page dictionary's reference
	MediaBox  Rectangle
	CropBox   *Rectangle
	Resources object.Dict
	Contents  []object.Stream
	Rotate    int
	doc       *Document
}

// ContentStream returns the decompressed content stream data for this page.
// If the page has multiple content streams, they are concatenated.
func (p *Page) ContentStream() ([]byte, error) {
	var result []byte
	for _, s := range p.Contents {
		decoded, err := decodeStream(s)
		if err != nil {
			return nil, fmt.Errorf("reader: decoding page %d content: %w", p.Number, err)
		}
		result = append(result, decoded...)
		result = append(result, '\n')
	}
	return result, nil
}

// ParseRectangle parses a PDF rectangle array [llx lly urx ury].
func ParseRectangle(obj object.Object) (Rectangle, error) {
	arr, ok := obj.(object.Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("reader: rectangle must be a 4-element array")
	}

	var vals [4]float64
	for i, v := range arr {
		n, ok := object.Number(v)
		if !ok {
			return Rectangle{}, fmt.Errorf("reader: rectangle element %d is not numeric", i)
		}
		vals[i] = n
	}
	return Rectangle{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}, nil
}

// newPage builds a Page for the leaf at ref, resolving inherited attributes.
func (d *Document) newPage(number int, ref object.Reference) (*Page, error) {
	obj, err := d.Resolve(ref)
	if err != nil {
		return nil, err
	}
	node, ok := obj.(object.Dict)
	if !ok {
		return nil, fmt.Errorf("reader: page %d is not a dictionary", number)
	}
	page := &Page{Number: number, Ref: ref, doc: d}

	inherited := func(key object.Name) object.Object {
		v, err := pagetree.Inherited(d, ref, key)
		if err != nil || v == nil {
			return nil
		}
		return pagetree.Deref(d, v)
	}

	if mb := inherited("MediaBox"); mb != nil {
		if rect, err := ParseRectangle(mb); err == nil {
			page.MediaBox = rect
		}
	}
	if cb := inherited("CropBox"); cb != nil {
		if rect, err := ParseRectangle(cb); err == nil {
			page.CropBox = &rect
		}
	}
	if res, ok := inherited("Resources").(object.Dict); ok {
		page.Resources = res
	}
	if rot, ok := inherited("Rotate").(object.Integer); ok {
		page.Rotate = int(rot)
	}

	switch c := pagetree.Deref(d, node["Contents"]).(type) {
	case object.Stream:
		page.Contents = []object.Stream{c}
	case object.Array:
		for _, item := range c {
			if s, ok := pagetree.Deref(d, item).(object.Stream); ok {
				page.Contents = append(page.Contents, s)
			}
		}
	}
	return page, nil
}
