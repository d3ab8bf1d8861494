package pdftpl

import (
	"fmt"
	"math"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
	"github.com/lvillar/pdftpl/reader"
	"github.com/lvillar/pdftpl/splice"
	"github.com/lvillar/pdftpl/writer"
)

// Page is a page of a Document. Coordinates are in points in the default PDF user
// space, with the origin at the lower-left corner of the media box.
type Page struct {
	doc      *Document
	ref      object.Reference
	imported *ImportedPage
	content  *splice.Writer

	font     object.Name // resource name of the current font
	fontSize float64
	gstates  map[float64]object.Name
}

// Ref returns the page object reference in the document store.
func (p *Page) Ref() object.Reference { return p.ref }

// Imported returns the import record of the page, or nil for a blank page.
func (p *Page) Imported() *ImportedPage { return p.imported }

// Content returns the writable content stream of the page, opening one if needed.
// The first call on an imported page isolates the template content first.
func (p *Page) Content() (*splice.Writer, error) {
	if p.content != nil && !p.content.Closed() {
		return p.content, nil
	}
	s := p.doc.store
	if p.imported != nil && !p.imported.Wrapped {
		if _, err := splice.Isolate(s, p.ref); err != nil {
			return nil, newPDFError("Content", err)
		}
		p.imported.Wrapped = true
	}
	w, err := splice.Open(s, p.ref)
	if err != nil {
		return nil, newPDFError("Content", err)
	}
	p.content = w
	return w, nil
}

func (p *Page) closeContent() error {
	if p.content == nil {
		return nil
	}
	return p.content.Close()
}

func (p *Page) dict() (object.Dict, error) {
	return p.doc.store.Dict(p.ref)
}

func (p *Page) printf(op, format string, args ...any) error {
	w, err := p.Content()
	if err != nil {
		return err
	}
	if err := w.Printf(format, args...); err != nil {
		return newPDFError(op, err)
	}
	return nil
}

// Dimensions returns the width and height of the page media box, following
// inheritance and indirect references.
func (p *Page) Dimensions() (w, h float64, err error) {
	box, err := p.Box("MediaBox")
	if err != nil {
		return 0, 0, newPDFError("Dimensions", err)
	}
	return box.Width(), box.Height(), nil
}

// Box returns the named page box ("MediaBox", "CropBox"...). An absent CropBox
// defaults to the media box.
func (p *Page) Box(name object.Name) (reader.Rectangle, error) {
	s := p.doc.store
	v, err := pagetree.Inherited(s, p.ref, name)
	if err != nil {
		return reader.Rectangle{}, err
	}
	if v == nil {
		if name != "MediaBox" {
			return p.Box("MediaBox")
		}
		return reader.Rectangle{}, fmt.Errorf("page %s has no media box", p.ref)
	}
	return reader.ParseRectangle(pagetree.Deref(s, v))
}

// Rotation returns the page rotation in degrees, normalized to 0, 90, 180 or 270.
func (p *Page) Rotation() int {
	v, err := pagetree.Inherited(p.doc.store, p.ref, "Rotate")
	if err != nil {
		return 0
	}
	n, _ := object.Number(pagetree.Deref(p.doc.store, v))
	return normalizeRotation(int(n))
}

// SetRotation sets the page rotation; angle must be a multiple of 90.
func (p *Page) SetRotation(angle int) error {
	if angle%90 != 0 {
		return newPDFError("SetRotation", fmt.Errorf("%w: rotation %d", ErrInvalidParam, angle))
	}
	d, err := p.dict()
	if err != nil {
		return newPDFError("SetRotation", err)
	}
	d["Rotate"] = object.Integer(normalizeRotation(angle))
	return nil
}

func normalizeRotation(rot int) int {
	rot %= 360
	if rot < 0 {
		rot += 360
	}
	if rot%90 != 0 {
		return 0
	}
	return rot
}

// resources returns the page resource dictionary, making it local to the page
// first: inherited or indirect resources are copied onto the page, so adding an
// entry never changes another page. Existing entries are kept.
func (p *Page) resources() (object.Dict, error) {
	s := p.doc.store
	d, err := p.dict()
	if err != nil {
		return nil, err
	}
	if res, ok := d["Resources"].(object.Dict); ok {
		return res, nil
	}
	v, err := pagetree.Inherited(s, p.ref, "Resources")
	if err != nil {
		return nil, err
	}
	shared, _ := pagetree.Deref(s, v).(object.Dict)
	// Category dictionaries embedded in the shared object are copied too.
	res := make(object.Dict, len(shared))
	for k, v := range shared {
		if sub, ok := v.(object.Dict); ok {
			v = sub.Clone()
		}
		res[k] = v
	}
	d["Resources"] = res
	return res, nil
}

// subResources returns the resource category dictionary (Font, ExtGState...)
// made local in the same way.
func (p *Page) subResources(category object.Name) (object.Dict, error) {
	res, err := p.resources()
	if err != nil {
		return nil, err
	}
	if sub, ok := res[category].(object.Dict); ok {
		return sub, nil
	}
	sub, _ := pagetree.Deref(p.doc.store, res[category]).(object.Dict)
	sub = sub.Clone()
	if sub == nil {
		sub = object.Dict{}
	}
	res[category] = sub
	return sub, nil
}

// uniqueName returns prefix followed by the lowest number not used in d.
func uniqueName(d object.Dict, prefix string) object.Name {
	for i := 1; ; i++ {
		name := object.Name(fmt.Sprintf("%s%d", prefix, i))
		if _, taken := d[name]; !taken {
			return name
		}
	}
}

// AddFont adds one of the standard Type 1 fonts, such as "Helvetica" or
// "Times-Bold", to the page resources and returns its resource name. Fonts
// already on the page are kept.
func (p *Page) AddFont(baseFont string) (object.Name, error) {
	fonts, err := p.subResources("Font")
	if err != nil {
		return "", newPDFError("AddFont", err)
	}
	ref := p.doc.fontRef(baseFont)
	for _, name := range fonts.Keys() {
		if fonts[name] == ref {
			return name, nil
		}
	}
	name := uniqueName(fonts, "F")
	fonts[name] = ref
	return name, nil
}

func (d *Document) fontRef(baseFont string) object.Reference {
	if ref, ok := d.fonts[baseFont]; ok {
		return ref
	}
	font := object.Dict{
		"Type":     object.Name("Font"),
		"Subtype":  object.Name("Type1"),
		"BaseFont": object.Name(baseFont),
	}
	if baseFont != "Symbol" && baseFont != "ZapfDingbats" {
		font["Encoding"] = object.Name("WinAnsiEncoding")
	}
	ref := d.store.Allocate(font)
	d.fonts[baseFont] = ref
	return ref
}

// AddExtGState adds a graphics state parameter dictionary setting the fill and
// stroke opacity to alpha and returns its resource name.
func (p *Page) AddExtGState(alpha float64) (object.Name, error) {
	if alpha < 0 || alpha > 1 {
		return "", newPDFError("AddExtGState", fmt.Errorf("%w: alpha %g", ErrInvalidParam, alpha))
	}
	if name, ok := p.gstates[alpha]; ok {
		return name, nil
	}
	states, err := p.subResources("ExtGState")
	if err != nil {
		return "", newPDFError("AddExtGState", err)
	}
	ref := p.doc.store.Allocate(object.Dict{
		"Type": object.Name("ExtGState"),
		"ca":   object.Real(alpha),
		"CA":   object.Real(alpha),
	})
	name := uniqueName(states, "GS")
	states[name] = ref
	if p.gstates == nil {
		p.gstates = make(map[float64]object.Name)
	}
	p.gstates[alpha] = name
	return name, nil
}

// SetFont selects a standard font for subsequent Text calls.
func (p *Page) SetFont(baseFont string, size float64) error {
	if size <= 0 {
		return newPDFError("SetFont", fmt.Errorf("%w: font size %g", ErrInvalidParam, size))
	}
	name, err := p.AddFont(baseFont)
	if err != nil {
		return err
	}
	p.font, p.fontSize = name, size
	return nil
}

// Text draws s with its baseline starting at (x, y) in the current font.
func (p *Page) Text(x, y float64, s string) error {
	if p.font == "" {
		return newPDFError("Text", ErrNoFont)
	}
	str := writer.Serialize(object.String{Value: toWinAnsi(s)})
	return p.printf("Text", "BT /%s %s Tf %s %s Td %s Tj ET",
		p.font, num(p.fontSize), num(x), num(y), str)
}

// SetTextColor sets the fill color used by Text, with components 0-255.
func (p *Page) SetTextColor(r, g, b int) error {
	return p.SetFillColor(r, g, b)
}

// SetFillColor sets the nonstroking color, with components 0-255.
func (p *Page) SetFillColor(r, g, b int) error {
	return p.printf("SetFillColor", "%s %s %s rg", color(r), color(g), color(b))
}

// SetDrawColor sets the stroking color, with components 0-255.
func (p *Page) SetDrawColor(r, g, b int) error {
	return p.printf("SetDrawColor", "%s %s %s RG", color(r), color(g), color(b))
}

// SetAlpha sets the fill and stroke opacity for subsequent drawing.
func (p *Page) SetAlpha(alpha float64) error {
	name, err := p.AddExtGState(alpha)
	if err != nil {
		return err
	}
	return p.printf("SetAlpha", "/%s gs", name)
}

// Rect outlines and/or fills a rectangle with its lower-left corner at (x, y).
// style is "D" (outline, the default), "F" (fill) or "DF"/"FD" (both).
func (p *Page) Rect(x, y, w, h float64, style string) error {
	var op string
	switch style {
	case "", "D":
		op = "S"
	case "F":
		op = "f"
	case "DF", "FD":
		op = "B"
	default:
		return newPDFError("Rect", fmt.Errorf("%w: style %q", ErrInvalidParam, style))
	}
	return p.printf("Rect", "%s %s %s %s re %s", num(x), num(y), num(w), num(h), op)
}

// TransformBegin saves the graphics state before a transformation.
func (p *Page) TransformBegin() error {
	return p.printf("TransformBegin", "q")
}

// TransformEnd restores the graphics state saved by TransformBegin.
func (p *Page) TransformEnd() error {
	return p.printf("TransformEnd", "Q")
}

// TransformRotate rotates the coordinate system counterclockwise by angle degrees
// around (x, y).
func (p *Page) TransformRotate(angle, x, y float64) error {
	rad := angle * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	tx := x - c*x + s*y
	ty := y - s*x - c*y
	return p.printf("TransformRotate", "%s %s %s %s %s %s cm",
		num(c), num(s), num(-s), num(c), num(tx), num(ty))
}

// TransformTranslate moves the origin by (tx, ty).
func (p *Page) TransformTranslate(tx, ty float64) error {
	return p.printf("TransformTranslate", "1 0 0 1 %s %s cm", num(tx), num(ty))
}

// StringWidth returns the width of s in the current font, in points.
func (p *Page) StringWidth(s string) float64 {
	return StringWidth(s, p.fontSize)
}

func num(f float64) string { return writer.FormatReal(f) }

func color(c int) string {
	c = max(0, min(255, c))
	return writer.FormatReal(float64(c) / 255)
}
