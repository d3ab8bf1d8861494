package reader

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/lvillar/pdftpl/object"
)

// startXRefWindow is how far from the end of the file startxref is looked for.
const startXRefWindow = 1024

// xrefEntry locates one object. Uncompressed objects sit at Offset in the file;
// compressed ones are entry Index of object stream number Stream.
type xrefEntry struct {
	Offset     int64
	Generation int
	InUse      bool

	Compressed bool
	Stream     int
	Index      int
}

// xrefTable maps object numbers to their entries.
type xrefTable map[int]xrefEntry

// fill adds the entries of an older section that t does not define yet.
func (t xrefTable) fill(older xrefTable) {
	for num, e := range older {
		if _, ok := t[num]; !ok {
			t[num] = e
		}
	}
}

var errNoStartXRef = errors.New("reader: startxref not found")

// findStartXRef returns the offset recorded after the last startxref keyword.
func findStartXRef(data []byte) (int64, error) {
	tail := data[max(0, len(data)-startXRefWindow):]
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return 0, errNoStartXRef
	}
	p := newParser(tail[i+len("startxref"):])
	off, err := p.readInt()
	if err != nil {
		return 0, fmt.Errorf("reader: startxref offset: %w", err)
	}
	return off, nil
}

// readXRef follows the chain of cross-reference sections starting at offset.
// Entries of newer sections shadow older ones; the newest trailer is returned.
func readXRef(data []byte, offset int64) (xrefTable, object.Dict, error) {
	table := xrefTable{}
	visited := map[int64]bool{}
	var newest object.Dict

	for next, ok := offset, true; ok; {
		if visited[next] {
			return nil, nil, fmt.Errorf("reader: xref /Prev cycle at offset %d", next)
		}
		visited[next] = true

		section, trailer, err := readSection(data, next)
		switch {
		case err != nil && newest == nil:
			return nil, nil, err
		case err != nil:
			return nil, nil, fmt.Errorf("reader: previous xref: %w", err)
		}
		table.fill(section)
		if newest == nil {
			newest = trailer
		}

		// A hybrid-reference file adds a stream section next to the classic table.
		if stm, has := trailer.GetInt("XRefStm"); has && !visited[stm] {
			visited[stm] = true
			if extra, _, err := readXRefStream(data, stm); err == nil {
				table.fill(extra)
			}
		}

		next, ok = trailer.GetInt("Prev")
	}
	return table, newest, nil
}

// readSection reads the classic table or the xref stream found at offset.
func readSection(data []byte, offset int64) (xrefTable, object.Dict, error) {
	if offset < 0 || offset >= int64(len(data)) {
		return nil, nil, fmt.Errorf("reader: xref offset %d out of bounds", offset)
	}
	p := newParser(data[offset:])
	p.skipWhitespace()
	if p.hasKeyword("xref") {
		p.pos += len("xref")
		return p.readXRefTable()
	}
	return readXRefStream(data, offset)
}

// readInt reads the next token as a decimal integer.
func (p *parser) readInt() (int64, error) {
	tok := p.readToken()
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, p.errorf("expected integer, got %q", tok)
	}
	return n, nil
}

// readXRefTable reads the subsections of a classic table and its trailer.
func (p *parser) readXRefTable() (xrefTable, object.Dict, error) {
	table := xrefTable{}
	for {
		p.skipWhitespace()
		if p.eof() {
			return nil, nil, fmt.Errorf("reader: xref table without trailer")
		}
		if p.hasKeyword("trailer") {
			p.pos += len("trailer")
			break
		}
		if err := p.readSubsection(table); err != nil {
			return nil, nil, fmt.Errorf("reader: xref table: %w", err)
		}
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: trailer dict: %w", err)
	}
	trailer, ok := obj.(object.Dict)
	if !ok {
		return nil, nil, fmt.Errorf("reader: trailer is not a dictionary")
	}
	return table, trailer, nil
}

// readSubsection reads "first count" followed by count "offset gen n|f" lines.
func (p *parser) readSubsection(table xrefTable) error {
	first, err := p.readInt()
	if err != nil {
		return err
	}
	count, err := p.readInt()
	if err != nil {
		return err
	}
	for num := int(first); num < int(first+count); num++ {
		off, err := p.readInt()
		if err != nil {
			return err
		}
		gen, err := p.readInt()
		if err != nil {
			return err
		}
		kind := p.readToken()
		// Within one section the first definition of a number is kept.
		if _, dup := table[num]; !dup {
			table[num] = xrefEntry{Offset: off, Generation: int(gen), InUse: kind == "n"}
		}
	}
	return nil
}

// readXRefStream reads a cross-reference stream object at offset.
func readXRefStream(data []byte, offset int64) (xrefTable, object.Dict, error) {
	if offset < 0 || offset >= int64(len(data)) {
		return nil, nil, fmt.Errorf("reader: xref stream offset %d out of bounds", offset)
	}
	ind, err := newParser(data[offset:]).ParseIndirectObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: xref stream object: %w", err)
	}
	stm, ok := ind.Value.(object.Stream)
	if !ok || stm.Dict.GetName("Type") != "XRef" {
		return nil, nil, fmt.Errorf("reader: no xref table or xref stream at offset %d", offset)
	}
	raw, err := decodeStream(stm)
	if err != nil {
		return nil, nil, fmt.Errorf("reader: decoding xref stream: %w", err)
	}

	widths, err := fieldWidths(stm.Dict.GetArray("W"))
	if err != nil {
		return nil, nil, err
	}
	rows := xrefRows{data: raw, widths: widths}

	table := xrefTable{}
	for _, sub := range subsections(stm.Dict) {
		for num := sub[0]; num < sub[0]+sub[1]; num++ {
			kind, f2, f3, ok := rows.next()
			if !ok {
				return table, stm.Dict, nil
			}
			switch kind {
			case 0:
				table[num] = xrefEntry{Generation: int(f3)}
			case 1:
				table[num] = xrefEntry{Offset: f2, Generation: int(f3), InUse: true}
			case 2:
				table[num] = xrefEntry{InUse: true, Compressed: true, Stream: int(f2), Index: int(f3)}
			}
		}
	}
	return table, stm.Dict, nil
}

func fieldWidths(w object.Array) ([3]int, error) {
	var widths [3]int
	if len(w) != 3 {
		return widths, fmt.Errorf("reader: xref stream /W must have 3 elements")
	}
	for i, v := range w {
		if n, ok := v.(object.Integer); ok && n > 0 {
			widths[i] = int(n)
		}
	}
	if widths[0]+widths[1]+widths[2] == 0 {
		return widths, fmt.Errorf("reader: xref stream /W is all zero")
	}
	return widths, nil
}

// subsections returns the [first count] pairs of /Index, defaulting to [0 Size].
func subsections(dict object.Dict) [][2]int {
	idx := dict.GetArray("Index")
	if idx == nil {
		size, _ := dict.GetInt("Size")
		return [][2]int{{0, int(size)}}
	}
	var out [][2]int
	for i := 0; i+1 < len(idx); i += 2 {
		first, ok1 := idx[i].(object.Integer)
		count, ok2 := idx[i+1].(object.Integer)
		if ok1 && ok2 {
			out = append(out, [2]int{int(first), int(count)})
		}
	}
	return out
}

// xrefRows reads fixed-width big-endian rows of an xref stream.
type xrefRows struct {
	data   []byte
	widths [3]int
	pos    int
}

// next returns the three fields of the next row. A zero-width type field
// defaults to 1 (uncompressed object).
func (r *xrefRows) next() (kind, f2, f3 int64, ok bool) {
	size := r.widths[0] + r.widths[1] + r.widths[2]
	if r.pos+size > len(r.data) {
		return 0, 0, 0, false
	}
	var fields [3]int64
	for i, w := range r.widths {
		for _, b := range r.data[r.pos : r.pos+w] {
			fields[i] = fields[i]<<8 | int64(b)
		}
		r.pos += w
	}
	if r.widths[0] == 0 {
		fields[0] = 1
	}
	return fields[0], fields[1], fields[2], true
}
