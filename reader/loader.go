package reader

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/lvillar/pdftpl/object"
)

// loader materializes the objects listed in a cross-reference table.
type loader struct {
	data       []byte
	xref       xrefTable
	objStreams map[int]*objectStream
}

// objectStream is a decoded /Type /ObjStm stream.
type objectStream struct {
	data    []byte
	offsets map[int]int // object number -> offset within data
}

// loadAll parses every in-use object into doc.
func (l *loader) loadAll(doc *Document) error {
	nums := make([]int, 0, len(l.xref))
	for num, entry := range l.xref {
		if num > 0 && entry.InUse {
			nums = append(nums, num)
		}
	}
	sort.Ints(nums)

	for _, num := range nums {
		entry := l.xref[num]
		obj, gen, err := l.load(num, entry)
		if err != nil {
			return fmt.Errorf("reader: object %d: %w", num, err)
		}
		doc.objects[num] = obj
		doc.gens[num] = gen
	}
	return nil
}

func (l *loader) load(num int, entry xrefEntry) (object.Object, int, error) {
	if entry.Compressed {
		obj, err := l.loadCompressed(num, entry)
		return obj, 0, err
	}
	ind, err := l.parseAt(entry.Offset, true)
	if err == nil && ind.Number == num {
		return ind.Value, ind.Generation, nil
	}
	// Stale or wrong offsets are common in hand-edited files; look the object up
	// by its header instead.
	if off, ok := l.scanFor(num, entry.Generation); ok {
		ind, err2 := l.parseAt(off, true)
		if err2 == nil && ind.Number == num {
			return ind.Value, ind.Generation, nil
		}
	}
	if err != nil {
		return nil, 0, err
	}
	return nil, 0, fmt.Errorf("xref points at object %d", ind.Number)
}

// parseAt parses the indirect object starting at offset.
func (l *loader) parseAt(offset int64, resolveLength bool) (*IndirectObject, error) {
	if offset < 0 || int(offset) >= len(l.data) {
		return nil, fmt.Errorf("offset %d out of bounds", offset)
	}
	p := newParser(l.data[offset:])
	if resolveLength {
		p.length = l.lengthOf
	}
	return p.ParseIndirectObject()
}

// scanFor searches the whole file for the "N G obj" header of an object.
func (l *loader) scanFor(num, gen int) (int64, bool) {
	needle := []byte(strconv.Itoa(num) + " " + strconv.Itoa(gen) + " obj")
	from := 0
	found := int64(-1)
	for {
		idx := bytes.Index(l.data[from:], needle)
		if idx < 0 {
			break
		}
		at := from + idx
		if at == 0 || !isRegular(l.data[at-1]) {
			// The last definition wins, as with incremental updates.
			found = int64(at)
		}
		from = at + len(needle)
	}
	return found, found >= 0
}

// lengthOf resolves an indirect stream /Length.
func (l *loader) lengthOf(ref object.Reference) (int, bool) {
	entry, ok := l.xref[ref.Number]
	if !ok || !entry.InUse {
		return 0, false
	}
	var obj object.Object
	if entry.Compressed {
		o, err := l.loadCompressed(ref.Number, entry)
		if err != nil {
			return 0, false
		}
		obj = o
	} else {
		ind, err := l.parseAt(entry.Offset, false)
		if err != nil {
			return 0, false
		}
		obj = ind.Value
	}
	n, ok := obj.(object.Integer)
	return int(n), ok && n >= 0
}

// loadCompressed parses an object stored inside an object stream.
func (l *loader) loadCompressed(num int, entry xrefEntry) (object.Object, error) {
	stm, err := l.objectStream(entry.Stream)
	if err != nil {
		return nil, err
	}
	off, ok := stm.offsets[num]
	if !ok || off >= len(stm.data) {
		return nil, fmt.Errorf("not found in object stream %d", entry.Stream)
	}
	p := newParser(stm.data[off:])
	return p.ParseObject()
}

func (l *loader) objectStream(num int) (*objectStream, error) {
	if stm, ok := l.objStreams[num]; ok {
		return stm, nil
	}
	entry, ok := l.xref[num]
	if !ok || !entry.InUse || entry.Compressed {
		return nil, fmt.Errorf("object stream %d is not a stored object", num)
	}
	ind, err := l.parseAt(entry.Offset, true)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	stream, ok := ind.Value.(object.Stream)
	if !ok || stream.Dict.GetName("Type") != "ObjStm" {
		return nil, fmt.Errorf("object %d is not an object stream", num)
	}
	data, err := decodeStream(stream)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	n, _ := stream.Dict.GetInt("N")
	first, _ := stream.Dict.GetInt("First")
	if first < 0 || int(first) > len(data) {
		return nil, fmt.Errorf("object stream %d: /First out of range", num)
	}

	stm := &objectStream{data: data, offsets: make(map[int]int, n)}
	p := newParser(data[:first])
	for i := int64(0); i < n; i++ {
		objNum, err1 := strconv.Atoi(p.readToken())
		rel, err2 := strconv.Atoi(p.readToken())
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("object stream %d: malformed header", num)
		}
		stm.offsets[objNum] = int(first) + rel
	}
	l.objStreams[num] = stm
	return stm, nil
}
