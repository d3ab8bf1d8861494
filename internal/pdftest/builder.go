// Package pdftest builds small, hand-written PDF files for tests.
//
// Fixtures are assembled from literal object bodies so tests control exactly which
// objects exist and how they refer to each other. Offsets are recorded while the
// body is written and the cross-reference table is generated from them.
package pdftest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Builder assembles a PDF from numbered object bodies.
type Builder struct {
	Version string
	// Trailer holds extra trailer entries, e.g. "/Encrypt << /Filter /Standard >>".
	Trailer string
	Root    int
	Info    int

	objects map[int]string
}

// New returns a builder for a file with the given header version.
func New(version string) *Builder {
	if version == "" {
		version = "1.4"
	}
	return &Builder{Version: version, objects: make(map[int]string)}
}

// Add sets the body of object num, e.g. "<< /Type /Catalog /Pages 2 0 R >>".
func (b *Builder) Add(num int, body string) *Builder {
	b.objects[num] = body
	return b
}

// AddStream sets object num to a stream with the given dictionary entries (without
// the surrounding << >>) and data. /Length is added.
func (b *Builder) AddStream(num int, entries, data string) *Builder {
	b.objects[num] = fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", entries, len(data), data)
	return b
}

func (b *Builder) numbers() []int {
	nums := make([]int, 0, len(b.objects))
	for n := range b.objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

func (b *Builder) size() int {
	nums := b.numbers()
	if len(nums) == 0 {
		return 1
	}
	return nums[len(nums)-1] + 1
}

func (b *Builder) trailerEntries() string {
	s := fmt.Sprintf("/Size %d /Root %d 0 R", b.size(), b.Root)
	if b.Info != 0 {
		s += fmt.Sprintf(" /Info %d 0 R", b.Info)
	}
	if b.Trailer != "" {
		s += " " + b.Trailer
	}
	return s
}

// Bytes writes the file with a classic cross-reference table. Unused numbers
// below the highest object are listed as free.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.Version)

	offsets := make(map[int]int)
	for _, n := range b.numbers() {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, b.objects[n])
	}

	xref := buf.Len()
	size := b.size()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		if off, ok := offsets[n]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 00000 f \n")
		}
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", b.trailerEntries(), xref)
	return buf.Bytes()
}

// BytesCompressed writes the file with the objects listed in packed stored in an
// object stream numbered objStm, and a cross-reference stream numbered xrefNum.
func (b *Builder) BytesCompressed(objStm, xrefNum int, packed ...int) []byte {
	var header, body bytes.Buffer
	index := make(map[int]int)
	for i, n := range packed {
		index[n] = i
		fmt.Fprintf(&header, "%d %d ", n, body.Len())
		body.WriteString(b.objects[n])
		body.WriteByte('\n')
	}
	stm := header.String() + body.String()
	loose := New(b.Version)
	for n, obj := range b.objects {
		if _, ok := index[n]; !ok {
			loose.objects[n] = obj
		}
	}
	loose.AddStream(objStm, fmt.Sprintf("/Type /ObjStm /N %d /First %d", len(packed), header.Len()), stm)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.Version)
	offsets := make(map[int]int)
	for _, n := range loose.numbers() {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, loose.objects[n])
	}
	offsets[xrefNum] = buf.Len()

	size := max(loose.size(), b.size(), xrefNum+1)
	var entries bytes.Buffer
	for n := 0; n < size; n++ {
		row := make([]byte, 7)
		switch {
		case n == 0:
			row[0] = 0
			binary.BigEndian.PutUint16(row[5:], 65535)
		case offsets[n] != 0:
			row[0] = 1
			binary.BigEndian.PutUint32(row[1:5], uint32(offsets[n]))
		default:
			if i, ok := index[n]; ok {
				row[0] = 2
				binary.BigEndian.PutUint32(row[1:5], uint32(objStm))
				binary.BigEndian.PutUint16(row[5:], uint16(i))
			}
		}
		entries.Write(row)
	}

	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /XRef /W [1 4 2] /Size %d /Root %d 0 R", xrefNum, size, b.Root)
	if b.Info != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", b.Info)
	}
	fmt.Fprintf(&buf, " /Length %d >>\nstream\n", entries.Len())
	buf.Write(entries.Bytes())
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", offsets[xrefNum])
	return buf.Bytes()
}

// WriteFile writes data to name inside a per-test temporary directory and returns
// the path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}
