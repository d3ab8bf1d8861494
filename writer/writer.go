// Package writer serializes an object store as a complete PDF file.
package writer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/store"
)

// DefaultVersion is written when Options.Version is empty.
const DefaultVersion = "1.7"

// Options control serialization.
type Options struct {
	// Version is the header version, such as "1.4". Templates pass their own.
	Version string
	// Compress applies FlateDecode to streams that carry no filter yet.
	Compress bool
	// Level is the zlib compression level; zero selects the default.
	Level int
}

// Encode writes every object of s in allocation order, followed by a classic
// cross-reference table and a trailer naming the store's catalog and
// information dictionary.
func Encode(w io.Writer, s *store.Store, opts Options) error {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Level == 0 {
		opts.Level = zlib.DefaultCompression
	}
	if _, err := s.Catalog(); err != nil {
		return fmt.Errorf("writer: %w", err)
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	fmt.Fprintf(cw, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", opts.Version)

	size := 0
	for ref := range s.All() {
		if ref.Number > size {
			size = ref.Number
		}
	}
	offsets := make([]int64, size+1)

	var buf bytes.Buffer
	for ref, obj := range s.All() {
		if stm, ok := obj.(object.Stream); ok && opts.Compress {
			var err error
			if obj, err = compress(stm, opts.Level); err != nil {
				return fmt.Errorf("writer: object %s: %w", ref, err)
			}
		}
		buf.Reset()
		fmt.Fprintf(&buf, "%d %d obj\n", ref.Number, ref.Generation)
		appendObject(&buf, obj)
		buf.WriteString("\nendobj\n")

		offsets[ref.Number] = cw.n
		if _, err := cw.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	xrefOffset := cw.n
	fmt.Fprintf(cw, "xref\n0 %d\n", size+1)
	fmt.Fprint(cw, "0000000000 65535 f \n")
	for num := 1; num <= size; num++ {
		if offsets[num] == 0 {
			fmt.Fprint(cw, "0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(cw, "%010d 00000 n \n", offsets[num])
	}

	trailer := object.Dict{
		"Size": object.Integer(size + 1),
		"Root": s.Root(),
	}
	if _, err := s.InfoDict(); err == nil {
		trailer["Info"] = s.Info()
	}
	buf.Reset()
	appendObject(&buf, trailer)
	fmt.Fprintf(cw, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", buf.Bytes(), xrefOffset)

	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}

// Bytes is Encode into a byte slice.
func Bytes(s *store.Store, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compress returns a Flate-encoded copy of stm. Streams that are empty or
// already filtered are returned unchanged.
func compress(stm object.Stream, level int) (object.Stream, error) {
	if len(stm.Data) == 0 {
		return stm, nil
	}
	if _, filtered := stm.Dict["Filter"]; filtered {
		return stm, nil
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return stm, err
	}
	if _, err := zw.Write(stm.Data); err != nil {
		return stm, err
	}
	if err := zw.Close(); err != nil {
		return stm, err
	}
	dict := stm.Dict.Clone()
	if dict == nil {
		dict = object.Dict{}
	}
	dict["Filter"] = object.Name("FlateDecode")
	delete(dict, "DecodeParms")
	return object.Stream{Dict: dict, Data: buf.Bytes()}, nil
}

// countingWriter tracks the byte offset of the output and keeps the first error.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
