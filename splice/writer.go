package splice

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/store"
)

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("splice: write to closed content stream")

// Writer appends instructions to a content stream of a page. The stream is
// created by Open and kept up to date in the store after every write, so the
// store always holds what was written so far.
type Writer struct {
	store  *store.Store
	ref    object.Reference
	buf    bytes.Buffer
	opened bool
	closed bool
}

// Open appends a fresh, empty stream to the page's /Contents and returns a writer
// for it. The first write is preceded by "q"; Close then appends the matching "Q".
func Open(s *store.Store, page object.Reference) (*Writer, error) {
	contents, err := Normalize(s, page)
	if err != nil {
		return nil, err
	}
	dict, err := s.Dict(page)
	if err != nil {
		return nil, fmt.Errorf("splice: %w", err)
	}
	ref := s.Allocate(newStream(nil))
	dict["Contents"] = append(contents, ref)
	return &Writer{store: s, ref: ref}, nil
}

// Ref returns the reference of the stream being written.
func (w *Writer) Ref() object.Reference { return w.ref }

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if !w.opened {
		w.buf.WriteString("q\n")
		w.opened = true
	}
	w.buf.Write(p)
	return len(p), w.flush()
}

// Printf formats an instruction and appends it followed by a newline.
func (w *Writer) Printf(format string, args ...any) error {
	_, err := w.Write([]byte(fmt.Sprintf(format, args...) + "\n"))
	return err
}

// Len returns the number of bytes written so far, including the opening "q".
func (w *Writer) Len() int { return w.buf.Len() }

// Closed reports whether Close was called.
func (w *Writer) Closed() bool { return w.closed }

// Close terminates the stream. It restores the graphics state only if the writer
// saved it; closing an unused writer leaves an empty stream. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if !w.opened {
		return nil
	}
	if b := w.buf.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		w.buf.WriteByte('\n')
	}
	w.buf.WriteString("Q\n")
	return w.flush()
}

func (w *Writer) flush() error {
	data := append([]byte(nil), w.buf.Bytes()...)
	return w.store.Set(w.ref, newStream(data))
}
