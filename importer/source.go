package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/ulikunitz/xz"
)

// xzMagic starts every xz container.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// Source designates where template bytes come from. Files are identified by their
// absolute path; in-memory sources by a hash of their content, so two readers with
// identical bytes share one cache entry.
type Source struct {
	name string
	path string
	r    *drain
	data []byte
}

// drain reads a reader once and remembers the outcome, so a Source built from a
// reader can be loaded repeatedly.
type drain struct {
	once sync.Once
	r    io.Reader
	data []byte
	err  error
}

func (d *drain) bytes() ([]byte, error) {
	d.once.Do(func() {
		d.data, d.err = io.ReadAll(d.r)
		d.r = nil
	})
	return d.data, d.err
}

// FileSource returns a source reading the named file.
func FileSource(path string) Source {
	return Source{name: path, path: path}
}

// ReaderSource returns a source that reads r completely on first use.
// name is only used in error messages and logs.
func ReaderSource(name string, r io.Reader) Source {
	if name == "" {
		name = "stream"
	}
	return Source{name: name, r: &drain{r: r}}
}

// BytesSource returns a source over data.
func BytesSource(name string, data []byte) Source {
	if name == "" {
		name = "bytes"
	}
	return Source{name: name, data: data}
}

// Name returns the human-readable name of the source.
func (s Source) Name() string { return s.name }

// IsFile reports whether the source designates a file.
func (s Source) IsFile() bool { return s.path != "" }

// resolved is a source whose identity is known.
type resolved struct {
	key  string
	data []byte // nil for files until read
	path string
}

// resolve determines the identity of s. Files are validated with os.Stat, and
// readers are drained, so that every input-validation failure happens here,
// before parsing. Failures are *ArgumentError.
func (s Source) resolve() (*resolved, error) {
	switch {
	case s.path != "":
		abs, err := filepath.Abs(s.path)
		if err != nil {
			return nil, &ArgumentError{Source: s.name, Err: err}
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, &ArgumentError{Source: s.name, Err: err}
		}
		if !info.Mode().IsRegular() {
			return nil, &ArgumentError{Source: s.name, Err: fmt.Errorf("not a regular file")}
		}
		// Size and modification time are part of the key so a rewritten file is
		// parsed again.
		key := "file:" + abs + ":" + strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
		return &resolved{key: key, path: abs}, nil

	case s.r != nil:
		data, err := s.r.bytes()
		if err != nil {
			return nil, &ArgumentError{Source: s.name, Err: err}
		}
		return &resolved{key: contentKey(data), data: data}, nil

	case s.data != nil:
		return &resolved{key: contentKey(s.data), data: s.data}, nil
	}
	return nil, &ArgumentError{Source: s.name, Err: fmt.Errorf("empty template source")}
}

func contentKey(data []byte) string {
	return "sum:" + strconv.FormatUint(xxhash.Sum64(data), 16) + ":" + strconv.Itoa(len(data))
}

// bytes returns the template bytes, reading the file if necessary.
func (r *resolved) bytes(name string) ([]byte, error) {
	if r.data != nil {
		return r.data, nil
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, &ArgumentError{Source: name, Err: err}
	}
	return data, nil
}

// decompress unwraps xz-compressed templates. Other data is returned unchanged.
func decompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, xzMagic) {
		return data, nil
	}
	zr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	return out, nil
}
