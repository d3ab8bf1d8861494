// Package splice finalizes the content streams of imported pages so that content
// drawn afterwards composes with the template's content instead of inheriting its
// graphics state.
//
// A page's /Contents is first normalized to an array of stream references. The
// template content is then wrapped once in a save/restore pair (Isolate), and new
// drawing goes to fresh streams appended after it (Open). Each fresh stream is
// itself bracketed by q/Q, emitted only when something is written, so no stream
// ever holds an empty save/restore scope.
package splice

import (
	"bytes"
	"fmt"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
	"github.com/lvillar/pdftpl/reader"
	"github.com/lvillar/pdftpl/store"
)

// Normalize rewrites the page's /Contents as a direct array of references and
// returns it. An absent or null entry becomes an empty array, a single stream
// reference a one-element array, and an array stored indirectly is copied onto
// the page. Elements that are not references are dropped.
func Normalize(s *store.Store, page object.Reference) (object.Array, error) {
	dict, err := s.Dict(page)
	if err != nil {
		return nil, fmt.Errorf("splice: %w", err)
	}

	var contents object.Array
	switch v := dict["Contents"].(type) {
	case object.Reference:
		switch target := pagetree.Deref(s, v).(type) {
		case object.Stream:
			contents = object.Array{v}
		case object.Array:
			contents = refsOnly(target)
		default:
			contents = object.Array{}
		}
	case object.Array:
		contents = refsOnly(v)
	default:
		contents = object.Array{}
	}
	dict["Contents"] = contents
	return contents, nil
}

func refsOnly(a object.Array) object.Array {
	out := make(object.Array, 0, len(a))
	for _, item := range a {
		if ref, ok := item.(object.Reference); ok {
			out = append(out, ref)
		}
	}
	return out
}

// HasContent reports whether any stream of the page holds a non-blank instruction
// sequence. Streams that fail to decode count as content.
func HasContent(s *store.Store, page object.Reference) (bool, error) {
	contents, err := Normalize(s, page)
	if err != nil {
		return false, err
	}
	for _, item := range contents {
		stm, ok := pagetree.Deref(s, item).(object.Stream)
		if !ok {
			continue
		}
		data, err := reader.DecodeStream(stm)
		if err != nil || len(bytes.TrimSpace(data)) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Isolate wraps the existing content of the page between a stream holding "q" and
// a stream holding "Q". Pages with no content are left unchanged. It reports
// whether the wrapper was added; callers apply it at most once per page.
func Isolate(s *store.Store, page object.Reference) (bool, error) {
	ok, err := HasContent(s, page)
	if err != nil || !ok {
		return false, err
	}
	dict, err := s.Dict(page)
	if err != nil {
		return false, fmt.Errorf("splice: %w", err)
	}
	contents := dict["Contents"].(object.Array)

	save := s.Allocate(newStream([]byte("q\n")))
	restore := s.Allocate(newStream([]byte("Q\n")))
	wrapped := make(object.Array, 0, len(contents)+2)
	wrapped = append(wrapped, save)
	wrapped = append(wrapped, contents...)
	wrapped = append(wrapped, restore)
	dict["Contents"] = wrapped
	return true, nil
}

// Streams returns the decoded data of every content stream of the page, in order.
func Streams(s *store.Store, page object.Reference) ([][]byte, error) {
	contents, err := Normalize(s, page)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, item := range contents {
		stm, ok := pagetree.Deref(s, item).(object.Stream)
		if !ok {
			continue
		}
		data, err := reader.DecodeStream(stm)
		if err != nil {
			return nil, fmt.Errorf("splice: content stream %s: %w", item, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// CheckPage analyzes the concatenated content of the page and returns an error if
// a restore has no matching save, or if saves are left open.
func CheckPage(s *store.Store, page object.Reference) error {
	streams, err := Streams(s, page)
	if err != nil {
		return err
	}
	st := Analyze(bytes.Join(streams, []byte("\n")))
	switch {
	case st.Unmatched > 0:
		return fmt.Errorf("splice: page %s: %d restore(s) without a matching save", page, st.Unmatched)
	case st.Saves > st.Restores:
		return fmt.Errorf("splice: page %s: %d save(s) never restored", page, st.Saves-st.Restores)
	}
	return nil
}

func newStream(data []byte) object.Stream {
	return object.Stream{
		Dict: object.Dict{"Length": object.Integer(len(data))},
		Data: data,
	}
}
