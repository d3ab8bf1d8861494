package splice_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/splice"
	"github.com/lvillar/pdftpl/store"
)

func stream(data string) object.Stream {
	return object.Stream{Dict: object.Dict{"Length": object.Integer(len(data))}, Data: []byte(data)}
}

// newPage adds a page whose /Contents is built by contents from the given streams.
func newPage(s *store.Store, contents func(refs []object.Reference) object.Object, data ...string) object.Reference {
	var refs []object.Reference
	for _, d := range data {
		refs = append(refs, s.Allocate(stream(d)))
	}
	page := object.Dict{"Type": object.Name("Page")}
	if c := contents(refs); c != nil {
		page["Contents"] = c
	}
	return s.Allocate(page)
}

func asArray(refs []object.Reference) object.Object {
	a := object.Array{}
	for _, r := range refs {
		a = append(a, r)
	}
	return a
}

func joined(t *testing.T, s *store.Store, page object.Reference) string {
	t.Helper()
	streams, err := splice.Streams(s, page)
	require.NoError(t, err)
	return string(bytes.Join(streams, []byte("|")))
}

func TestNormalize(t *testing.T) {
	s := store.New()

	single := newPage(s, func(r []object.Reference) object.Object { return r[0] }, "0 0 m")
	got, err := splice.Normalize(s, single)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	none := newPage(s, func([]object.Reference) object.Object { return nil })
	got, err = splice.Normalize(s, none)
	require.NoError(t, err)
	assert.Empty(t, got)
	page, _ := s.Dict(none)
	assert.Equal(t, object.Array{}, page["Contents"])

	arrRef := s.Allocate(object.Array{})
	indirect := newPage(s, func(r []object.Reference) object.Object {
		require.NoError(t, s.Set(arrRef, object.Array{r[0], object.Integer(3), r[1]}))
		return arrRef
	}, "a", "b")
	got, err = splice.Normalize(s, indirect)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	page, _ = s.Dict(indirect)
	assert.IsType(t, object.Array{}, page["Contents"])

	_, err = splice.Normalize(s, object.Ref(999))
	assert.Error(t, err)
}

func TestIsolate(t *testing.T) {
	s := store.New()
	page := newPage(s, asArray, "1 0 0 rg", "0 0 10 10 re f")

	ok, err := splice.Isolate(s, page)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "q\n|1 0 0 rg|0 0 10 10 re f|Q\n", joined(t, s, page))
	require.NoError(t, splice.CheckPage(s, page))
}

func TestIsolateSkipsBlankContent(t *testing.T) {
	s := store.New()
	blank := newPage(s, asArray, "  \n", "")
	before := s.Len()

	ok, err := splice.Isolate(s, blank)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, s.Len())

	empty := newPage(s, func([]object.Reference) object.Object { return nil })
	ok, err = splice.Isolate(s, empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriterBracketsContent(t *testing.T) {
	s := store.New()
	page := newPage(s, asArray, "0 0 m 10 10 l S")
	_, err := splice.Isolate(s, page)
	require.NoError(t, err)

	w, err := splice.Open(s, page)
	require.NoError(t, err)
	assert.Zero(t, w.Len())
	require.NoError(t, w.Printf("%d %d m", 1, 2))
	_, err = w.Write([]byte("3 4 l S"))
	require.NoError(t, err)

	// The store reflects every write before Close.
	obj, err := s.Resolve(w.Ref())
	require.NoError(t, err)
	assert.Equal(t, "q\n1 2 m\n3 4 l S", string(obj.(object.Stream).Data))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.True(t, w.Closed())
	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, splice.ErrClosed)

	obj, _ = s.Resolve(w.Ref())
	stm := obj.(object.Stream)
	assert.Equal(t, "q\n1 2 m\n3 4 l S\nQ\n", string(stm.Data))
	assert.Equal(t, object.Integer(len(stm.Data)), stm.Dict["Length"])

	require.NoError(t, splice.CheckPage(s, page))
	streams, err := splice.Streams(s, page)
	require.NoError(t, err)
	st := splice.Analyze(bytes.Join(streams, []byte("\n")))
	assert.Equal(t, 2, st.Saves)
	assert.True(t, st.Balanced())
}

func TestUnusedWriterLeavesEmptyStream(t *testing.T) {
	s := store.New()
	page := newPage(s, asArray)

	w, err := splice.Open(s, page)
	require.NoError(t, err)
	_, err = w.Write(nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	obj, err := s.Resolve(w.Ref())
	require.NoError(t, err)
	assert.Empty(t, obj.(object.Stream).Data)

	has, err := splice.HasContent(s, page)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSeveralWriters(t *testing.T) {
	s := store.New()
	page := newPage(s, asArray, "BT ET")
	_, err := splice.Isolate(s, page)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w, err := splice.Open(s, page)
		require.NoError(t, err)
		require.NoError(t, w.Printf("%d w", i+1))
		require.NoError(t, w.Close())
	}
	assert.Equal(t, "q\n|BT ET|Q\n|q\n1 w\nQ\n|q\n2 w\nQ\n", joined(t, s, page))
	require.NoError(t, splice.CheckPage(s, page))
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		data string
		want splice.Stats
	}{
		{"empty", "", splice.Stats{}},
		{"nested", "q q 1 0 0 1 5 5 cm Q Q", splice.Stats{Saves: 2, Restores: 2}},
		{"unmatched", "Q 0 0 m S", splice.Stats{Restores: 1, Unmatched: 1}},
		{"adjacent", "q Q Q Q", splice.Stats{Saves: 1, Restores: 3, Unmatched: 2, AdjacentUnmatched: true}},
		{"separated", "Q 0 0 m Q", splice.Stats{Restores: 2, Unmatched: 2}},
		{"open", "q q Q", splice.Stats{Saves: 2, Restores: 1}},
		{"strings", "BT (Q) Tj <51> Tj (a \\) Q (q)) Tj ET", splice.Stats{}},
		{"names and comments", "/Q gs % Q q\n/q1 Do", splice.Stats{}},
		{"glued", "qQ", splice.Stats{}},
		{"inline image", "q BI /W 2 /H 1 /BPC 8 /CS /G ID \x00Q EI Q", splice.Stats{Saves: 1, Restores: 1}},
		{"dictionary", "q /Span << /Q 1 >> BDC EMC Q", splice.Stats{Saves: 1, Restores: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splice.Analyze([]byte(tt.data)))
		})
	}
}

func TestCheckPage(t *testing.T) {
	s := store.New()

	restore := newPage(s, asArray, "1 0 0 RG", "Q 0 0 m 100 100 l S")
	assert.ErrorContains(t, splice.CheckPage(s, restore), "without a matching save")

	save := newPage(s, asArray, "q 0 0 m")
	assert.ErrorContains(t, splice.CheckPage(s, save), "never restored")

	// Scopes may span stream boundaries.
	split := newPage(s, asArray, "q 1 w", "Q")
	assert.NoError(t, splice.CheckPage(s, split))
}
