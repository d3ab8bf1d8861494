package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/store"
)

func TestNewIsComplete(t *testing.T) {
	s := store.New()

	assert.Equal(t, 3, s.Len())
	require.NoError(t, s.Check())

	cat, err := s.Catalog()
	require.NoError(t, err)
	assert.Equal(t, object.Name("Catalog"), cat.GetName("Type"))
	assert.Equal(t, s.Pages(), cat["Pages"])
	assert.Zero(t, s.PageCount())

	_, err = s.InfoDict()
	require.NoError(t, err)
}

func TestAllocateResolveSet(t *testing.T) {
	s := store.NewEmpty()

	a := s.Allocate(object.Integer(7))
	b := s.Allocate(nil)
	assert.Equal(t, object.Ref(1), a)
	assert.Equal(t, object.Ref(2), b)

	obj, err := s.Resolve(a)
	require.NoError(t, err)
	assert.Equal(t, object.Integer(7), obj)

	obj, err = s.Resolve(b)
	require.NoError(t, err)
	assert.True(t, object.IsNull(obj))

	require.NoError(t, s.Set(b, object.Name("X")))
	obj, _ = s.Resolve(b)
	assert.Equal(t, object.Name("X"), obj)

	_, err = s.Resolve(object.Ref(3))
	assert.ErrorIs(t, err, store.ErrUnknownReference)
	assert.ErrorIs(t, s.Set(object.Ref(3), object.Null{}), store.ErrUnknownReference)
	_, err = s.Resolve(object.Reference{Number: 1, Generation: 2})
	assert.ErrorIs(t, err, store.ErrUnknownReference)

	_, err = s.Dict(a)
	assert.Error(t, err)
}

func TestAllocationOrder(t *testing.T) {
	s := store.NewEmpty()
	for i := 0; i < 5; i++ {
		s.Allocate(object.Integer(i))
	}
	var got []int64
	for ref, obj := range s.All() {
		assert.Equal(t, len(got)+1, ref.Number)
		got = append(got, int64(obj.(object.Integer)))
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, got)
	assert.Len(t, s.References(), 5)
}

func TestCompleteKeepsExistingRoots(t *testing.T) {
	s := store.NewEmpty()
	info := s.Allocate(object.Dict{"Title": object.String{Value: []byte("kept")}})
	s.SetInfo(info)
	s.Complete()

	assert.Equal(t, info, s.Info())
	assert.Equal(t, 3, s.Len())
	require.NoError(t, s.Check())
}

func TestRollback(t *testing.T) {
	s := store.New()
	cp := s.Checkpoint()

	ref := s.Allocate(object.Dict{})
	s.SetRoot(ref)
	require.Equal(t, 4, s.Len())

	s.Rollback(cp)
	assert.Equal(t, 3, s.Len())
	assert.NotEqual(t, ref, s.Root())
	_, err := s.Resolve(ref)
	assert.ErrorIs(t, err, store.ErrUnknownReference)

	// Numbers are handed out again after a rollback.
	assert.Equal(t, ref, s.Allocate(object.Null{}))
}

func TestCheckReportsEveryDanglingReference(t *testing.T) {
	s := store.New()
	s.Allocate(object.Array{object.Ref(40), object.Dict{"X": object.Ref(41)}})

	err := s.Check()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 2)
	for _, e := range errs {
		assert.ErrorIs(t, e, store.ErrUnknownReference)
	}
}

func TestAddPage(t *testing.T) {
	s := store.New()
	var pages []object.Reference
	for i := 0; i < 3; i++ {
		ref := s.Allocate(object.Dict{"Type": object.Name("Page")})
		require.NoError(t, s.AddPage(ref))
		pages = append(pages, ref)
	}

	assert.Equal(t, 3, s.PageCount())
	assert.Equal(t, pages, s.PageRefs())

	root, err := s.Dict(s.Pages())
	require.NoError(t, err)
	n, _ := root.GetInt("Count")
	assert.EqualValues(t, 3, n)

	page, _ := s.Dict(pages[1])
	assert.Equal(t, s.Pages(), page["Parent"])

	last, ok := s.ObjectIDForPage(-1)
	require.True(t, ok)
	assert.Equal(t, pages[2], last)
	_, ok = s.ObjectIDForPage(3)
	assert.False(t, ok)
	require.NoError(t, s.Check())
}

func TestAddPageIndirectKids(t *testing.T) {
	s := store.NewEmpty()
	kids := s.Allocate(object.Array{})
	pages := s.Allocate(object.Dict{"Type": object.Name("Pages"), "Kids": kids, "Count": object.Integer(0)})
	s.SetRoot(s.Allocate(object.Dict{"Type": object.Name("Catalog"), "Pages": pages}))
	s.Complete()

	page := s.Allocate(object.Dict{"Type": object.Name("Page")})
	require.NoError(t, s.AddPage(page))

	arr, err := s.Resolve(kids)
	require.NoError(t, err)
	assert.Equal(t, object.Array{page}, arr)
	assert.Equal(t, 1, s.PageCount())
}

func TestAddPageRejectsNonDictionary(t *testing.T) {
	s := store.New()
	ref := s.Allocate(object.Integer(1))
	assert.Error(t, s.AddPage(ref))
	assert.Error(t, s.AddPage(object.Ref(99)))
}
