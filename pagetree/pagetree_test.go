package pagetree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/pdftpl/internal/pdftest"
	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
	"github.com/lvillar/pdftpl/reader"
)

// graph is a minimal in-memory resolver.
type graph map[int]object.Object

func (g graph) Resolve(ref object.Reference) (object.Object, error) {
	if obj, ok := g[ref.Number]; ok {
		return obj, nil
	}
	return object.Null{}, nil
}

func nested(t *testing.T) (*reader.Document, object.Reference) {
	t.Helper()
	doc, err := reader.Parse(pdftest.Nested())
	require.NoError(t, err)
	root, ok := doc.PagesRoot()
	require.True(t, ok)
	return doc, root
}

func TestLeavesOrder(t *testing.T) {
	doc, root := nested(t)
	assert.Equal(t, []object.Reference{object.Ref(7), object.Ref(8), object.Ref(9)}, pagetree.Collect(doc, root))
	assert.Equal(t, 3, pagetree.Count(doc, root))
}

func TestLeavesStopsEarly(t *testing.T) {
	doc, root := nested(t)
	var got []object.Reference
	for ref := range pagetree.Leaves(doc, root) {
		got = append(got, ref)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestLeavesCycle(t *testing.T) {
	g := graph{
		1: object.Dict{"Type": object.Name("Pages"), "Kids": object.Array{object.Ref(2), object.Ref(3)}},
		2: object.Dict{"Type": object.Name("Pages"), "Kids": object.Array{object.Ref(1), object.Ref(4)}},
		3: object.Dict{"Type": object.Name("Page")},
		4: object.Dict{"Type": object.Name("Page")},
	}
	assert.Equal(t, []object.Reference{object.Ref(4), object.Ref(3)}, pagetree.Collect(g, object.Ref(1)))
}

func TestLeavesSkipsBrokenKids(t *testing.T) {
	g := graph{
		1: object.Dict{"Kids": object.Array{object.Ref(2), object.Ref(9), object.Integer(3), object.Ref(3)}},
		2: object.Dict{"Type": object.Name("Page")},
		3: object.Dict{"Type": object.Name("Page")},
	}
	assert.Equal(t, []object.Reference{object.Ref(2), object.Ref(3)}, pagetree.Collect(g, object.Ref(1)))
}

func TestObjectIDForPage(t *testing.T) {
	doc, root := nested(t)
	tests := []struct {
		index int
		want  int
		ok    bool
	}{
		{0, 7, true},
		{2, 9, true},
		{3, 0, false},
		{-1, 9, true},
		{-3, 7, true},
		{-4, 0, false},
	}
	for _, tt := range tests {
		ref, ok := pagetree.ObjectIDForPage(doc, root, tt.index)
		assert.Equal(t, tt.ok, ok, "index %d", tt.index)
		if tt.ok {
			assert.Equal(t, object.Ref(tt.want), ref, "index %d", tt.index)
		}
	}

	_, ok := pagetree.ObjectIDForPage(graph{1: object.Dict{"Type": object.Name("Pages")}}, object.Ref(1), -1)
	assert.False(t, ok)
}

func TestInherited(t *testing.T) {
	doc, _ := nested(t)

	mb, err := pagetree.Inherited(doc, object.Ref(8), "MediaBox")
	require.NoError(t, err)
	rect, err := reader.ParseRectangle(mb)
	require.NoError(t, err)
	assert.Equal(t, 200.0, rect.Width())

	mb, err = pagetree.Inherited(doc, object.Ref(9), "MediaBox")
	require.NoError(t, err)
	rect, _ = reader.ParseRectangle(mb)
	assert.Equal(t, 100.0, rect.Width())

	res, err := pagetree.Inherited(doc, object.Ref(7), "Resources")
	require.NoError(t, err)
	assert.Equal(t, object.Ref(10), res)

	crop, err := pagetree.Inherited(doc, object.Ref(7), "CropBox")
	require.NoError(t, err)
	assert.Nil(t, crop)

	_, err = pagetree.Inherited(doc, object.Ref(42), "MediaBox")
	assert.Error(t, err)
}

func TestInheritedParentCycle(t *testing.T) {
	g := graph{
		1: object.Dict{"Parent": object.Ref(2)},
		2: object.Dict{"Parent": object.Ref(1)},
	}
	v, err := pagetree.Inherited(g, object.Ref(1), "Rotate")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAncestors(t *testing.T) {
	doc, _ := nested(t)
	leaf, err := doc.Resolve(object.Ref(9))
	require.NoError(t, err)
	assert.Equal(t, []object.Reference{object.Ref(6), object.Ref(3)}, pagetree.Ancestors(doc, leaf.(object.Dict)))
}

func TestInheritedFromWalksAncestors(t *testing.T) {
	g := graph{
		1: object.Dict{"Parent": object.Ref(2), "Rotate": object.Null{}},
		2: object.Dict{"Parent": object.Ref(3)},
		3: object.Dict{"Parent": object.Ref(2), "Rotate": object.Integer(180)},
	}
	leaf := g[1].(object.Dict)
	assert.Equal(t, []object.Reference{object.Ref(2), object.Ref(3)}, pagetree.Ancestors(g, leaf))
	assert.Equal(t, object.Integer(180), pagetree.InheritedFrom(g, leaf, "Rotate"))
	assert.Nil(t, pagetree.InheritedFrom(g, leaf, "MediaBox"))
}

func TestDeref(t *testing.T) {
	g := graph{1: object.Integer(5), 2: object.Null{}}
	assert.Equal(t, object.Integer(5), pagetree.Deref(g, object.Ref(1)))
	assert.Nil(t, pagetree.Deref(g, object.Ref(2)))
	assert.Nil(t, pagetree.Deref(g, object.Ref(3)))
	assert.Nil(t, pagetree.Deref(g, nil))
	assert.Equal(t, object.Name("A"), pagetree.Deref(g, object.Name("A")))
}

func TestIsInternal(t *testing.T) {
	assert.True(t, pagetree.IsInternal(object.Dict{"Type": object.Name("Pages")}))
	assert.False(t, pagetree.IsInternal(object.Dict{"Type": object.Name("Page"), "Kids": object.Array{}}))
	assert.True(t, pagetree.IsInternal(object.Dict{"Kids": object.Array{}}))
	assert.False(t, pagetree.IsInternal(object.Dict{}))
}
