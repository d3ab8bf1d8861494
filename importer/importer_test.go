package importer_test

import (
	"bytes"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"golang.org/x/image/bmp"

	"github.com/lvillar/pdftpl/importer"
	"github.com/lvillar/pdftpl/internal/pdftest"
	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/reader"
	"github.com/lvillar/pdftpl/store"
)

func load(t *testing.T, im *importer.Importer, name string, data []byte) *importer.Template {
	t.Helper()
	tpl, err := im.Load(importer.BytesSource(name, data))
	require.NoError(t, err)
	return tpl
}

func TestLoadRejectsUnopenableSources(t *testing.T) {
	im := importer.New()

	_, err := im.Load(importer.FileSource("/nonexistent/template.pdf"))
	assert.ErrorIs(t, err, importer.ErrInvalidSource)
	var argErr *importer.ArgumentError
	assert.ErrorAs(t, err, &argErr)

	_, err = im.Load(importer.FileSource(t.TempDir()))
	assert.ErrorIs(t, err, importer.ErrInvalidSource)

	_, err = im.Load(importer.Source{})
	assert.ErrorIs(t, err, importer.ErrInvalidSource)

	assert.Zero(t, im.Cache().Parses())
}

func TestLoadRejectsInvalidTemplates(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var bmpData bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpData, img))

	tests := []struct {
		name string
		data []byte
	}{
		{"bitmap", bmpData.Bytes()},
		{"garbage", []byte("%PDF-1.4\nthis is not a body")},
		{"encrypted", pdftest.Encrypted()},
	}
	im := importer.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := im.Load(importer.BytesSource(tt.name, tt.data))
			assert.ErrorIs(t, err, importer.ErrTemplate)
			assert.NotErrorIs(t, err, importer.ErrInvalidSource)
		})
	}

	_, err := im.Load(importer.BytesSource("encrypted", pdftest.Encrypted()))
	assert.ErrorIs(t, err, reader.ErrEncrypted)
	assert.Zero(t, im.Cache().Len())
}

func TestLoadXZ(t *testing.T) {
	var buf bytes.Buffer
	zw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write(pdftest.Hexagon())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	tpl := load(t, importer.New(), "hexagon.pdf.xz", buf.Bytes())
	assert.Equal(t, 1, tpl.NumPages())
	assert.Equal(t, "Hexagon", tpl.Metadata()["Title"])
}

func TestCacheSharesParses(t *testing.T) {
	cache := importer.NewCache(4)
	a := importer.New(importer.WithCache(cache))
	b := importer.New(importer.WithCache(cache))

	path := pdftest.WriteFile(t, "multi.pdf", pdftest.MultiPage(2))
	t1, err := a.Load(importer.FileSource(path))
	require.NoError(t, err)
	t2, err := b.Load(importer.FileSource(path))
	require.NoError(t, err)
	assert.Same(t, t1.Document, t2.Document)
	assert.Equal(t, t1.Key, t2.Key)
	assert.EqualValues(t, 1, cache.Parses())

	// In-memory sources are keyed by content.
	data := pdftest.Hexagon()
	load(t, a, "one", data)
	_, err = b.Load(importer.ReaderSource("two", bytes.NewReader(data)))
	require.NoError(t, err)
	assert.EqualValues(t, 2, cache.Parses())
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, a.Invalidate(importer.FileSource(path)))
	_, err = b.Load(importer.FileSource(path))
	require.NoError(t, err)
	assert.EqualValues(t, 3, cache.Parses())

	cache.Purge()
	assert.Zero(t, cache.Len())
}

func TestReaderSourceCanBeReused(t *testing.T) {
	im := importer.New()
	src := importer.ReaderSource("", bytes.NewReader(pdftest.Hexagon()))
	for i := 0; i < 2; i++ {
		tpl, err := im.Load(src)
		require.NoError(t, err)
		assert.Equal(t, 1, tpl.NumPages())
	}
	assert.Equal(t, "stream", src.Name())
	assert.False(t, src.IsFile())
}

func TestConcurrentLoadsParseOnce(t *testing.T) {
	im := importer.New()
	data := pdftest.MultiPage(5)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := im.Load(importer.BytesSource("multi", data))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, im.Cache().Parses())
}

func TestImportDocument(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "hexagon", pdftest.Hexagon())

	dst := store.NewEmpty()
	res, err := im.ImportDocument(dst, tpl)
	require.NoError(t, err)
	dst.SetInfo(res.Info)
	dst.SetRoot(res.Root)
	dst.Complete()

	assert.Equal(t, 5, dst.Len())
	assert.Zero(t, res.Dropped)
	assert.Len(t, res.Leaves, 1)
	assert.Equal(t, res.Pages, dst.Pages())
	require.NoError(t, dst.Check())

	// The mapping is injective and lands inside the store.
	seen := make(map[object.Reference]bool)
	for _, to := range res.Mapping {
		assert.False(t, seen[to])
		seen[to] = true
		_, err := dst.Resolve(to)
		assert.NoError(t, err)
	}

	page, err := dst.Dict(res.Leaves[0])
	require.NoError(t, err)
	assert.Equal(t, res.Pages, page["Parent"])
}

func TestImportDocumentCopiesSharedObjectsOnce(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "multi", pdftest.MultiPage(3))

	dst := store.NewEmpty()
	res, err := im.ImportDocument(dst, tpl)
	require.NoError(t, err)
	assert.Equal(t, 10, dst.Len())
	assert.Len(t, res.Leaves, 3)

	font, ok := res.Mapping.Lookup(object.Ref(4))
	require.True(t, ok)
	for _, leaf := range res.Leaves {
		page, err := dst.Dict(leaf)
		require.NoError(t, err)
		assert.Equal(t, font, page.GetDict("Resources").GetDict("Font")["F1"])
	}
}

func TestImportPageInheritsAttributes(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "nested", pdftest.Nested())

	dst := store.New()
	before := dst.Len()
	res, err := im.ImportPage(dst, tpl, 0)
	require.NoError(t, err)

	assert.Equal(t, object.Ref(7), res.Source)
	assert.Zero(t, res.Index)
	assert.Zero(t, res.Dropped)
	// Leaf, content, resources and font.
	assert.Equal(t, before+4, dst.Len())

	page, err := dst.Dict(res.Page)
	require.NoError(t, err)
	assert.NotContains(t, page, object.Name("Parent"))
	assert.Equal(t, object.Integer(90), page["Rotate"])
	assert.Equal(t, object.Array{object.Integer(0), object.Integer(0), object.Integer(612), object.Integer(792)}, page["MediaBox"])

	resRef, ok := page["Resources"].(object.Reference)
	require.True(t, ok)
	mapped, _ := res.Mapping.Lookup(object.Ref(10))
	assert.Equal(t, mapped, resRef)

	for src := range res.Mapping {
		assert.NotContains(t, []int{3, 5, 6, 8, 9}, src.Number, "page tree node %s was copied", src)
	}

	require.NoError(t, dst.AddPage(res.Page))
	require.NoError(t, dst.Check())
}

func TestImportPageNegativeIndex(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "nested", pdftest.Nested())

	res, err := im.ImportPage(store.New(), tpl, -1)
	require.NoError(t, err)
	assert.Equal(t, object.Ref(9), res.Source)
	assert.Equal(t, 2, res.Index)
}

func TestImportPageOutOfRange(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "hexagon", pdftest.Hexagon())

	dst := store.New()
	for _, index := range []int{1, 5, -2} {
		_, err := im.ImportPage(dst, tpl, index)
		assert.ErrorIs(t, err, importer.ErrPageOutOfRange)
	}
	assert.Equal(t, 3, dst.Len())
}

func TestImportWithoutPageTree(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "nopages", pdftest.NoPageTree())

	dst := store.New()
	_, err := im.ImportPage(dst, tpl, 0)
	assert.ErrorIs(t, err, importer.ErrPageOutOfRange)
	assert.Equal(t, 3, dst.Len())

	empty := store.NewEmpty()
	res, err := im.ImportDocument(empty, tpl)
	require.NoError(t, err)
	assert.True(t, res.Pages.IsZero())
	assert.Empty(t, res.Leaves)
	assert.Equal(t, 2, empty.Len())
}

func TestImportPageCycles(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "cyclic", pdftest.Cyclic())

	dst := store.New()
	res, err := im.ImportPage(dst, tpl, 0)
	require.NoError(t, err)

	// Page, content, form, annotation and font, each exactly once.
	assert.Equal(t, 3+5, dst.Len())
	assert.Len(t, res.Mapping, 5)
	assert.Equal(t, 1, res.Dropped)
	assert.NotContains(t, res.Mapping, object.Ref(9))

	formRef := res.Mapping[object.Ref(5)]
	formObj, err := dst.Resolve(formRef)
	require.NoError(t, err)
	form := formObj.(object.Stream)
	assert.Equal(t, formRef, form.Dict.GetDict("Resources").GetDict("XObject")["Self"])
	assert.Equal(t, object.Null{}, form.Dict["Missing"])
	assert.Equal(t, []byte("0 0 10 10 re f"), form.Data)

	annot, err := dst.Dict(res.Mapping[object.Ref(6)])
	require.NoError(t, err)
	assert.Equal(t, res.Page, annot["P"])
	require.NoError(t, dst.Check())
}

func TestImportPagePrunesOtherPages(t *testing.T) {
	b := pdftest.New("1.4")
	b.Root = 1
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /MediaBox [0 0 100 100] >>")
	b.Add(3, "<< /Type /Page /Parent 2 0 R /Annots [5 0 R] >>")
	b.Add(4, "<< /Type /Page /Parent 2 0 R >>")
	b.Add(5, "<< /Type /Annot /Subtype /Link /Rect [0 0 1 1] /Dest [4 0 R /Fit] >>")

	im := importer.New()
	tpl := load(t, im, "links", b.Bytes())

	dst := store.New()
	res, err := im.ImportPage(dst, tpl, 0)
	require.NoError(t, err)
	assert.Len(t, res.Mapping, 2)
	assert.Equal(t, 1, res.Dropped)

	annot, err := dst.Dict(res.Mapping[object.Ref(5)])
	require.NoError(t, err)
	assert.Equal(t, object.Array{object.Null{}, object.Name("Fit")}, annot["Dest"])
	require.NoError(t, dst.Check())
}

func TestImportDoesNotModifyTemplate(t *testing.T) {
	im := importer.New()
	tpl := load(t, im, "nested", pdftest.Nested())

	dst := store.New()
	for i := 0; i < 3; i++ {
		res, err := im.ImportPage(dst, tpl, i)
		require.NoError(t, err)
		page, _ := dst.Dict(res.Page)
		page["Rotate"] = object.Integer(180)
	}

	leaf, err := tpl.Resolve(object.Ref(9))
	require.NoError(t, err)
	assert.Contains(t, leaf.(object.Dict), object.Name("Parent"))
	assert.NotContains(t, leaf.(object.Dict), object.Name("Rotate"))
}

func TestRemap(t *testing.T) {
	src := object.Dict{
		"A": object.Ref(1),
		"B": object.Array{object.Ref(2), object.Integer(3)},
		"S": object.String{Value: []byte("x")},
	}
	out, dropped := importer.Remap(src, importer.Mapping{object.Ref(1): object.Ref(5)})
	assert.Equal(t, 1, dropped)

	d := out.(object.Dict)
	assert.Equal(t, object.Ref(5), d["A"])
	assert.Equal(t, object.Array{object.Null{}, object.Integer(3)}, d["B"])

	d["S"].(object.String).Value[0] = 'y'
	assert.Equal(t, object.Ref(1), src["A"])
	assert.Equal(t, "x", string(src["S"].(object.String).Value))
}
