package reader_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lvillar/pdftpl/internal/pdftest"
	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/reader"
)

func TestOpenRoundTrip(t *testing.T) {
	path := pdftest.WriteFile(t, "multi.pdf", pdftest.MultiPage(2))

	doc, err := reader.Open(path)
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if doc.NumPages() != 2 {
		t.Errorf("expected 2 pages, got %d", doc.NumPages())
	}
	if doc.Version != "1.5" {
		t.Errorf("Version = %q, want 1.5", doc.Version)
	}
}

func TestPageAccess(t *testing.T) {
	doc, err := reader.ReadFrom(bytes.NewReader(pdftest.MultiPage(3)))
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}

	for i := 1; i <= 3; i++ {
		page, err := doc.Page(i)
		if err != nil {
			t.Errorf("page %d: %v", i, err)
			continue
		}
		if page.Number != i {
			t.Errorf("page %d: number = %d", i, page.Number)
		}
		if page.MediaBox.Width() != 612 || page.MediaBox.Height() != 792 {
			t.Errorf("page %d: unexpected MediaBox: %v", i, page.MediaBox)
		}
	}

	if _, err := doc.Page(0); err == nil {
		t.Error("expected error for page 0")
	}
	if _, err := doc.Page(4); err == nil {
		t.Error("expected error for page 4")
	}
}

func TestPagesIterator(t *testing.T) {
	doc, err := reader.Parse(pdftest.MultiPage(2))
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}

	count := 0
	for num, page := range doc.Pages() {
		count++
		if page.Number != num {
			t.Errorf("iterator: page.Number=%d, num=%d", page.Number, num)
		}
	}
	if count != 2 {
		t.Errorf("iterator: expected 2 iterations, got %d", count)
	}
}

func TestInheritedAttributes(t *testing.T) {
	doc, err := reader.Parse(pdftest.Nested())
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	want := []struct {
		ref  int
		w, h float64
	}{
		{7, 612, 792},
		{8, 200, 300},
		{9, 100, 100},
	}
	for i, w := range want {
		page, err := doc.Page(i + 1)
		if err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
		if page.Ref.Number != w.ref {
			t.Errorf("page %d: ref = %v, want %d 0 R", i+1, page.Ref, w.ref)
		}
		if page.MediaBox.Width() != w.w || page.MediaBox.Height() != w.h {
			t.Errorf("page %d: MediaBox = %v", i+1, page.MediaBox)
		}
		if page.Rotate != 90 {
			t.Errorf("page %d: Rotate = %d, want 90", i+1, page.Rotate)
		}
		if page.Resources.GetDict("Font") == nil {
			t.Errorf("page %d: inherited resources missing", i+1)
		}
	}
}

func TestIndirectPageAttributes(t *testing.T) {
	doc, err := reader.Parse(pdftest.IndirectResources())
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	page, _ := doc.Page(1)
	if page.MediaBox.Width() != 400 || page.MediaBox.Height() != 500 {
		t.Errorf("MediaBox = %v, want 400x500", page.MediaBox)
	}
	if page.Resources == nil {
		t.Fatal("expected resources behind a reference to resolve")
	}
	if _, ok := page.Resources["Font"].(object.Reference); !ok {
		t.Errorf("Font = %T, want an unresolved reference", page.Resources["Font"])
	}
}

func TestObjectStreams(t *testing.T) {
	doc, err := reader.Parse(pdftest.Compressed())
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.NumPages())
	}
	page, _ := doc.Page(1)
	content, err := page.ContentStream()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if !strings.Contains(string(content), "386.6 450 l") {
		t.Errorf("unexpected content %q", content)
	}
	if doc.Metadata()["Title"] != "Compressed" {
		t.Errorf("Title = %q", doc.Metadata()["Title"])
	}
}

func TestRejectsInvalidInput(t *testing.T) {
	if _, err := reader.Parse([]byte("GIF89a not a pdf")); !errors.Is(err, reader.ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}
	if _, err := reader.Parse(pdftest.Encrypted()); !errors.Is(err, reader.ErrEncrypted) {
		t.Errorf("expected ErrEncrypted, got %v", err)
	}
	if _, err := reader.Parse([]byte("%PDF-1.4\nno xref here")); err == nil {
		t.Error("expected error for a PDF without cross-reference data")
	}
}

func TestMissingPageTree(t *testing.T) {
	doc, err := reader.Parse(pdftest.NoPageTree())
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if doc.NumPages() != 0 {
		t.Errorf("NumPages() = %d, want 0", doc.NumPages())
	}
	if _, ok := doc.PagesRoot(); ok {
		t.Error("PagesRoot() reported a page tree")
	}
	if _, err := doc.Page(1); err == nil {
		t.Error("expected error for page 1")
	}
}

func TestResolveMissingIsNull(t *testing.T) {
	doc, err := reader.Parse(pdftest.Cyclic())
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	obj, err := doc.Resolve(object.Ref(10))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !object.IsNull(obj) {
		t.Errorf("missing object resolved to %v", obj)
	}
	if doc.Has(object.Ref(10)) {
		t.Error("Has reported a missing object")
	}
	if !doc.Has(object.Ref(9)) {
		t.Error("unreachable objects are still part of the document")
	}
}

func TestTextExtraction(t *testing.T) {
	doc, err := reader.Parse(pdftest.MultiPage(2))
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	page, err := doc.Page(2)
	if err != nil {
		t.Fatalf("getting page 2: %v", err)
	}
	text, err := page.ExtractText()
	if err != nil {
		t.Fatalf("extracting text: %v", err)
	}
	if !strings.Contains(text, "Page 2") {
		t.Errorf("text = %q, want it to contain %q", text, "Page 2")
	}
}

func TestMetadata(t *testing.T) {
	doc, err := reader.Parse(pdftest.Hexagon())
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	meta := doc.Metadata()
	if meta["Title"] != "Hexagon" {
		t.Errorf("Title = %q, want %q", meta["Title"], "Hexagon")
	}
	if meta["Producer"] != "pdftest" {
		t.Errorf("Producer = %q, want %q", meta["Producer"], "pdftest")
	}
}
