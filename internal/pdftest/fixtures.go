package pdftest

import "fmt"

// HexagonContent is the content stream of the Hexagon fixture.
const HexagonContent = "0 0 1 rg\n300 500 m 386.6 450 l 386.6 350 l 300 300 l 213.4 350 l 213.4 450 l h f"

// Hexagon is a one-page document drawing a filled hexagon. It holds exactly five
// objects, all reachable: info, catalog, page tree root, page and content.
func Hexagon() []byte {
	b := New("1.4")
	b.Root, b.Info = 2, 1
	b.Add(1, "<< /Title (Hexagon) /Producer (pdftest) >>")
	b.Add(2, "<< /Type /Catalog /Pages 3 0 R >>")
	b.Add(3, "<< /Type /Pages /Kids [4 0 R] /Count 1 >>")
	b.Add(4, "<< /Type /Page /Parent 3 0 R /MediaBox [0 0 612 792] /Contents 5 0 R /Resources << >> >>")
	b.AddStream(5, "", HexagonContent)
	return b.Bytes()
}

// MultiPage is a document of n Letter pages sharing one font object. Page i shows
// the text "Page i". Objects: 1 info, 2 catalog, 3 pages, 4 font, then a page and
// its content for each page.
func MultiPage(n int) []byte {
	b := New("1.5")
	b.Root, b.Info = 2, 1
	b.Add(1, "<< /Title (Multi) >>")
	b.Add(2, "<< /Type /Catalog /Pages 3 0 R >>")
	b.Add(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	kids := ""
	for i := 0; i < n; i++ {
		page, content := 5+2*i, 6+2*i
		kids += fmt.Sprintf(" %d 0 R", page)
		b.Add(page, fmt.Sprintf("<< /Type /Page /Parent 3 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents %d 0 R >>", content))
		b.AddStream(content, "", fmt.Sprintf("BT /F1 24 Tf 72 720 Td (Page %d) Tj ET", i+1))
	}
	b.Add(3, fmt.Sprintf("<< /Type /Pages /Kids [%s ] /Count %d >>", kids, n))
	return b.Bytes()
}

// Nested is a three-page document with two levels of Pages nodes. The root
// declares the media box, the resources and a rotation; the second internal node
// overrides the media box. Page order is 7, 8, 9.
//
//	3 (root: MediaBox 612x792, Resources 10, Rotate 90)
//	├─ 5 (Pages) ─ 7 (Page "A")
//	└─ 6 (Pages, MediaBox 200x300) ─ 8 (Page "B"), 9 (Page "C", MediaBox 100x100)
func Nested() []byte {
	b := New("1.4")
	b.Root = 2
	b.Add(2, "<< /Type /Catalog /Pages 3 0 R >>")
	b.Add(3, "<< /Type /Pages /Kids [5 0 R 6 0 R] /Count 3 /MediaBox [0 0 612 792] /Resources 10 0 R /Rotate 90 >>")
	b.Add(5, "<< /Type /Pages /Parent 3 0 R /Kids [7 0 R] /Count 1 >>")
	b.Add(6, "<< /Type /Pages /Parent 3 0 R /Kids [8 0 R 9 0 R] /Count 2 /MediaBox [0 0 200 300] >>")
	b.Add(7, "<< /Type /Page /Parent 5 0 R /Contents 11 0 R >>")
	b.Add(8, "<< /Type /Page /Parent 6 0 R /Contents 12 0 R >>")
	b.Add(9, "<< /Type /Page /Parent 6 0 R /Contents 13 0 R /MediaBox [0 0 100 100] >>")
	b.Add(10, "<< /Font << /F1 14 0 R >> >>")
	b.AddStream(11, "", "BT /F1 12 Tf 10 10 Td (A) Tj ET")
	b.AddStream(12, "", "BT /F1 12 Tf 10 10 Td (B) Tj ET")
	b.AddStream(13, "", "BT /F1 12 Tf 10 10 Td (C) Tj ET")
	b.Add(14, "<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>")
	return b.Bytes()
}

// NoPageTree has an information dictionary and a catalog but no /Pages entry.
func NoPageTree() []byte {
	b := New("1.6")
	b.Root, b.Info = 2, 1
	b.Add(1, "<< /Title (Empty) >>")
	b.Add(2, "<< /Type /Catalog /PageMode /UseNone >>")
	return b.Bytes()
}

// Encrypted is a structurally valid document whose trailer declares encryption.
func Encrypted() []byte {
	b := New("1.4")
	b.Root = 1
	b.Trailer = "/Encrypt << /Filter /Standard /V 1 /R 2 /O <00> /U <00> /P -4 >>"
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	return b.Bytes()
}

// IndirectResources has one page whose /Resources and /MediaBox are indirect
// references, and whose font dictionary is shared through another reference.
func IndirectResources() []byte {
	b := New("1.3")
	b.Root = 1
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add(3, "<< /Type /Page /Parent 2 0 R /MediaBox 4 0 R /Resources 5 0 R /Contents 7 0 R >>")
	b.Add(4, "[0 0 400 500]")
	b.Add(5, "<< /Font 6 0 R /ProcSet [/PDF /Text] >>")
	b.Add(6, "<< /F9 8 0 R >>")
	b.AddStream(7, "", "BT /F9 10 Tf 20 20 Td (indirect) Tj ET")
	b.Add(8, "<< /Type /Font /Subtype /Type1 /BaseFont /Times-Roman >>")
	return b.Bytes()
}

// NoContents has one page without a /Contents entry.
func NoContents() []byte {
	b := New("1.4")
	b.Root = 1
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 300] >>")
	return b.Bytes()
}

// Cyclic has a page whose graph contains cycles: a form XObject listing itself in
// its own resources (a reference inside a stream dictionary) and an annotation
// pointing back to the page. Object 9 is unreachable and object 10 is referenced
// but missing.
func Cyclic() []byte {
	b := New("1.4")
	b.Root = 1
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << /XObject << /X1 5 0 R >> >> /Contents 4 0 R /Annots [6 0 R] >>")
	b.AddStream(4, "", "q /X1 Do Q")
	b.AddStream(5, "/Type /XObject /Subtype /Form /BBox [0 0 10 10] /Resources << /XObject << /Self 5 0 R >> /Font << /F1 7 0 R >> >> /Missing 10 0 R", "0 0 10 10 re f")
	b.Add(6, "<< /Type /Annot /Subtype /Text /Rect [0 0 10 10] /P 3 0 R >>")
	b.Add(7, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Self 7 0 R >>")
	b.Add(9, "<< /Unreachable true >>")
	return b.Bytes()
}

// Compressed is the Hexagon document with the catalog, page tree root and page
// stored in an object stream (6) and a cross-reference stream (7), as PDF 1.5
// writers produce.
func Compressed() []byte {
	b := New("1.5")
	b.Root, b.Info = 2, 1
	b.Add(1, "<< /Title (Compressed) >>")
	b.Add(2, "<< /Type /Catalog /Pages 3 0 R >>")
	b.Add(3, "<< /Type /Pages /Kids [4 0 R] /Count 1 >>")
	b.Add(4, "<< /Type /Page /Parent 3 0 R /MediaBox [0 0 612 792] /Contents 5 0 R /Resources << >> >>")
	b.AddStream(5, "", HexagonContent)
	return b.BytesCompressed(6, 7, 2, 3, 4)
}

// Unbalanced has one page whose content restores a graphics state it never saved.
func Unbalanced() []byte {
	b := New("1.4")
	b.Root = 1
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] /Contents [4 0 R 5 0 R] >>")
	b.AddStream(4, "", "1 0 0 RG")
	b.AddStream(5, "", "Q 0 0 m 100 100 l S")
	return b.Bytes()
}
