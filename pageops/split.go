package pageops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lvillar/pdftpl"
)

// SplitToFiles writes every page of inputPath to its own file in outputDir,
// named page_001.pdf, page_002.pdf and so on.
func SplitToFiles(inputPath, outputDir string) error {
	return New().SplitToFiles(inputPath, outputDir)
}

// SplitToFiles is the package-level SplitToFiles run with p's settings.
func (p *Processor) SplitToFiles(inputPath, outputDir string) error {
	info, err := os.Stat(outputDir)
	if err != nil {
		return fmt.Errorf("pageops: output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("pageops: %s is not a directory", outputDir)
	}

	total, err := p.countPages(inputPath)
	if err != nil {
		return err
	}
	for n := 1; n <= total; n++ {
		name := filepath.Join(outputDir, fmt.Sprintf("page_%03d.pdf", n))
		if err := built(p.extract(inputPath, n)).toFile(name); err != nil {
			return fmt.Errorf("pageops: splitting page %d: %w", n, err)
		}
	}
	return nil
}

// ExtractPages writes the given pages of inputPath to w, in the order given.
// Page numbers are 1-based; negative numbers count from the last page.
func ExtractPages(w io.Writer, inputPath string, pages ...int) error {
	return New().ExtractPages(w, inputPath, pages...)
}

// ExtractPages is the package-level ExtractPages run with p's settings.
func (p *Processor) ExtractPages(w io.Writer, inputPath string, pages ...int) error {
	return built(p.extract(inputPath, pages...)).to(w)
}

// ExtractPagesToFile is ExtractPages writing to outputPath.
func ExtractPagesToFile(inputPath, outputPath string, pages ...int) error {
	return New().ExtractPagesToFile(inputPath, outputPath, pages...)
}

// ExtractPagesToFile is ExtractPages writing to outputPath.
func (p *Processor) ExtractPagesToFile(inputPath, outputPath string, pages ...int) error {
	return built(p.extract(inputPath, pages...)).toFile(outputPath)
}

// ExtractPageRange extracts pages start through end (inclusive, 1-based).
func ExtractPageRange(w io.Writer, inputPath string, start, end int) error {
	return New().ExtractPageRange(w, inputPath, start, end)
}

// ExtractPageRange is the package-level ExtractPageRange run with p's settings.
func (p *Processor) ExtractPageRange(w io.Writer, inputPath string, start, end int) error {
	if start < 1 || end < start {
		return fmt.Errorf("pageops: invalid page range [%d, %d]", start, end)
	}
	return p.ExtractPages(w, inputPath, span(start, end)...)
}

func (p *Processor) extract(path string, pages ...int) (*pdftpl.Document, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pageops: no pages specified")
	}
	doc, err := p.newDocument()
	if err != nil {
		return nil, err
	}
	if _, err := appendPages(doc, path, pages...); err != nil {
		return nil, err
	}
	return doc, nil
}
