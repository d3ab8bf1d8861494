package pageops

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/lvillar/pdftpl"
)

// MergeFiles concatenates the pages of inputPaths, in argument order, into a
// new file at outputPath.
func MergeFiles(outputPath string, inputPaths ...string) error {
	return New().MergeFiles(outputPath, inputPaths...)
}

// MergeFiles is the package-level MergeFiles run with p's settings.
func (p *Processor) MergeFiles(outputPath string, inputPaths ...string) error {
	return built(p.merge(inputPaths)).toFile(outputPath)
}

// Merge concatenates the pages of inputPaths and writes the result to w.
func Merge(w io.Writer, inputPaths ...string) error {
	return New().Merge(w, inputPaths...)
}

// Merge is the package-level Merge run with p's settings.
func (p *Processor) Merge(w io.Writer, inputPaths ...string) error {
	return built(p.merge(inputPaths)).to(w)
}

func (p *Processor) merge(paths []string) (*pdftpl.Document, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("pageops: no input files provided")
	}
	doc, err := p.newDocument()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		total, err := p.countPages(path)
		if err != nil {
			return nil, err
		}
		if _, err := appendPages(doc, path, span(1, total)...); err != nil {
			return nil, fmt.Errorf("pageops: merging %s: %w", path, err)
		}
	}
	p.log.WithFields(logrus.Fields{"inputs": len(paths), "pages": doc.PageCount()}).Debug("merged")
	return doc, nil
}
