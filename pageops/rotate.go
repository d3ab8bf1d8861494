package pageops

import (
	"fmt"
	"io"

	"github.com/lvillar/pdftpl"
)

// RotatePages adds angle (90, 180 or 270) to the rotation of the given pages and
// writes the result to w. A nil pages rotates every page.
func RotatePages(w io.Writer, inputPath string, angle int, pages []int) error {
	return New().RotatePages(w, inputPath, angle, pages)
}

// RotatePages is the package-level RotatePages run with p's settings.
func (p *Processor) RotatePages(w io.Writer, inputPath string, angle int, pages []int) error {
	return built(p.rotate(inputPath, angle, pages)).to(w)
}

// RotatePagesToFile is RotatePages writing to outputPath.
func RotatePagesToFile(inputPath, outputPath string, angle int, pages []int) error {
	return New().RotatePagesToFile(inputPath, outputPath, angle, pages)
}

// RotatePagesToFile is RotatePages writing to outputPath.
func (p *Processor) RotatePagesToFile(inputPath, outputPath string, angle int, pages []int) error {
	return built(p.rotate(inputPath, angle, pages)).toFile(outputPath)
}

func (p *Processor) rotate(path string, angle int, pages []int) (*pdftpl.Document, error) {
	switch angle {
	case 90, 180, 270:
	default:
		return nil, fmt.Errorf("pageops: rotation angle must be 90, 180, or 270, got %d", angle)
	}
	return p.rework("rotate", path, pages, func(page *pdftpl.Page, _, _ int) error {
		return page.SetRotation(page.Rotation() + angle)
	})
}
