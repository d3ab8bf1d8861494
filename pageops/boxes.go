package pageops

import (
	"fmt"
	"sort"

	"github.com/phpdave11/gofpdi"
)

// Box is a page boundary box in points.
type Box struct {
	Name          string // "MediaBox", "CropBox", "BleedBox", "TrimBox" or "ArtBox"
	LLX, LLY      float64
	URX, URY      float64
	Width, Height float64
}

// PageBoxes returns the boundary boxes of every page of a PDF, indexed by 1-based
// page number. Boxes a page does not define are reported as gofpdi derives them
// (CropBox from MediaBox, the others from CropBox).
//
// It reads the file with an independent parser, which makes it useful for
// cross-checking documents written by this module.
func PageBoxes(inputPath string) (boxes map[int][]Box, err error) {
	defer func() {
		// gofpdi reports malformed input by panicking.
		if r := recover(); r != nil {
			boxes, err = nil, fmt.Errorf("pageops: reading boxes of %s: %v", inputPath, r)
		}
	}()

	imp := gofpdi.NewImporter()
	imp.SetSourceFile(inputPath)
	if imp.GetNumPages() == 0 {
		return nil, fmt.Errorf("pageops: %s has no pages", inputPath)
	}

	boxes = make(map[int][]Box)
	for pageNum, byName := range imp.GetPageSizes() {
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			dims := byName[name]
			boxes[pageNum] = append(boxes[pageNum], Box{
				Name:   trimSlash(name),
				LLX:    dims["llx"],
				LLY:    dims["lly"],
				URX:    dims["urx"],
				URY:    dims["ury"],
				Width:  dims["w"],
				Height: dims["h"],
			})
		}
	}
	return boxes, nil
}

func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}
