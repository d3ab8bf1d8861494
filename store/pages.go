package store

import (
	"fmt"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
)

// AddPage appends the leaf page at ref to the kids of the page tree root,
// increments its /Count and points the leaf's /Parent at the root.
func (s *Store) AddPage(ref object.Reference) error {
	pagesRef, ok := s.pagesRoot()
	if !ok {
		return fmt.Errorf("store: document has no page tree root")
	}
	pages, err := s.Dict(pagesRef)
	if err != nil {
		return err
	}
	page, err := s.Dict(ref)
	if err != nil {
		return err
	}

	kids, _ := pagetree.Deref(s, pages["Kids"]).(object.Array)
	kids = append(kids, ref)
	if kidsRef, ok := pages["Kids"].(object.Reference); ok {
		if err := s.Set(kidsRef, kids); err != nil {
			return err
		}
	} else {
		pages["Kids"] = kids
	}
	count, _ := pages.GetInt("Count")
	pages["Count"] = object.Integer(count + 1)
	page["Parent"] = pagesRef
	return nil
}

// PageCount returns the number of leaf pages reachable from the page tree root.
func (s *Store) PageCount() int {
	pagesRef, ok := s.pagesRoot()
	if !ok {
		return 0
	}
	return pagetree.Count(s, pagesRef)
}

// PageRefs returns the leaf pages in page order.
func (s *Store) PageRefs() []object.Reference {
	pagesRef, ok := s.pagesRoot()
	if !ok {
		return nil
	}
	return pagetree.Collect(s, pagesRef)
}

// ObjectIDForPage returns the page at the zero-based index; negative indices
// count from the last page. The result is false when no such page exists.
func (s *Store) ObjectIDForPage(index int) (object.Reference, bool) {
	pagesRef, ok := s.pagesRoot()
	if !ok {
		return object.Reference{}, false
	}
	return pagetree.ObjectIDForPage(s, pagesRef, index)
}
