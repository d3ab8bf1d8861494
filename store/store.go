// Package store implements the per-document object store: the table that owns
// every object of a document under construction and hands out references.
//
// A Store only grows. Objects are added by allocation or by importing a template
// and are never removed individually; Rollback exists solely to discard a batch
// of objects written by an import that failed.
package store

import (
	"errors"
	"fmt"
	"iter"

	"go.uber.org/multierr"

	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
)

// ErrUnknownReference is returned when a reference does not name an object of the store.
var ErrUnknownReference = errors.New("store: unknown reference")

// Store owns the objects of one document.
type Store struct {
	objects map[int]object.Object
	order   []object.Reference // allocation order, used for serialization
	info    object.Reference
	root    object.Reference
}

// NewEmpty returns a store with no objects and no roots. Callers that fill it from
// a template set the roots with SetInfo and SetRoot and then call Complete.
func NewEmpty() *Store {
	return &Store{objects: make(map[int]object.Object)}
}

// New returns a store holding a minimal valid document: an empty information
// dictionary, a catalog and a page tree root without kids.
func New() *Store {
	s := NewEmpty()
	s.Complete()
	return s
}

// Complete synthesizes whichever of the information dictionary, the catalog and
// the page tree root is missing.
func (s *Store) Complete() {
	if _, ok := s.lookup(s.info).(object.Dict); !ok {
		s.info = s.Allocate(object.Dict{})
	}
	cat, ok := s.lookup(s.root).(object.Dict)
	if !ok {
		cat = object.Dict{"Type": object.Name("Catalog")}
		s.root = s.Allocate(cat)
	}
	if _, ok := s.pagesRoot(); !ok {
		cat["Pages"] = s.Allocate(object.Dict{
			"Type":  object.Name("Pages"),
			"Count": object.Integer(0),
			"Kids":  object.Array{},
		})
	}
}

func (s *Store) lookup(ref object.Reference) object.Object {
	if ref.IsZero() {
		return nil
	}
	return s.objects[ref.Number]
}

// Allocate stores obj under a fresh reference and returns it.
func (s *Store) Allocate(obj object.Object) object.Reference {
	if obj == nil {
		obj = object.Null{}
	}
	ref := object.Ref(len(s.order) + 1)
	s.objects[ref.Number] = obj
	s.order = append(s.order, ref)
	return ref
}

// Resolve returns the object stored under ref.
func (s *Store) Resolve(ref object.Reference) (object.Object, error) {
	obj, ok := s.objects[ref.Number]
	if !ok || ref.Generation != 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, ref)
	}
	return obj, nil
}

// Set replaces the object stored under ref.
func (s *Store) Set(ref object.Reference, obj object.Object) error {
	if _, ok := s.objects[ref.Number]; !ok || ref.Generation != 0 {
		return fmt.Errorf("%w: %s", ErrUnknownReference, ref)
	}
	if obj == nil {
		obj = object.Null{}
	}
	s.objects[ref.Number] = obj
	return nil
}

// Dict resolves ref and asserts that it holds a dictionary.
func (s *Store) Dict(ref object.Reference) (object.Dict, error) {
	obj, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	d, ok := obj.(object.Dict)
	if !ok {
		return nil, fmt.Errorf("store: %s is a %T, not a dictionary", ref, obj)
	}
	return d, nil
}

// Len returns the number of objects in the store.
func (s *Store) Len() int {
	return len(s.order)
}

// References returns all references in allocation order.
func (s *Store) References() []object.Reference {
	return append([]object.Reference(nil), s.order...)
}

// All iterates over the objects in allocation order.
func (s *Store) All() iter.Seq2[object.Reference, object.Object] {
	return func(yield func(object.Reference, object.Object) bool) {
		for _, ref := range s.order {
			if !yield(ref, s.objects[ref.Number]) {
				return
			}
		}
	}
}

// Info returns the reference of the document information dictionary.
func (s *Store) Info() object.Reference { return s.info }

// Root returns the reference of the document catalog.
func (s *Store) Root() object.Reference { return s.root }

// SetInfo points the store's information dictionary at ref.
func (s *Store) SetInfo(ref object.Reference) { s.info = ref }

// SetRoot points the store's catalog at ref.
func (s *Store) SetRoot(ref object.Reference) { s.root = ref }

// Catalog returns the catalog dictionary.
func (s *Store) Catalog() (object.Dict, error) {
	return s.Dict(s.root)
}

// InfoDict returns the information dictionary.
func (s *Store) InfoDict() (object.Dict, error) {
	return s.Dict(s.info)
}

// Pages returns the reference of the page tree root.
func (s *Store) Pages() object.Reference {
	ref, _ := s.pagesRoot()
	return ref
}

func (s *Store) pagesRoot() (object.Reference, bool) {
	cat, ok := s.lookup(s.root).(object.Dict)
	if !ok {
		return object.Reference{}, false
	}
	ref, ok := cat["Pages"].(object.Reference)
	if !ok {
		return object.Reference{}, false
	}
	_, ok = s.lookup(ref).(object.Dict)
	return ref, ok
}

// Checkpoint marks the current end of the store.
type Checkpoint struct {
	n          int
	info, root object.Reference
}

// Checkpoint records the store state so a failing import can be undone.
func (s *Store) Checkpoint() Checkpoint {
	return Checkpoint{n: len(s.order), info: s.info, root: s.root}
}

// Rollback discards every object allocated after cp and restores the roots.
// Objects that existed at cp and were modified since are not restored; importers
// only write to objects they allocated.
func (s *Store) Rollback(cp Checkpoint) {
	for _, ref := range s.order[cp.n:] {
		delete(s.objects, ref.Number)
	}
	s.order = s.order[:cp.n]
	s.info, s.root = cp.info, cp.root
}

// Check verifies that every reference held by any object resolves in the store.
// All violations are reported together.
func (s *Store) Check() error {
	var errs error
	for ref, obj := range s.All() {
		for _, target := range object.References(obj) {
			if _, err := s.Resolve(target); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("store: object %s refers to %s: %w", ref, target, ErrUnknownReference))
			}
		}
	}
	for _, root := range []object.Reference{s.info, s.root} {
		if _, err := s.Resolve(root); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store: trailer root: %w", err))
		}
	}
	return errs
}

var _ pagetree.Resolver = (*Store)(nil)
