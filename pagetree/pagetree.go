// Package pagetree flattens PDF page trees and resolves inherited page attributes.
//
// Every walk keeps a visited set keyed by reference, so cyclic or otherwise
// malformed trees terminate and each node is visited at most once.
package pagetree

import (
	"iter"

	"github.com/lvillar/pdftpl/object"
)

// Resolver dereferences indirect references. Both the parsed source documents and
// the target object store implement it.
type Resolver interface {
	Resolve(ref object.Reference) (object.Object, error)
}

// InheritableKeys lists the page attributes that may be declared on an ancestor
// Pages node and apply to every descendant leaf.
var InheritableKeys = []object.Name{"MediaBox", "CropBox", "Resources", "Rotate"}

// Deref resolves obj if it is a reference. It returns nil for nil, null and
// unresolvable references.
func Deref(r Resolver, obj object.Object) object.Object {
	if ref, ok := obj.(object.Reference); ok {
		resolved, err := r.Resolve(ref)
		if err != nil {
			return nil
		}
		obj = resolved
	}
	if object.IsNull(obj) {
		return nil
	}
	return obj
}

// IsInternal reports whether node is an internal (Pages) node.
// Nodes without /Type are classified by the presence of /Kids.
func IsInternal(node object.Dict) bool {
	switch node.GetName("Type") {
	case "Pages":
		return true
	case "Page":
		return false
	}
	_, hasKids := node["Kids"]
	return hasKids
}

// Leaves returns a lazy depth-first, left-to-right iterator over the leaf page
// references under root. The sequence can be ranged over any number of times.
// Children that cannot be resolved to dictionaries are skipped.
func Leaves(r Resolver, root object.Reference) iter.Seq[object.Reference] {
	return func(yield func(object.Reference) bool) {
		visited := make(map[object.Reference]bool)
		stack := []object.Reference{root}

		for len(stack) > 0 {
			ref := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[ref] {
				continue
			}
			visited[ref] = true

			node, ok := Deref(r, ref).(object.Dict)
			if !ok {
				continue
			}
			if !IsInternal(node) {
				if !yield(ref) {
					return
				}
				continue
			}

			kids, _ := Deref(r, node["Kids"]).(object.Array)
			// Push in reverse so the leftmost child is expanded first.
			for i := len(kids) - 1; i >= 0; i-- {
				if kid, ok := kids[i].(object.Reference); ok && !visited[kid] {
					stack = append(stack, kid)
				}
			}
		}
	}
}

// Collect returns all leaf references under root in page order.
func Collect(r Resolver, root object.Reference) []object.Reference {
	var refs []object.Reference
	for ref := range Leaves(r, root) {
		refs = append(refs, ref)
	}
	return refs
}

// Count returns the number of leaf pages under root.
func Count(r Resolver, root object.Reference) int {
	n := 0
	for range Leaves(r, root) {
		n++
	}
	return n
}

// ObjectIDForPage returns the leaf at the given zero-based index. Negative
// indices count from the end (-1 is the last page). The second result is false
// when the index is out of range, including when there are no pages at all.
func ObjectIDForPage(r Resolver, root object.Reference, index int) (object.Reference, bool) {
	if index >= 0 {
		i := 0
		for ref := range Leaves(r, root) {
			if i == index {
				return ref, true
			}
			i++
		}
		return object.Reference{}, false
	}

	leaves := Collect(r, root)
	pos := len(leaves) + index
	if pos < 0 {
		return object.Reference{}, false
	}
	return leaves[pos], true
}
