package pagetree

import (
	"fmt"

	"github.com/lvillar/pdftpl/object"
)

// Inherited returns the value of key for the leaf page, looking first at the leaf
// and then at each ancestor along the /Parent chain. The raw value is returned,
// which may itself be a reference; use Deref to follow it.
//
// A nil result with a nil error means no node on the chain declares key.
// Ancestors that cannot be resolved end the chain. The leaf itself must resolve
// to a dictionary; otherwise an error is returned. No node is modified.
func Inherited(r Resolver, leaf object.Reference, key object.Name) (object.Object, error) {
	obj, err := r.Resolve(leaf)
	if err != nil {
		return nil, fmt.Errorf("pagetree: resolving page %s: %w", leaf, err)
	}
	node, ok := obj.(object.Dict)
	if !ok {
		return nil, fmt.Errorf("pagetree: page %s is not a dictionary", leaf)
	}
	return InheritedFrom(r, node, key), nil
}

// InheritedFrom is Inherited starting from an already resolved node.
func InheritedFrom(r Resolver, node object.Dict, key object.Name) object.Object {
	if v, ok := node[key]; ok && !object.IsNull(v) {
		return v
	}
	for _, ref := range Ancestors(r, node) {
		parent, _ := Deref(r, ref).(object.Dict)
		if v, ok := parent[key]; ok && !object.IsNull(v) {
			return v
		}
	}
	return nil
}

// Ancestors returns the /Parent chain of node, nearest first, stopping at the
// first unresolvable or repeated reference.
func Ancestors(r Resolver, node object.Dict) []object.Reference {
	var chain []object.Reference
	visited := make(map[object.Reference]bool)
	for node != nil {
		parentRef, ok := node["Parent"].(object.Reference)
		if !ok || visited[parentRef] {
			break
		}
		visited[parentRef] = true
		parent, ok := Deref(r, parentRef).(object.Dict)
		if !ok {
			break
		}
		chain = append(chain, parentRef)
		node = parent
	}
	return chain
}
