package importer

import (
	"github.com/lvillar/pdftpl/object"
	"github.com/lvillar/pdftpl/pagetree"
	"github.com/lvillar/pdftpl/store"
)

// pending is an object allocated in the destination whose content still refers
// to source references.
type pending struct {
	src, dst object.Reference
	shape    object.Object
}

// copier walks a source graph and copies it into a store in two passes: run
// allocates one destination object per distinct reachable source reference and
// records the source-shaped content, remap then rewrites that content in terms
// of the new references.
//
// The walk uses an explicit queue, so deep or cyclic graphs need neither
// recursion nor special handling: a reference is allocated on first discovery
// and never queued again.
type copier struct {
	src     pagetree.Resolver
	dst     *store.Store
	mapping Mapping
	queue   []pending
	done    []pending

	// skipKey drops a top-level dictionary entry of owner from the copy.
	skipKey func(owner object.Reference, key object.Name) bool
	// prune keeps a reachable object out of the copy; references to it become null.
	prune func(ref object.Reference, obj object.Object) bool
}

func newCopier(src pagetree.Resolver, dst *store.Store) *copier {
	return &copier{src: src, dst: dst, mapping: make(Mapping)}
}

// enqueue allocates a destination object for ref unless it was seen already.
// Missing and null objects are not allocated.
func (c *copier) enqueue(ref object.Reference) {
	if _, ok := c.mapping[ref]; ok {
		return
	}
	obj, err := c.src.Resolve(ref)
	if err != nil || object.IsNull(obj) {
		return
	}
	if c.prune != nil && c.prune(ref, obj) {
		return
	}
	c.mapping[ref] = c.dst.Allocate(object.Null{})
	c.queue = append(c.queue, pending{src: ref, dst: c.mapping[ref], shape: obj})
}

// enqueueValue enqueues every reference contained in v.
func (c *copier) enqueueValue(v object.Object) {
	for _, ref := range object.References(v) {
		c.enqueue(ref)
	}
}

// run drains the queue breadth first.
func (c *copier) run() {
	for len(c.queue) > 0 {
		p := c.queue[0]
		c.queue = c.queue[1:]
		p.shape = c.strip(p.src, p.shape)
		c.enqueueValue(p.shape)
		c.done = append(c.done, p)
	}
}

// strip removes the entries skipKey rejects from a dictionary or stream dictionary.
func (c *copier) strip(owner object.Reference, obj object.Object) object.Object {
	if c.skipKey == nil {
		return obj
	}
	filter := func(d object.Dict) object.Dict {
		var out object.Dict
		for k := range d {
			if !c.skipKey(owner, k) {
				continue
			}
			if out == nil {
				out = d.Clone()
			}
			delete(out, k)
		}
		if out == nil {
			return d
		}
		return out
	}
	switch v := obj.(type) {
	case object.Dict:
		return filter(v)
	case object.Stream:
		return object.Stream{Dict: filter(v.Dict), Data: v.Data}
	}
	return obj
}

// remap stores the rewritten content of every copied object and returns how many
// references had no image in the mapping.
func (c *copier) remap() (int, error) {
	var dropped int
	for _, p := range c.done {
		if err := c.dst.Set(p.dst, remapValue(p.shape, c.mapping, &dropped)); err != nil {
			return dropped, err
		}
	}
	return dropped, nil
}
