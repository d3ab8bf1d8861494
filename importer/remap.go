package importer

import (
	"github.com/lvillar/pdftpl/object"
)

// Mapping records, for one import, the destination reference allocated for each
// source reference. It is injective and covers every copied object.
type Mapping map[object.Reference]object.Reference

// Lookup returns the destination reference for src.
func (m Mapping) Lookup(src object.Reference) (object.Reference, bool) {
	dst, ok := m[src]
	return dst, ok
}

// Remap returns a copy of obj in which every reference is replaced by its image
// under m. References that m does not cover become null, so the result never
// points outside the destination store. The second result counts them.
// obj itself is not modified.
func Remap(obj object.Object, m Mapping) (object.Object, int) {
	var dropped int
	out := remapValue(obj, m, &dropped)
	return out, dropped
}

func remapValue(obj object.Object, m Mapping, dropped *int) object.Object {
	switch v := obj.(type) {
	case object.Reference:
		if dst, ok := m[v]; ok {
			return dst
		}
		*dropped++
		return object.Null{}
	case object.Array:
		out := make(object.Array, len(v))
		for i, item := range v {
			out[i] = remapValue(item, m, dropped)
		}
		return out
	case object.Dict:
		return remapDict(v, m, dropped)
	case object.Stream:
		return object.Stream{
			Dict: remapDict(v.Dict, m, dropped),
			Data: append([]byte(nil), v.Data...),
		}
	case object.String:
		return object.String{Value: append([]byte(nil), v.Value...), IsHex: v.IsHex}
	case object.Null, object.Boolean, object.Integer, object.Real, object.Name:
		return v
	case nil:
		return object.Null{}
	}
	return obj
}

func remapDict(d object.Dict, m Mapping, dropped *int) object.Dict {
	if d == nil {
		return nil
	}
	out := make(object.Dict, len(d))
	for k, item := range d {
		out[k] = remapValue(item, m, dropped)
	}
	return out
}
