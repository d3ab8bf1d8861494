package object

import (
	"sort"
)

// GetName returns the value of a name entry, or empty string if not found.
func (d Dict) GetName(key Name) Name {
	if v, ok := d[key]; ok {
		if n, ok := v.(Name); ok {
			return n
		}
	}
	return ""
}

// GetInt returns the value of an integer entry, or 0 if not found.
func (d Dict) GetInt(key Name) (int64, bool) {
	if v, ok := d[key]; ok {
		switch n := v.(type) {
		case Integer:
			return int64(n), true
		case Real:
			return int64(n), true
		}
	}
	return 0, false
}

// GetDict returns a sub-dictionary, or nil if not found.
func (d Dict) GetDict(key Name) Dict {
	if v, ok := d[key]; ok {
		if sub, ok := v.(Dict); ok {
			return sub
		}
	}
	return nil
}

// GetArray returns an array entry, or nil if not found.
func (d Dict) GetArray(key Name) Array {
	if v, ok := d[key]; ok {
		if arr, ok := v.(Array); ok {
			return arr
		}
	}
	return nil
}

// GetString returns the raw bytes of a string entry as a Go string.
func (d Dict) GetString(key Name) string {
	if v, ok := d[key]; ok {
		if s, ok := v.(String); ok {
			return string(s.Value)
		}
	}
	return ""
}

// Keys returns the dictionary keys in lexical order. Traversals that allocate
// object numbers iterate through Keys so numbering is deterministic.
func (d Dict) Keys() []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns a shallow copy of d.
func (d Dict) Clone() Dict {
	if d == nil {
		return nil
	}
	c := make(Dict, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// Number converts an Integer or Real to float64.
func Number(obj Object) (float64, bool) {
	switch n := obj.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}

// References returns every indirect reference contained in obj, at any depth,
// including those inside stream dictionaries. Order follows Dict.Keys and array
// order.
func References(obj Object) []Reference {
	var refs []Reference
	collectRefs(obj, &refs)
	return refs
}

func collectRefs(obj Object, refs *[]Reference) {
	switch v := obj.(type) {
	case Reference:
		*refs = append(*refs, v)
	case Array:
		for _, item := range v {
			collectRefs(item, refs)
		}
	case Dict:
		for _, k := range v.Keys() {
			collectRefs(v[k], refs)
		}
	case Stream:
		collectRefs(v.Dict, refs)
	case Null, Boolean, Integer, Real, Name, String:
	case nil:
	}
}
