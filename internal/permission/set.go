package permission

import "sort"

// Set is an unordered collection of permission keys. Resolution merges
// contributions from several sources by union, so duplicate grants collapse
// and fetch interleaving never changes the result.
type Set map[Key]struct{}

// NewSet returns a Set containing the given keys.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k into the set.
func (s Set) Add(k Key) {
	s[k] = struct{}{}
}

// Has reports whether k is in the set.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// HasAny reports whether any of the given keys is in the set.
func (s Set) HasAny(keys ...Key) bool {
	for _, k := range keys {
		if s.Has(k) {
			return true
		}
	}
	return false
}

// Union merges other into s and returns s.
func (s Set) Union(other Set) Set {
	for k := range other {
		s[k] = struct{}{}
	}
	return s
}

// Sorted returns the keys in lexical order, for stable API responses and logs.
func (s Set) Sorted() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the keys in lexical order as plain strings.
func (s Set) Strings() []string {
	keys := s.Sorted()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
