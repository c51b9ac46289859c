package tags

import (
	"sort"
	"strings"
)

// RequesterPrefix marks tags owned by the sync. Every other tag on an item is
// left alone.
const RequesterPrefix = "Requester: "

// Set is an unordered collection of distinct tags.
type Set map[string]struct{}

// New builds a set from the given tags, dropping duplicates.
func New(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts the given tags.
func (s Set) Add(values ...string) {
	for _, v := range values {
		s[v] = struct{}{}
	}
}

// Has reports whether the tag is present.
func (s Set) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Len returns the number of distinct tags.
func (s Set) Len() int { return len(s) }

// Equal reports whether both sets hold exactly the same tags.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

// Union returns a new set holding the tags of s and other.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// Filter returns a new set with the tags for which keep returns true.
func (s Set) Filter(keep func(string) bool) Set {
	out := make(Set, len(s))
	for v := range s {
		if keep(v) {
			out[v] = struct{}{}
		}
	}
	return out
}

// Sorted returns the tags in lexical order. The order carries no meaning; it
// keeps request bodies and logs stable between runs.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// RequesterTag formats the tag naming a requester.
func RequesterTag(name string) string {
	return RequesterPrefix + name
}

// IsRequesterTag reports whether the tag is managed by the sync.
func IsRequesterTag(tag string) bool {
	return strings.HasPrefix(tag, RequesterPrefix)
}

// WithoutRequesters returns the tags that are not managed by the sync.
func (s Set) WithoutRequesters() Set {
	return s.Filter(func(tag string) bool { return !IsRequesterTag(tag) })
}

// Requesters returns only the tags managed by the sync.
func (s Set) Requesters() Set {
	return s.Filter(IsRequesterTag)
}
