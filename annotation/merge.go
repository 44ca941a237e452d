package annotation

import "github.com/beevik/etree"

// Fragment identity is the pair (namespace URI, local tag). Prefixes are
// never compared: two fragments whose different prefixes resolve to the same
// URI are the same annotation kind.

// Identity resolves the qualified identity of a fragment.
func Identity(el *etree.Element) (space, tag string) {
	return el.NamespaceURI(), el.Tag
}

// Merge combines a new fragment into the existing ordered fragment list. A
// fragment with the same identity is replaced in place, preserving its
// position; otherwise the new fragment is appended. Fragments with a
// different identity are never touched or reordered.
func Merge(frags []*etree.Element, g *etree.Element) []*etree.Element {
	gspace, gtag := Identity(g)
	for i, f := range frags {
		if space, tag := Identity(f); space == gspace && tag == gtag {
			out := make([]*etree.Element, len(frags))
			copy(out, frags)
			out[i] = g
			return out
		}
	}
	return append(frags, g)
}

// Remove drops every fragment matching the given identity and reports whether
// anything was removed. An empty space matches fragments of the given tag in
// any namespace.
func Remove(frags []*etree.Element, space, tag string) ([]*etree.Element, bool) {
	var (
		kept    []*etree.Element
		removed bool
	)
	for _, f := range frags {
		if fragmentMatches(f, space, tag) {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	return kept, removed
}

// Find returns the first fragment matching the given identity, or nil. An
// empty space matches fragments of the given tag in any namespace.
func Find(frags []*etree.Element, space, tag string) *etree.Element {
	for _, f := range frags {
		if fragmentMatches(f, space, tag) {
			return f
		}
	}
	return nil
}

func fragmentMatches(el *etree.Element, space, tag string) bool {
	if el.Tag != tag {
		return false
	}
	return space == "" || el.NamespaceURI() == space
}
