package annotation

import (
	"strings"

	"github.com/beevik/etree"
)

// ContainerTag is the enclosing element the host document model wraps all
// annotation content into. It is an artifact of the storage format, not user
// content, and is stripped on parse and re-added on serialization.
const ContainerTag = "annotation"

// ParseFragments parses raw annotation content into its ordered top level
// fragments. A single enclosing <annotation> element is unwrapped. Empty or
// whitespace-only input yields no fragments and no error; anything else that
// is not well-formed XML yields a ParseError.
//
// Namespace prefixes and attribute order survive exactly as written so
// fragments that are not being modified re-emit byte-stable.
func ParseFragments(raw string) ([]*etree.Element, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	tops := doc.ChildElements()
	if len(tops) == 1 && tops[0].Space == "" && tops[0].Tag == ContainerTag {
		tops = tops[0].ChildElements()
	}
	return tops, nil
}

// SerializeFragments renders fragments back into the stored wire form: a
// single <annotation> container holding the fragments in the given order. An
// empty fragment list serializes to an empty string so callers clear the
// container instead of retaining an empty wrapper.
func SerializeFragments(frags []*etree.Element) (string, error) {
	if len(frags) == 0 {
		return "", nil
	}
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	container := doc.CreateElement(ContainerTag)
	for _, f := range frags {
		container.AddChild(f.Copy())
	}
	out, err := doc.WriteToString()
	if err != nil {
		return "", &SerializeError{Tag: ContainerTag, Err: err}
	}
	return out, nil
}
