package annotation

import (
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func fragString(t *testing.T, el *etree.Element) string {
	t.Helper()

	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.SetRoot(el.Copy())
	out, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("serialize fragment: %v", err)
	}
	return out
}

func TestParseFragmentsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		frags, err := ParseFragments(raw)
		if err != nil {
			t.Fatalf("ParseFragments(%q): %v", raw, err)
		}
		if len(frags) != 0 {
			t.Fatalf("ParseFragments(%q): expected no fragments, got %d", raw, len(frags))
		}
	}
}

func TestParseFragmentsUnwrapsContainer(t *testing.T) {
	frags, err := ParseFragments(`<annotation><a xmlns="http://one"/><b xmlns="http://two"/></annotation>`)
	if err != nil {
		t.Fatalf("ParseFragments: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}
	if frags[0].Tag != "a" || frags[1].Tag != "b" {
		t.Fatalf("unexpected fragment order: %q, %q", frags[0].Tag, frags[1].Tag)
	}
}

func TestParseFragmentsBareSiblings(t *testing.T) {
	frags, err := ParseFragments(`<a xmlns="http://one"/><b xmlns="http://two"/>`)
	if err != nil {
		t.Fatalf("ParseFragments: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments without container, got %d", len(frags))
	}
}

func TestParseFragmentsKeepsForeignAnnotationTag(t *testing.T) {
	// a namespaced element named "annotation" is user content, not the container
	frags, err := ParseFragments(`<x:annotation xmlns:x="http://example.com/x"><x:note>n</x:note></x:annotation>`)
	if err != nil {
		t.Fatalf("ParseFragments: %v", err)
	}
	if len(frags) != 1 || frags[0].Tag != "annotation" || frags[0].NamespaceURI() != "http://example.com/x" {
		t.Fatalf("namespaced annotation element must not be unwrapped: %+v", frags)
	}
}

func TestParseFragmentsMalformed(t *testing.T) {
	for _, raw := range []string{"<unterminated", "<a><b></a></b>", "not xml at all <"} {
		_, err := ParseFragments(raw)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("ParseFragments(%q): expected ParseError, got %v", raw, err)
		}
	}
}

func TestSerializeFragmentsEmptyClearsContainer(t *testing.T) {
	out, err := SerializeFragments(nil)
	if err != nil {
		t.Fatalf("SerializeFragments: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty string for empty fragment list, got %q", out)
	}
}

func TestRoundTripPreservesPrefixesAndAttributeOrder(t *testing.T) {
	frag := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" rdf:about="#meta1" zzz="last" aaa="first"><rdf:Description>text</rdf:Description></rdf:RDF>`

	frags, err := ParseFragments(`<annotation>` + frag + `</annotation>`)
	if err != nil {
		t.Fatalf("ParseFragments: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected one fragment, got %d", len(frags))
	}
	if got := fragString(t, frags[0]); got != frag {
		t.Fatalf("fragment not byte-stable:\n got %s\nwant %s", got, frag)
	}

	out, err := SerializeFragments(frags)
	if err != nil {
		t.Fatalf("SerializeFragments: %v", err)
	}
	if !strings.Contains(out, frag) {
		t.Fatalf("serialized container lost original fragment bytes:\n%s", out)
	}

	// and the cycle is stable
	again, err := ParseFragments(out)
	if err != nil {
		t.Fatalf("ParseFragments (second pass): %v", err)
	}
	out2, err := SerializeFragments(again)
	if err != nil {
		t.Fatalf("SerializeFragments (second pass): %v", err)
	}
	if out != out2 {
		t.Fatalf("serialization not stable across cycles:\n%s\n%s", out, out2)
	}
}
