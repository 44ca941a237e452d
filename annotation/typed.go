package annotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/multierr"
)

// Attach serializes the payload into a fragment and stores it on the element,
// replacing a previously attached fragment of the same identity and leaving
// every unrelated fragment untouched. Pre-existing malformed content is
// reported as ParseError instead of being overwritten silently.
func Attach(h Handle, p Payload) error {
	frag, err := serialize(p)
	if err != nil {
		return err
	}
	return AttachFragment(h, frag)
}

// AttachFragment merges an already built fragment into the element's
// annotation content. This is the raw-fragment equivalent of Attach for
// callers not using the typed path.
func AttachFragment(h Handle, frag *etree.Element) error {
	raw, _ := h.Raw()
	frags, err := ParseFragments(raw)
	if err != nil {
		return err
	}
	out, err := SerializeFragments(Merge(frags, frag))
	if err != nil {
		return err
	}
	return h.SetRaw(out)
}

// Read locates the fragment matching the payload's identity and decodes it
// into the payload. An absent handle, unset annotation or missing fragment
// yields ErrNotFound; a fragment of the wrong shape yields DeserializeError.
func Read(h Handle, p Payload) error {
	raw, ok := h.Raw()
	if !ok {
		return ErrNotFound
	}
	frags, err := ParseFragments(raw)
	if err != nil {
		return err
	}
	s := p.AnnotationSchema()
	el := Find(frags, expectedSpace(s), s.Tag)
	if el == nil {
		return ErrNotFound
	}
	return deserialize(el, s)
}

// Detach removes the fragment matching the payload's identity. Removing the
// last fragment clears the annotation entirely instead of leaving an empty
// container behind. Detaching from an absent handle or an element without a
// matching fragment is a no-op.
func Detach(h Handle, p Payload) error {
	s := p.AnnotationSchema()
	return DetachIdentity(h, expectedSpace(s), s.Tag)
}

// DetachIdentity removes every fragment with the given identity. An empty
// space removes fragments of the given tag in any namespace.
func DetachIdentity(h Handle, space, tag string) error {
	raw, ok := h.Raw()
	if !ok {
		return nil
	}
	frags, err := ParseFragments(raw)
	if err != nil {
		return err
	}
	kept, removed := Remove(frags, space, tag)
	if !removed {
		return nil
	}
	out, err := SerializeFragments(kept)
	if err != nil {
		return err
	}
	return h.SetRaw(out)
}

// expectedSpace resolves the namespace URI a payload's fragment is expected
// to carry: the schema's fixed space when declared, otherwise the current
// value of its namespace field. Empty means "match by tag alone".
func expectedSpace(s Schema) string {
	if s.Space != "" {
		return s.Space
	}
	for _, f := range s.Fields {
		if f.Role == RoleXMLNS && f.Get != nil {
			if v, err := f.Get(); err == nil && v != "" {
				return v
			}
		}
	}
	return ""
}

func serialize(p Payload) (*etree.Element, error) {
	s := p.AnnotationSchema()
	if s.Tag == "" {
		return nil, &SerializeError{Tag: s.Tag, Err: errors.New("payload schema has no root tag")}
	}

	name := s.Tag
	if s.Prefix != "" {
		name = s.Prefix + ":" + s.Tag
	}
	root := etree.NewElement(name)

	space := s.Space
	for _, f := range s.Fields {
		if f.Role != RoleXMLNS {
			continue
		}
		v, err := f.Get()
		if err != nil {
			return nil, &SerializeError{Tag: s.Tag, Err: err}
		}
		if v != "" {
			space = v
		}
	}
	if space != "" {
		if s.Prefix != "" {
			root.CreateAttr("xmlns:"+s.Prefix, space)
		} else {
			root.CreateAttr("xmlns", space)
		}
	}

	for _, f := range s.Fields {
		if f.Role == RoleXMLNS {
			continue
		}
		v, err := f.Get()
		if err != nil {
			return nil, &SerializeError{Tag: s.Tag, Err: fmt.Errorf("field %q: %w", f.Name, err)}
		}
		if v == "" && f.Optional {
			continue
		}
		switch f.Role {
		case RoleAttr:
			root.CreateAttr(f.Name, v)
		case RoleChild:
			root.CreateElement(f.Name).SetText(v)
		}
	}
	return root, nil
}

func deserialize(el *etree.Element, s Schema) error {
	var errs error
	for _, f := range s.Fields {
		switch f.Role {
		case RoleXMLNS:
			errs = multierr.Append(errs, f.Set(el.NamespaceURI()))
		case RoleAttr:
			attr := el.SelectAttr(f.Name)
			if attr == nil {
				if !f.Optional {
					errs = multierr.Append(errs, fmt.Errorf("missing attribute %q", f.Name))
				}
				continue
			}
			errs = multierr.Append(errs, f.Set(attr.Value))
		case RoleChild:
			kids := childrenByTag(el, f.Name)
			switch {
			case len(kids) == 0:
				if !f.Optional {
					errs = multierr.Append(errs, fmt.Errorf("missing element %q", f.Name))
				}
			case len(kids) > 1:
				errs = multierr.Append(errs, fmt.Errorf("element %q appears %d times, expected one", f.Name, len(kids)))
			default:
				errs = multierr.Append(errs, f.Set(strings.TrimSpace(kids[0].Text())))
			}
		}
	}
	if errs != nil {
		return &DeserializeError{Tag: s.Tag, Err: errs}
	}
	return nil
}

func childrenByTag(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}
