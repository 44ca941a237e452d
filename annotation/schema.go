package annotation

import (
	"fmt"
	"strconv"
)

// Static field descriptors mapping payload fields to XML. Each payload
// declares a fixed table of fields at compile time - there is no reflection
// anywhere on the typed path.

// Role determines where a field lives inside the fragment.
type Role int

const (
	// RoleChild renders the field as a child element holding text content.
	RoleChild Role = iota
	// RoleAttr renders the field as an attribute on the fragment root.
	RoleAttr
	// RoleXMLNS designates the field holding the namespace URI emitted as
	// the xmlns declaration on the fragment root.
	RoleXMLNS
)

// Field binds one payload field to its XML representation through accessor
// closures over the payload's storage.
type Field struct {
	Name     string
	Role     Role
	Optional bool
	Get      func() (string, error)
	Set      func(string) error
}

// Schema describes how a payload maps to exactly one top level fragment.
// Space may be left empty when the namespace URI is carried by a RoleXMLNS
// field instead of being fixed by the payload type.
type Schema struct {
	Space  string
	Prefix string
	Tag    string
	Fields []Field
}

// Payload is implemented by typed values that can be attached to and read
// from an element. The returned schema's field closures must be bound to the
// receiver so Attach and Read operate on live values.
type Payload interface {
	AnnotationSchema() Schema
}

// Optional marks a field as optional: omitted from the fragment when empty
// and tolerated when missing on read.
func Optional(f Field) Field {
	f.Optional = true
	return f
}

// Namespace declares the field holding the fragment's namespace URI.
func Namespace(p *string) Field {
	return Field{
		Name: "xmlns",
		Role: RoleXMLNS,
		Get:  func() (string, error) { return *p, nil },
		Set:  func(v string) error { *p = v; return nil },
	}
}

// StringChild declares a string field rendered as a child element.
func StringChild(name string, p *string) Field {
	return stringField(name, RoleChild, p)
}

// StringAttr declares a string field rendered as a root attribute.
func StringAttr(name string, p *string) Field {
	return stringField(name, RoleAttr, p)
}

// IntChild declares an integer field rendered as a child element.
func IntChild(name string, p *int) Field {
	return intField(name, RoleChild, p)
}

// IntAttr declares an integer field rendered as a root attribute.
func IntAttr(name string, p *int) Field {
	return intField(name, RoleAttr, p)
}

// FloatChild declares a float field rendered as a child element.
func FloatChild(name string, p *float64) Field {
	return Field{
		Name: name,
		Role: RoleChild,
		Get:  func() (string, error) { return strconv.FormatFloat(*p, 'g', -1, 64), nil },
		Set: func(v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("field %q: invalid number %q", name, v)
			}
			*p = f
			return nil
		},
	}
}

// BoolChild declares a boolean field rendered as a child element.
func BoolChild(name string, p *bool) Field {
	return Field{
		Name: name,
		Role: RoleChild,
		Get:  func() (string, error) { return strconv.FormatBool(*p), nil },
		Set: func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("field %q: invalid boolean %q", name, v)
			}
			*p = b
			return nil
		},
	}
}

func stringField(name string, role Role, p *string) Field {
	return Field{
		Name: name,
		Role: role,
		Get:  func() (string, error) { return *p, nil },
		Set:  func(v string) error { *p = v; return nil },
	}
}

func intField(name string, role Role, p *int) Field {
	return Field{
		Name: name,
		Role: role,
		Get:  func() (string, error) { return strconv.Itoa(*p), nil },
		Set: func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("field %q: invalid integer %q", name, v)
			}
			*p = n
			return nil
		},
	}
}
