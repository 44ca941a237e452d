// Package annotation converts between typed values and namespaced XML
// fragments stored as opaque annotation strings on elements of an external
// document model. It never caches state between calls - every operation is a
// single read-modify-write cycle against the live element, so callers remain
// free to add their own synchronization around a given element.
package annotation

// Target is the complete surface the annotation layer consumes from the host
// document model. Implementations are expected to be nil-receiver safe so an
// absent element behaves as "no annotation" rather than a fault.
type Target interface {
	// Present reports whether the underlying element exists at all.
	Present() bool
	// IsAnnotationSet reports whether any annotation was ever stored.
	IsAnnotationSet() bool
	// AnnotationString returns the stored raw annotation content.
	AnnotationString() string
	// SetAnnotationString replaces the entire stored annotation content.
	SetAnnotationString(raw string) error
}

// Handle is a non-owning reference to an annotatable element. The zero value
// (and Wrap(nil)) is a valid absent handle: reads report nothing, writes are
// silently dropped.
type Handle struct {
	target Target
}

// Wrap borrows an element for the duration of subsequent calls. The element
// stays owned by the host document model.
func Wrap(t Target) Handle {
	return Handle{target: t}
}

// Present reports whether the handle refers to an existing element.
func (h Handle) Present() bool {
	return h.target != nil && h.target.Present()
}

// Raw returns the stored annotation string. The second result is false when
// the handle is absent or no annotation was ever set - never an error.
func (h Handle) Raw() (string, bool) {
	if !h.Present() || !h.target.IsAnnotationSet() {
		return "", false
	}
	return h.target.AnnotationString(), true
}

// SetRaw replaces the entire stored annotation string. Writing through an
// absent handle is a no-op: callers may legitimately hold optional elements
// during incremental model construction.
func (h Handle) SetRaw(raw string) error {
	if !h.Present() {
		return nil
	}
	if err := h.target.SetAnnotationString(raw); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}
