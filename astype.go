package vmap

import "unsafe"

// Span is a contiguous byte region with a well-defined pointer, such as
// a Map or MapMut. AsType reinterprets a prefix of a Span as a
// plain-old-data value without copying.
type Span interface {
	Bytes() []byte
}

// rawSpan adapts a plain byte slice to Span, used internally to chain
// AsType across a tail region. Go's generic methods cannot introduce a
// fresh type parameter, so tail reinterpretation is a free function
// (TailType) rather than a method on AsType.
type rawSpan []byte

// Bytes returns the underlying slice.
func (r rawSpan) Bytes() []byte { return []byte(r) }

// AsType is a zero-copy, typed view of the first sizeof(T) bytes of a
// Span. It owns the underlying Span for as long as the view is live.
type AsType[T any, S Span] struct {
	span S
	ptr  *T
}

// NewAsType verifies that s has at least sizeof(T) bytes and that its
// address is aligned to T, then returns a typed view. On failure it
// returns the original span so the caller can handle misalignment
// gracefully instead of losing the resource. On success the second
// result is the zero S, since the view now owns the span.
func NewAsType[T any, S Span](s S) (*AsType[T, S], S, error) {
	b := s.Bytes()
	var zero T
	size := unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)

	if uintptr(len(b)) < size {
		return nil, s, NewInputError(OpNone, InvalidRange)
	}
	ptr := unsafe.Pointer(&b[0])
	if uintptr(ptr)%align != 0 {
		return nil, s, NewInputError(OpNone, InvalidRange)
	}
	var none S
	return &AsType[T, S]{span: s, ptr: (*T)(ptr)}, none, nil
}

// Type returns a pointer to the typed value. Mutating through it is safe
// iff S is a mutable span (e.g. MapMut).
func (a *AsType[T, S]) Type() *T { return a.ptr }

// TypeBytes returns the first sizeof(T) bytes of the span.
func (a *AsType[T, S]) TypeBytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(a.ptr)), int(unsafe.Sizeof(*a.ptr)))
}

// TailBytes returns the remainder of the span after the typed prefix.
func (a *AsType[T, S]) TailBytes() []byte {
	b := a.span.Bytes()
	return b[unsafe.Sizeof(*a.ptr):]
}

// TailType reinterprets the tail of view (after its T prefix) as a U,
// chaining typed views over consecutive regions of the same
// underlying span.
func TailType[U any, T any, S Span](view *AsType[T, S]) (*AsType[U, rawSpan], error) {
	tail := rawSpan(view.TailBytes())
	next, _, err := NewAsType[U, rawSpan](tail)
	if err != nil {
		return nil, err
	}
	return next, nil
}
