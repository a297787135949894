package fracpack

import "github.com/psibase-go/fracpack/internal/cursor"

// Packable is the escape hatch for types that need to control their own
// wire representation instead of going through the reflection-based record
// engine. Most application types never need this — plain structs, strings,
// slices, pointers (as optionals) and numeric kinds are handled
// automatically. Implement Packable when a type's layout isn't a plain
// composition of those (a bit-packed value, a type whose wire shape
// depends on a discriminant, and so on).
//
// A type is either fixed-size for its whole lifetime or always variable;
// Variable must return the same value for every instance of T. Only the
// Inline pair is called when Variable() is false, and only the HeapBody
// pair when it is true — implement whichever side applies and let the
// other panic or return a zero value, like the source's scalar macro does
// for its no-op variable-body methods.
type Packable interface {
	// FixedSize is the number of bytes this type occupies in a fixed
	// region: its own size if Variable() is false, or 4 (an offset slot)
	// if Variable() is true.
	FixedSize() uint32
	// Variable reports whether this type has a heap payload.
	Variable() bool

	// PackInline appends FixedSize() bytes directly. Called only when
	// Variable() is false.
	PackInline(dst *cursor.Writer)
	// PackHeapBody appends this value's variable body. Called only when
	// Variable() is true, from the heap cursor position.
	PackHeapBody(dst *cursor.Writer)

	// UnpackInline reads FixedSize() bytes at *pos into the receiver.
	UnpackInline(src *cursor.Reader, pos *uint32) error
	// UnpackHeapBody reads this value's variable body starting at *pos.
	UnpackHeapBody(src *cursor.Reader, pos *uint32) error

	// VerifyInline structurally checks FixedSize() bytes at *pos.
	VerifyInline(src *cursor.Reader, pos *uint32) error
	// VerifyHeapBody structurally checks a variable body starting at *pos.
	VerifyHeapBody(src *cursor.Reader, pos *uint32) error
}
