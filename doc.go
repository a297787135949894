// Package fracpack implements the fracpack binary serialization codec: a
// split fixed/heap layout with relative offsets, size-tagged extensible
// records, and sentinel encodings for optional and empty values.
//
// A value's fixed region holds either the value itself (scalars, arrays of
// scalars, records with no variable fields) or a 4-byte offset slot
// pointing into the trailing heap region (strings, sequences, optionals,
// and records that contain at least one variable field). Encoding proceeds
// in three passes over a single growable buffer — fixed bytes, then
// per-field offset patching, then the variable bodies themselves — and
// decoding advances a fixed cursor and a heap cursor in lockstep, requiring
// every offset encountered to equal the heap cursor at that moment.
//
// Components:
//   - internal/cursor: the append-only Writer and bounds-checked Reader
//     every other part of this package is built on.
//   - schema.go: reflection-based type descriptors (typeInfo), compiled
//     once per Go type and cached.
//   - scalar.go, stringcodec.go, sequence.go, option.go, record.go: the
//     pack/unpack/verify implementations for each wire shape.
//   - Packable: an escape hatch for types that need to control their own
//     wire representation instead of going through the reflection engine.
//
// Go's *T naturally expresses fracpack's Option[T]: nil is absent, and a
// non-nil pointer to a zero-value string or slice is present-but-empty.
// Nested optionals (**T) are rejected when a type's schema is built.
//
// Marshal, Unmarshal, and Verify are the package's generic entry points;
// Codec exposes the same operations bound to a specific set of Options.
package fracpack
