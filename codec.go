package fracpack

import (
	"reflect"

	"github.com/psibase-go/fracpack/internal/cursor"
)

// Codec binds a set of Options to the Marshal/Unmarshal/Verify operations.
// The zero value is ready to use.
type Codec struct {
	opts Options
}

// NewCodec returns a Codec configured with opts (defaults filled in where
// zero).
func NewCodec(opts Options) *Codec {
	return &Codec{opts: opts.withDefaults()}
}

// DefaultCodec is the Codec used by the package-level Marshal, Unmarshal,
// and Verify functions.
var DefaultCodec = NewCodec(Options{})

// Marshal encodes v to its canonical fracpack byte representation.
func Marshal[T any](v T) ([]byte, error) {
	return DefaultCodec.Marshal(v)
}

// Unmarshal decodes a fracpack byte representation into a value of type T.
func Unmarshal[T any](data []byte) (T, error) {
	var out T
	err := DefaultCodec.Unmarshal(data, &out)
	return out, err
}

// Verify structurally validates data as a canonical fracpack encoding of T
// without building a value.
func Verify[T any](data []byte) error {
	var zero T
	ti, err := typeInfoFor(reflect.TypeOf(zero))
	if err != nil {
		return err
	}
	return DefaultCodec.verifyBytes(ti, data)
}

// Marshal encodes v using c's Options.
func (c *Codec) Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	ti, err := typeInfoFor(rv.Type())
	if err != nil {
		return nil, err
	}
	w := cursor.NewWriter(64)
	if err := packTopLevel(ti, addressable(rv), w, c.opts.withDefaults()); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes data into the value out points to, using c's Options.
func (c *Codec) Unmarshal(data []byte, out any) error {
	opts := c.opts.withDefaults()
	if len(data) > opts.MaxBufferSize {
		return errf(ReadPastEnd, "buffer exceeds MaxBufferSize")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer {
		return wrapErr(UnsupportedType, "Unmarshal requires a pointer", nil)
	}
	ti, err := typeInfoFor(rv.Type().Elem())
	if err != nil {
		return err
	}
	r := cursor.NewReader(data)
	pos := uint32(0)
	if err := unpackTopLevel(ti, rv.Elem(), r, &pos, opts); err != nil {
		return err
	}
	if pos != r.Len() {
		return errf(TrailingBytes, "")
	}
	return nil
}

// verifyBytes structurally validates data as a canonical fracpack encoding
// of the type described by ti, without building a value.
func (c *Codec) verifyBytes(ti *typeInfo, data []byte) error {
	opts := c.opts.withDefaults()
	if len(data) > opts.MaxBufferSize {
		return errf(ReadPastEnd, "buffer exceeds MaxBufferSize")
	}
	r := cursor.NewReader(data)
	pos := uint32(0)
	if err := verifyTopLevel(ti, r, &pos, opts); err != nil {
		return err
	}
	if pos != r.Len() {
		return errf(TrailingBytes, "")
	}
	return nil
}

func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.Elem()
}

// packTopLevel encodes a value at the outermost level: variable-size types
// (string, sequence, non-extensible or extensible record) are written as
// their bare variable body with no leading offset slot, since there is
// nothing at the top level for an offset to be relative to (design note
// OQ1). A top-level Option carries an explicit one-byte presence tag
// followed, when present, by T's own top-level encoding.
func packTopLevel(ti *typeInfo, v reflect.Value, w *cursor.Writer, opts Options) error {
	if ti.kind == kOption {
		if v.IsNil() {
			w.Extend([]byte{0})
			return nil
		}
		w.Extend([]byte{1})
		return packTopLevel(ti.elem, v.Elem(), w, opts)
	}
	return packElemAsHeapBody(ti, v, w, 0, opts)
}

func unpackTopLevel(ti *typeInfo, v reflect.Value, r *cursor.Reader, pos *uint32, opts Options) error {
	if ti.kind == kOption {
		tag, err := r.Take(pos, 1)
		if err != nil {
			return wrapErr(ReadPastEnd, "option", err)
		}
		switch tag[0] {
		case 0:
			v.Set(reflect.Zero(ti.rtype))
			return nil
		case 1:
			elemPtr := reflect.New(ti.elem.rtype)
			if err := unpackTopLevel(ti.elem, elemPtr.Elem(), r, pos, opts); err != nil {
				return err
			}
			v.Set(elemPtr)
			return nil
		default:
			return errf(BadEnumIndex, "option presence tag")
		}
	}
	// A top-level string or sequence has no slot to carry the empty
	// sentinel, so a zero length is its empty encoding here.
	switch ti.kind {
	case kString:
		return unpackStringHeapBody(v, r, pos, true)
	case kSlice:
		return unpackSequenceHeapBody(ti, v, r, pos, 1, opts, true)
	}
	return unpackElemAsHeapBody(ti, v, r, pos, 0, opts)
}

func verifyTopLevel(ti *typeInfo, r *cursor.Reader, pos *uint32, opts Options) error {
	if ti.kind == kOption {
		tag, err := r.Take(pos, 1)
		if err != nil {
			return wrapErr(ReadPastEnd, "option", err)
		}
		switch tag[0] {
		case 0:
			return nil
		case 1:
			return verifyTopLevel(ti.elem, r, pos, opts)
		default:
			return errf(BadEnumIndex, "option presence tag")
		}
	}
	switch ti.kind {
	case kString:
		return verifyStringHeapBody(r, pos, true)
	case kSlice:
		return verifySequenceHeapBody(ti, r, pos, 1, opts, true)
	}
	return verifyElemAsHeapBody(ti, r, pos, 0, opts)
}
