package fracpack

import (
	"reflect"
	"unicode/utf8"

	"github.com/psibase-go/fracpack/internal/cursor"
)

// packStringHeapBody appends a string's heap body: u32 length followed by
// the UTF-8 bytes. A nested empty string never reaches it — that case is
// expressed solely by the fixed-slot 0 sentinel; a top-level empty string
// is written as a zero length.
func packStringHeapBody(v reflect.Value, w *cursor.Writer) {
	s := v.String()
	w.Extend(le32(uint32(len(s))))
	w.Extend([]byte(s))
}

// unpackStringHeapBody reads a string heap body at *pos. allowEmpty must be
// false for every nested (slot-reached) string, where an empty body is
// invalid (empty is expressed only by the fixed-slot sentinel); it is true
// only for a top-level string, which has no slot to carry that sentinel.
func unpackStringHeapBody(v reflect.Value, r *cursor.Reader, pos *uint32, allowEmpty bool) error {
	n, err := readU32(r, pos, "string")
	if err != nil {
		return err
	}
	if n == 0 && !allowEmpty {
		return errf(BadEmptyEncoding, "string")
	}
	b, err := r.Take(pos, n)
	if err != nil {
		return wrapErr(ReadPastEnd, "string", err)
	}
	if !utf8.Valid(b) {
		return errf(BadUTF8, "string")
	}
	v.SetString(string(b))
	return nil
}

func verifyStringHeapBody(r *cursor.Reader, pos *uint32, allowEmpty bool) error {
	n, err := readU32(r, pos, "string")
	if err != nil {
		return err
	}
	if n == 0 && !allowEmpty {
		return errf(BadEmptyEncoding, "string")
	}
	b, err := r.Take(pos, n)
	if err != nil {
		return wrapErr(ReadPastEnd, "string", err)
	}
	if !utf8.Valid(b) {
		return errf(BadUTF8, "string")
	}
	return nil
}

func readU32(r *cursor.Reader, pos *uint32, context string) (uint32, error) {
	b, err := r.Take(pos, 4)
	if err != nil {
		return 0, wrapErr(ReadPastEnd, context, err)
	}
	return decodeLE32(b), nil
}
