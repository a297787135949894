package fracpack

import (
	"reflect"

	"github.com/psibase-go/fracpack/internal/cursor"
)

// Optional slots are three-valued: 1 means absent, 0 means present-but-empty
// (only reachable when the wrapped type is a string or sequence), and any
// value >= 4 is a canonical offset to the present value's heap body.
const (
	sentinelAbsent       = 1
	sentinelPresentEmpty = 0
)

func isEmptyable(ti *typeInfo) bool {
	return ti.kind == kString || ti.kind == kSlice
}

// packOptionFixed writes an Option[T]'s 4-byte slot. It returns true only
// when the present-non-empty case was taken, meaning the caller must patch
// the reserved slot and call packHeap once the heap cursor is known.
func packOptionFixed(ti *typeInfo, v reflect.Value, w *cursor.Writer) (bool, error) {
	if v.IsNil() {
		w.Extend(le32(sentinelAbsent))
		return false, nil
	}
	elem := v.Elem()
	if isEmptyable(ti.elem) && elem.Len() == 0 {
		w.Extend(le32(sentinelPresentEmpty))
		return false, nil
	}
	w.Reserve(4)
	return true, nil
}

func unpackOptionInplace(ti *typeInfo, v reflect.Value, r *cursor.Reader, fixedPos *uint32, heapPos *uint32, depth int, opts Options) error {
	slotPos := *fixedPos
	raw, err := r.Take(fixedPos, 4)
	if err != nil {
		return wrapErr(ReadPastEnd, "option", err)
	}
	n := decodeLE32(raw)
	switch n {
	case sentinelAbsent:
		v.Set(reflect.Zero(ti.rtype))
		return nil
	case sentinelPresentEmpty:
		if !isEmptyable(ti.elem) {
			return errf(BadOffset, "option")
		}
		elem := reflect.New(ti.elem.rtype).Elem()
		v.Set(elem.Addr())
		return nil
	default:
		if n < 4 {
			return errf(BadOffset, "option")
		}
		want := uint64(*heapPos) - uint64(slotPos)
		if uint64(n) != want {
			return errf(BadOffset, "option")
		}
		elemPtr := reflect.New(ti.elem.rtype)
		if err := unpackElemAsHeapBody(ti.elem, elemPtr.Elem(), r, heapPos, depth, opts); err != nil {
			return err
		}
		v.Set(elemPtr)
		return nil
	}
}

func verifyOptionInplace(ti *typeInfo, r *cursor.Reader, fixedPos *uint32, heapPos *uint32, depth int, opts Options) error {
	slotPos := *fixedPos
	raw, err := r.Take(fixedPos, 4)
	if err != nil {
		return wrapErr(ReadPastEnd, "option", err)
	}
	n := decodeLE32(raw)
	switch n {
	case sentinelAbsent:
		return nil
	case sentinelPresentEmpty:
		if !isEmptyable(ti.elem) {
			return errf(BadOffset, "option")
		}
		return nil
	default:
		if n < 4 {
			return errf(BadOffset, "option")
		}
		want := uint64(*heapPos) - uint64(slotPos)
		if uint64(n) != want {
			return errf(BadOffset, "option")
		}
		return verifyElemAsHeapBody(ti.elem, r, heapPos, depth, opts)
	}
}
