package fracpack

import (
	"reflect"

	"github.com/psibase-go/fracpack/internal/cursor"
)

// packSequenceHeapBody appends a sequence's heap body: a u32 byte-length
// prefix, then the concatenated fixed regions of its elements in order,
// then their concatenated variable bodies in order (§4.3). A nested empty
// sequence never reaches it (the fixed-slot 0 sentinel covers that case);
// a top-level empty sequence is written as a zero byte-length.
func packSequenceHeapBody(ti *typeInfo, v reflect.Value, w *cursor.Writer, depth int, opts Options) error {
	n := v.Len()
	numBytes := uint32(n) * ti.elem.slotSize()
	w.Extend(le32(numBytes))

	slots := make([]uint32, n)
	needsHeap := make([]bool, n)
	for i := 0; i < n; i++ {
		slots[i] = w.Len()
		nh, err := packFixed(ti.elem, v.Index(i), w, depth, opts)
		if err != nil {
			return err
		}
		needsHeap[i] = nh
	}
	for i := 0; i < n; i++ {
		if !needsHeap[i] {
			continue
		}
		heapPos := w.Len()
		w.PatchU32(slots[i], heapPos-slots[i])
		if err := packHeap(ti.elem, v.Index(i), w, depth, opts); err != nil {
			return err
		}
	}
	return nil
}

// unpackSequenceHeapBody reads a sequence heap body at *pos. allowEmpty
// follows the same rule as unpackStringHeapBody: false for every nested
// (slot-reached) sequence, true only at the top level.
func unpackSequenceHeapBody(ti *typeInfo, v reflect.Value, r *cursor.Reader, pos *uint32, depth int, opts Options, allowEmpty bool) error {
	numBytes, err := readU32(r, pos, "sequence")
	if err != nil {
		return err
	}
	if numBytes == 0 {
		if !allowEmpty {
			return errf(BadEmptyEncoding, "sequence")
		}
		v.Set(reflect.MakeSlice(ti.rtype, 0, 0))
		return nil
	}
	if numBytes%ti.elem.slotSize() != 0 {
		return errf(BadSize, "sequence")
	}
	count := numBytes / ti.elem.slotSize()

	heapPos := uint64(*pos) + uint64(numBytes)
	if heapPos > uint64(r.Len()) {
		return wrapErr(ReadPastEnd, "sequence", nil)
	}
	hp := uint32(heapPos)

	slice := reflect.MakeSlice(ti.rtype, int(count), int(count))
	for i := uint32(0); i < count; i++ {
		if err := unpackInplace(ti.elem, slice.Index(int(i)), r, pos, &hp, depth, opts); err != nil {
			return err
		}
	}
	*pos = hp
	v.Set(slice)
	return nil
}

func verifySequenceHeapBody(ti *typeInfo, r *cursor.Reader, pos *uint32, depth int, opts Options, allowEmpty bool) error {
	numBytes, err := readU32(r, pos, "sequence")
	if err != nil {
		return err
	}
	if numBytes == 0 {
		if !allowEmpty {
			return errf(BadEmptyEncoding, "sequence")
		}
		return nil
	}
	if numBytes%ti.elem.slotSize() != 0 {
		return errf(BadSize, "sequence")
	}
	count := numBytes / ti.elem.slotSize()

	heapPos := uint64(*pos) + uint64(numBytes)
	if heapPos > uint64(r.Len()) {
		return wrapErr(ReadPastEnd, "sequence", nil)
	}
	hp := uint32(heapPos)

	for i := uint32(0); i < count; i++ {
		if err := verifyInplace(ti.elem, r, pos, &hp, depth, opts); err != nil {
			return err
		}
	}
	*pos = hp
	return nil
}
