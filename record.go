package fracpack

import (
	"reflect"

	"github.com/psibase-go/fracpack/internal/cursor"
)

// packFixed writes ti's fixed-region representation for v: either the value
// itself (fixed-size kinds) or a placeholder/sentinel 4-byte slot (variable
// kinds). It returns true when the caller must later patch that slot with a
// canonical offset and call packHeap once the heap cursor is known.
func packFixed(ti *typeInfo, v reflect.Value, w *cursor.Writer, depth int, opts Options) (bool, error) {
	switch ti.kind {
	case kOption:
		return packOptionFixed(ti, v, w)
	case kString:
		if v.Len() == 0 {
			w.Extend(le32(0))
			return false, nil
		}
		w.Reserve(4)
		return true, nil
	case kSlice:
		if v.Len() == 0 {
			w.Extend(le32(0))
			return false, nil
		}
		w.Reserve(4)
		return true, nil
	default:
		if !ti.variable {
			return false, packInlineFixed(ti, v, w, depth, opts)
		}
		w.Reserve(4)
		return true, nil
	}
}

// packInlineFixed writes ti's bytes directly at the writer's current
// position. Only called for kinds with ti.variable == false: scalars,
// fixed-element arrays, non-variable records, and fixed Packable types.
func packInlineFixed(ti *typeInfo, v reflect.Value, w *cursor.Writer, depth int, opts Options) error {
	switch ti.kind {
	case kScalar:
		packScalar(v, w)
		return nil
	case kArray:
		for i := 0; i < ti.arrayLen; i++ {
			if err := packInlineFixed(ti.elem, v.Index(i), w, depth, opts); err != nil {
				return err
			}
		}
		return nil
	case kRecord:
		return packRecordBody(ti, v, w, depth+1, opts)
	case kCustom:
		packableOf(v).PackInline(w)
		return nil
	default:
		panic("fracpack: packInlineFixed on variable kind " + ti.rtype.String())
	}
}

// packHeap writes ti's heap body for v at the writer's current position.
// Called only after packFixed returned true and the caller patched the
// reserved slot with the canonical offset to this position.
func packHeap(ti *typeInfo, v reflect.Value, w *cursor.Writer, depth int, opts Options) error {
	switch ti.kind {
	case kString:
		packStringHeapBody(v, w)
		return nil
	case kSlice:
		return packSequenceHeapBody(ti, v, w, depth+1, opts)
	case kOption:
		return packElemAsHeapBody(ti.elem, v.Elem(), w, depth, opts)
	case kRecord:
		return packRecordBody(ti, v, w, depth+1, opts)
	case kCustom:
		packableOf(v).PackHeapBody(w)
		return nil
	default:
		panic("fracpack: packHeap on fixed kind " + ti.rtype.String())
	}
}

// packElemAsHeapBody writes v (of type ti) as Option's present-value heap
// body: fixed kinds are written inline (there is no separate offset to
// them — the Option's own slot already serves that role), variable kinds
// write their ordinary heap-body form. This is also exactly the encoding a
// top-level value of type ti uses (design note OQ1).
func packElemAsHeapBody(ti *typeInfo, v reflect.Value, w *cursor.Writer, depth int, opts Options) error {
	switch ti.kind {
	case kScalar:
		packScalar(v, w)
		return nil
	case kArray:
		return packInlineFixed(ti, v, w, depth, opts)
	case kString:
		packStringHeapBody(v, w)
		return nil
	case kSlice:
		return packSequenceHeapBody(ti, v, w, depth+1, opts)
	case kRecord:
		return packRecordBody(ti, v, w, depth+1, opts)
	case kCustom:
		p := packableOf(v)
		if ti.variable {
			p.PackHeapBody(w)
		} else {
			p.PackInline(w)
		}
		return nil
	case kOption:
		return errf(NestedOptional, ti.rtype.String())
	default:
		panic("fracpack: packElemAsHeapBody on " + ti.rtype.String())
	}
}

// packRecordBody writes a record's fixed region (with an extensible
// length prefix when applicable) followed immediately by the concatenated
// heap bodies of its variable fields, in field order. It is used both for
// a record reached through an outer offset slot and for a record embedded
// inline by value (in which case it has no variable fields and the second
// pass is a no-op) and for the top-level encoding of a record type.
func packRecordBody(ti *typeInfo, v reflect.Value, w *cursor.Writer, depth int, opts Options) error {
	if depth > opts.MaxDepth {
		return errf(TooDeep, ti.rtype.String())
	}

	var prefixPos uint32
	if ti.extensible {
		prefixPos = w.Reserve(2)
	}
	contentStart := w.Len()

	slots := make([]uint32, len(ti.fields))
	needsHeap := make([]bool, len(ti.fields))
	for i, f := range ti.fields {
		slots[i] = w.Len()
		nh, err := packFixed(f.typ, v.Field(f.index), w, depth, opts)
		if err != nil {
			return err
		}
		needsHeap[i] = nh
	}

	if ti.extensible {
		w.PatchU16(prefixPos, uint16(w.Len()-contentStart))
	}

	for i, f := range ti.fields {
		if !needsHeap[i] {
			continue
		}
		heapPos := w.Len()
		w.PatchU32(slots[i], heapPos-slots[i])
		if err := packHeap(f.typ, v.Field(f.index), w, depth, opts); err != nil {
			return err
		}
	}
	return nil
}

func packableOf(v reflect.Value) Packable {
	return v.Addr().Interface().(Packable)
}

// unpackInplace reads ti's fixed-region representation starting at
// *fixedPos, advancing it past ti's fixed footprint, and — for variable
// kinds — validates the offset against *heapPos and recurses into the
// heap, advancing *heapPos past the value's heap body.
func unpackInplace(ti *typeInfo, v reflect.Value, r *cursor.Reader, fixedPos *uint32, heapPos *uint32, depth int, opts Options) error {
	switch ti.kind {
	case kScalar:
		return unpackScalar(v, ti.fixedSize, r, fixedPos)
	case kArray:
		for i := 0; i < ti.arrayLen; i++ {
			if err := unpackInplace(ti.elem, v.Index(i), r, fixedPos, heapPos, depth, opts); err != nil {
				return err
			}
		}
		return nil
	case kOption:
		return unpackOptionInplace(ti, v, r, fixedPos, heapPos, depth, opts)
	case kString:
		return unpackVariableSlot(r, fixedPos, heapPos, "string",
			func() { v.SetString("") },
			func(pos *uint32) error { return unpackStringHeapBody(v, r, pos, false) })
	case kSlice:
		return unpackVariableSlot(r, fixedPos, heapPos, "sequence",
			func() { v.Set(reflect.MakeSlice(ti.rtype, 0, 0)) },
			func(pos *uint32) error { return unpackSequenceHeapBody(ti, v, r, pos, depth+1, opts, false) })
	case kRecord:
		if !ti.variable {
			return unpackRecordBody(ti, v, r, fixedPos, depth, opts)
		}
		return unpackOffsetThenRecurse(r, fixedPos, heapPos, ti.rtype.String(),
			func(pos *uint32) error { return unpackRecordBody(ti, v, r, pos, depth+1, opts) })
	case kCustom:
		if !ti.variable {
			p := packableOf(v)
			return p.UnpackInline(r, fixedPos)
		}
		return unpackOffsetThenRecurse(r, fixedPos, heapPos, ti.rtype.String(),
			func(pos *uint32) error { return packableOf(v).UnpackHeapBody(r, pos) })
	default:
		return wrapErr(UnsupportedType, ti.rtype.String(), nil)
	}
}

// unpackVariableSlot reads a string/sequence fixed slot: sentinel 0 means
// present-but-empty (onEmpty is invoked, heapPos untouched), anything else
// must be a canonical offset into *heapPos, which is then advanced past
// the heap body read by onBody.
func unpackVariableSlot(r *cursor.Reader, fixedPos, heapPos *uint32, context string, onEmpty func(), onBody func(pos *uint32) error) error {
	slotPos := *fixedPos
	raw, err := r.Take(fixedPos, 4)
	if err != nil {
		return wrapErr(ReadPastEnd, context, err)
	}
	n := decodeLE32(raw)
	if n == 0 {
		onEmpty()
		return nil
	}
	if n < 4 {
		return errf(BadOffset, context)
	}
	if uint64(n) != uint64(*heapPos)-uint64(slotPos) {
		return errf(BadOffset, context)
	}
	return onBody(heapPos)
}

// unpackOffsetThenRecurse reads a fixed slot that never carries a sentinel
// (plain records and custom variable types): the offset must always be a
// canonical, non-sentinel distance to *heapPos.
func unpackOffsetThenRecurse(r *cursor.Reader, fixedPos, heapPos *uint32, context string, onBody func(pos *uint32) error) error {
	slotPos := *fixedPos
	raw, err := r.Take(fixedPos, 4)
	if err != nil {
		return wrapErr(ReadPastEnd, context, err)
	}
	n := decodeLE32(raw)
	if n < 4 {
		return errf(BadOffset, context)
	}
	if uint64(n) != uint64(*heapPos)-uint64(slotPos) {
		return errf(BadOffset, context)
	}
	return onBody(heapPos)
}

// unpackElemAsHeapBody reads an Option's present-value heap body (and,
// for kinds other than string and sequence, a top-level value's direct
// encoding) for type ti at *pos.
func unpackElemAsHeapBody(ti *typeInfo, v reflect.Value, r *cursor.Reader, pos *uint32, depth int, opts Options) error {
	switch ti.kind {
	case kScalar:
		return unpackScalar(v, ti.fixedSize, r, pos)
	case kArray:
		for i := 0; i < ti.arrayLen; i++ {
			if err := unpackElemAsHeapBody(ti.elem, v.Index(i), r, pos, depth, opts); err != nil {
				return err
			}
		}
		return nil
	case kString:
		return unpackStringHeapBody(v, r, pos, false)
	case kSlice:
		return unpackSequenceHeapBody(ti, v, r, pos, depth+1, opts, false)
	case kRecord:
		return unpackRecordBody(ti, v, r, pos, depth+1, opts)
	case kCustom:
		p := packableOf(v)
		if ti.variable {
			return p.UnpackHeapBody(r, pos)
		}
		return p.UnpackInline(r, pos)
	case kOption:
		return errf(NestedOptional, ti.rtype.String())
	default:
		return wrapErr(UnsupportedType, ti.rtype.String(), nil)
	}
}

// unpackRecordBody reads a record's own fixed region (consuming an
// extensible length prefix first when applicable) followed by the heap
// bodies of its variable fields, leaving *pos just past the record's fixed
// region (including any unknown trailing fixed bytes) and the heap bodies
// of the fields this schema knows. Heap bodies of unknown trailing fields
// are not skipped.
func unpackRecordBody(ti *typeInfo, v reflect.Value, r *cursor.Reader, pos *uint32, depth int, opts Options) error {
	if depth > opts.MaxDepth {
		return errf(TooDeep, ti.rtype.String())
	}

	regionStart := *pos
	var heapPos uint32
	if ti.extensible {
		lenBytes, err := r.Take(pos, 2)
		if err != nil {
			return wrapErr(ReadPastEnd, ti.rtype.String(), err)
		}
		fixedLen := decodeLE16(lenBytes)
		regionStart = *pos
		heapPos = regionStart + uint32(fixedLen)
	} else {
		heapPos = regionStart + ti.fixedSize
	}
	if uint64(heapPos) > uint64(r.Len()) {
		return wrapErr(ReadPastEnd, ti.rtype.String(), nil)
	}

	fc := regionStart
	fixedEnd := heapPos
	for _, f := range ti.fields {
		// An extensible record's declared fixed-region length may be
		// shorter than this schema's own fixed size when decoding an
		// older wire encoding under a newer schema: stop at the boundary
		// the writer actually declared and leave the remaining (new)
		// fields at their zero value, rather than reading past what the
		// writer wrote.
		if fc >= fixedEnd {
			break
		}
		if err := unpackInplace(f.typ, v.Field(f.index), r, &fc, &heapPos, depth, opts); err != nil {
			return err
		}
	}
	if fc > fixedEnd {
		return errf(BadSize, ti.rtype.String())
	}

	*pos = heapPos
	return nil
}

// verifyInplace structurally mirrors unpackInplace without building a value.
func verifyInplace(ti *typeInfo, r *cursor.Reader, fixedPos *uint32, heapPos *uint32, depth int, opts Options) error {
	switch ti.kind {
	case kScalar:
		return verifyScalar(ti.fixedSize, r, fixedPos)
	case kArray:
		for i := 0; i < ti.arrayLen; i++ {
			if err := verifyInplace(ti.elem, r, fixedPos, heapPos, depth, opts); err != nil {
				return err
			}
		}
		return nil
	case kOption:
		return verifyOptionInplace(ti, r, fixedPos, heapPos, depth, opts)
	case kString:
		return unpackVariableSlot(r, fixedPos, heapPos, "string",
			func() {},
			func(pos *uint32) error { return verifyStringHeapBody(r, pos, false) })
	case kSlice:
		return unpackVariableSlot(r, fixedPos, heapPos, "sequence",
			func() {},
			func(pos *uint32) error { return verifySequenceHeapBody(ti, r, pos, depth+1, opts, false) })
	case kRecord:
		if !ti.variable {
			return verifyRecordBody(ti, r, fixedPos, depth, opts)
		}
		return unpackOffsetThenRecurse(r, fixedPos, heapPos, ti.rtype.String(),
			func(pos *uint32) error { return verifyRecordBody(ti, r, pos, depth+1, opts) })
	case kCustom:
		zero := reflect.New(ti.rtype).Interface().(Packable)
		if !ti.variable {
			return zero.VerifyInline(r, fixedPos)
		}
		return unpackOffsetThenRecurse(r, fixedPos, heapPos, ti.rtype.String(),
			func(pos *uint32) error { return zero.VerifyHeapBody(r, pos) })
	default:
		return wrapErr(UnsupportedType, ti.rtype.String(), nil)
	}
}

func verifyElemAsHeapBody(ti *typeInfo, r *cursor.Reader, pos *uint32, depth int, opts Options) error {
	switch ti.kind {
	case kScalar:
		return verifyScalar(ti.fixedSize, r, pos)
	case kArray:
		for i := 0; i < ti.arrayLen; i++ {
			if err := verifyElemAsHeapBody(ti.elem, r, pos, depth, opts); err != nil {
				return err
			}
		}
		return nil
	case kString:
		return verifyStringHeapBody(r, pos, false)
	case kSlice:
		return verifySequenceHeapBody(ti, r, pos, depth+1, opts, false)
	case kRecord:
		return verifyRecordBody(ti, r, pos, depth+1, opts)
	case kCustom:
		zero := reflect.New(ti.rtype).Interface().(Packable)
		if ti.variable {
			return zero.VerifyHeapBody(r, pos)
		}
		return zero.VerifyInline(r, pos)
	case kOption:
		return errf(NestedOptional, ti.rtype.String())
	default:
		return wrapErr(UnsupportedType, ti.rtype.String(), nil)
	}
}

func verifyRecordBody(ti *typeInfo, r *cursor.Reader, pos *uint32, depth int, opts Options) error {
	if depth > opts.MaxDepth {
		return errf(TooDeep, ti.rtype.String())
	}

	regionStart := *pos
	var heapPos uint32
	if ti.extensible {
		lenBytes, err := r.Take(pos, 2)
		if err != nil {
			return wrapErr(ReadPastEnd, ti.rtype.String(), err)
		}
		fixedLen := decodeLE16(lenBytes)
		regionStart = *pos
		heapPos = regionStart + uint32(fixedLen)
	} else {
		heapPos = regionStart + ti.fixedSize
	}
	if uint64(heapPos) > uint64(r.Len()) {
		return wrapErr(ReadPastEnd, ti.rtype.String(), nil)
	}

	fc := regionStart
	fixedEnd := heapPos
	for _, f := range ti.fields {
		// See the matching comment in unpackRecordBody: a shorter
		// declared fixed-region length means the remaining fields are
		// new ones absent from this encoding, not bytes to read.
		if fc >= fixedEnd {
			break
		}
		if err := verifyInplace(f.typ, r, &fc, &heapPos, depth, opts); err != nil {
			return err
		}
	}
	if fc > fixedEnd {
		return errf(BadSize, ti.rtype.String())
	}

	*pos = heapPos
	return nil
}
