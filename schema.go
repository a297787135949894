package fracpack

import (
	"fmt"
	"reflect"
	"sync"
)

type kind uint8

const (
	kInvalid kind = iota
	kScalar
	kString
	kSlice
	kOption
	kArray
	kRecord
	kCustom
)

// fieldInfo describes one field of a record in wire order.
type fieldInfo struct {
	name  string
	index int
	typ   *typeInfo
}

// typeInfo is the compiled schema for a single Go type: fracpack's
// equivalent of the code-generated Packable impl every record gets in the
// source language. It is built once per reflect.Type and cached.
type typeInfo struct {
	kind       kind
	rtype      reflect.Type
	fixedSize  uint32
	variable   bool
	scalarKind reflect.Kind // valid when kind == kScalar
	elem       *typeInfo    // valid when kind in {kSlice, kOption, kArray}
	arrayLen   int          // valid when kind == kArray
	fields     []fieldInfo  // valid when kind == kRecord
	extensible bool         // valid when kind == kRecord
}

// slotSize is the number of bytes ti occupies inside a containing fixed
// region: a 4-byte offset slot for variable types, its own fixed size
// otherwise.
func (ti *typeInfo) slotSize() uint32 {
	if ti.variable {
		return 4
	}
	return ti.fixedSize
}

var schemaCache sync.Map // reflect.Type -> *typeInfo

var extensibleMarker = reflect.TypeOf(Extensible{})

var packableType = reflect.TypeOf((*Packable)(nil)).Elem()

// typeInfoFor returns the compiled schema for t, building and caching it on
// first use. Building happens under a private in-progress map so mutually
// or self-referential record schemas (always reached through a pointer
// field, i.e. an Option) don't recurse forever.
func typeInfoFor(t reflect.Type) (*typeInfo, error) {
	if v, ok := schemaCache.Load(t); ok {
		return v.(*typeInfo), nil
	}
	ti, err := buildTypeInfo(t, map[reflect.Type]*typeInfo{})
	if err != nil {
		return nil, err
	}
	schemaCache.Store(t, ti)
	return ti, nil
}

func buildTypeInfo(t reflect.Type, building map[reflect.Type]*typeInfo) (*typeInfo, error) {
	if ti, ok := building[t]; ok {
		return ti, nil
	}

	if reflect.PointerTo(t).Implements(packableType) {
		ti := &typeInfo{kind: kCustom, rtype: t}
		building[t] = ti
		zero := reflect.New(t).Interface().(Packable)
		ti.fixedSize = zero.FixedSize()
		ti.variable = zero.Variable()
		return ti, nil
	}

	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		width, ok := scalarWidth(t.Kind())
		if !ok {
			return nil, wrapErr(UnsupportedType, t.String(), nil)
		}
		return &typeInfo{kind: kScalar, rtype: t, fixedSize: width, scalarKind: t.Kind()}, nil

	case reflect.String:
		return &typeInfo{kind: kString, rtype: t, fixedSize: 4, variable: true}, nil

	case reflect.Slice:
		elemTI, err := buildTypeInfo(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		return &typeInfo{kind: kSlice, rtype: t, fixedSize: 4, variable: true, elem: elemTI}, nil

	case reflect.Array:
		elemTI, err := buildTypeInfo(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		if elemTI.variable {
			return nil, wrapErr(UnsupportedType, t.String()+" (array of variable-size element)", nil)
		}
		return &typeInfo{
			kind: kArray, rtype: t, elem: elemTI, arrayLen: t.Len(),
			fixedSize: elemTI.fixedSize * uint32(t.Len()),
		}, nil

	case reflect.Pointer:
		elemT := t.Elem()
		if elemT.Kind() == reflect.Pointer {
			return nil, errf(NestedOptional, t.String())
		}
		elemTI, err := buildTypeInfo(elemT, building)
		if err != nil {
			return nil, err
		}
		if elemTI.kind == kOption {
			return nil, errf(NestedOptional, t.String())
		}
		return &typeInfo{kind: kOption, rtype: t, fixedSize: 4, variable: true, elem: elemTI}, nil

	case reflect.Struct:
		return buildRecordInfo(t, building)

	default:
		return nil, wrapErr(UnsupportedType, t.String(), nil)
	}
}

func buildRecordInfo(t reflect.Type, building map[reflect.Type]*typeInfo) (*typeInfo, error) {
	ti := &typeInfo{kind: kRecord, rtype: t}
	building[t] = ti

	n := t.NumField()
	start := 0
	if n > 0 && t.Field(0).Type == extensibleMarker && t.Field(0).Anonymous {
		ti.extensible = true
		start = 1
	}

	var fields []fieldInfo
	var fixedSize uint32
	variable := ti.extensible

	for i := start; i < n; i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue // unexported
		}
		tag := sf.Tag.Get("fracpack")
		if tag == "-" {
			continue
		}
		fieldTI, err := buildTypeInfo(sf.Type, building)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}
		name := sf.Name
		if tag != "" {
			name = tag
		}
		fields = append(fields, fieldInfo{name: name, index: i, typ: fieldTI})
		fixedSize += fieldTI.slotSize()
		if fieldTI.variable {
			variable = true
		}
	}

	ti.fields = fields
	ti.variable = variable
	if ti.extensible {
		// Extensible records are always reached through an offset slot:
		// their size is not fixed across schema versions, so they can
		// never be inlined by value into a parent's fixed region.
		ti.fixedSize = 4
	} else {
		ti.fixedSize = fixedSize
	}
	return ti, nil
}

func scalarWidth(k reflect.Kind) (uint32, bool) {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 1, true
	case reflect.Int16, reflect.Uint16:
		return 2, true
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4, true
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8, true
	default:
		return 0, false
	}
}
