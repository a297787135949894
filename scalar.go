package fracpack

import (
	"math"
	"reflect"

	"github.com/psibase-go/fracpack/internal/cursor"
)

// packScalar appends v's FIXED_SIZE little-endian bytes to w. v must be one
// of the ten supported integer/float kinds.
func packScalar(v reflect.Value, w *cursor.Writer) {
	switch v.Kind() {
	case reflect.Int8:
		w.Extend([]byte{byte(int8(v.Int()))})
	case reflect.Uint8:
		w.Extend([]byte{byte(v.Uint())})
	case reflect.Int16:
		w.Extend(le16(uint16(int16(v.Int()))))
	case reflect.Uint16:
		w.Extend(le16(uint16(v.Uint())))
	case reflect.Int32:
		w.Extend(le32(uint32(int32(v.Int()))))
	case reflect.Uint32:
		w.Extend(le32(uint32(v.Uint())))
	case reflect.Int64:
		w.Extend(le64(uint64(v.Int())))
	case reflect.Uint64:
		w.Extend(le64(v.Uint()))
	case reflect.Float32:
		w.Extend(le32(math.Float32bits(float32(v.Float()))))
	case reflect.Float64:
		w.Extend(le64(math.Float64bits(v.Float())))
	default:
		panic("fracpack: not a scalar kind: " + v.Kind().String())
	}
}

// unpackScalar reads width bytes at *pos and sets v.
func unpackScalar(v reflect.Value, width uint32, r *cursor.Reader, pos *uint32) error {
	b, err := r.Take(pos, width)
	if err != nil {
		return wrapErr(ReadPastEnd, v.Type().String(), err)
	}
	switch v.Kind() {
	case reflect.Int8:
		v.SetInt(int64(int8(b[0])))
	case reflect.Uint8:
		v.SetUint(uint64(b[0]))
	case reflect.Int16:
		v.SetInt(int64(int16(decodeLE16(b))))
	case reflect.Uint16:
		v.SetUint(uint64(decodeLE16(b)))
	case reflect.Int32:
		v.SetInt(int64(int32(decodeLE32(b))))
	case reflect.Uint32:
		v.SetUint(uint64(decodeLE32(b)))
	case reflect.Int64:
		v.SetInt(int64(decodeLE64(b)))
	case reflect.Uint64:
		v.SetUint(decodeLE64(b))
	case reflect.Float32:
		v.SetFloat(float64(math.Float32frombits(decodeLE32(b))))
	case reflect.Float64:
		v.SetFloat(math.Float64frombits(decodeLE64(b)))
	default:
		panic("fracpack: not a scalar kind: " + v.Kind().String())
	}
	return nil
}

// verifyScalar checks that width bytes are available at *pos and advances it.
func verifyScalar(width uint32, r *cursor.Reader, pos *uint32) error {
	if _, err := r.Take(pos, width); err != nil {
		return wrapErr(ReadPastEnd, "scalar", err)
	}
	return nil
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func le32(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
func le64(v uint64) []byte {
	return []byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}
}

func decodeLE16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func decodeLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func decodeLE64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
