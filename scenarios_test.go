package fracpack

import (
	"bytes"
	"errors"
	"testing"
)

func TestTopLevelScalarIsBareInlineBytes(t *testing.T) {
	b, err := Marshal(uint32(7))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(b, []byte{7, 0, 0, 0}) {
		t.Fatalf("got %x want 07000000", b)
	}
	got, err := Unmarshal[uint32](b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != 7 {
		t.Fatalf("got %d want 7", got)
	}
	if err := Verify[uint32](b); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestTopLevelStringEmptyAndNonEmpty(t *testing.T) {
	cases := []string{"", "a", "hello, fracpack"}
	for _, s := range cases {
		b, err := Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%q): %v", s, err)
		}
		wantLen := 4 + len(s)
		if len(b) != wantLen {
			t.Fatalf("Marshal(%q): got %d bytes want %d", s, len(b), wantLen)
		}
		got, err := Unmarshal[string](b)
		if err != nil || got != s {
			t.Fatalf("round trip(%q): got %q, %v", s, got, err)
		}
		if err := Verify[string](b); err != nil {
			t.Fatalf("Verify(%q): %v", s, err)
		}
	}
}

func TestTopLevelSequence(t *testing.T) {
	in := []uint16{1, 2, 3}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// u32 numBytes (6) + 3*u16 fixed elements, no variable bodies.
	want := []byte{6, 0, 0, 0, 1, 0, 2, 0, 3, 0}
	if !bytes.Equal(b, want) {
		t.Fatalf("got %x want %x", b, want)
	}
	got, err := Unmarshal[[]uint16](b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestTopLevelEmptySequence(t *testing.T) {
	var in []uint16
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(b, []byte{0, 0, 0, 0}) {
		t.Fatalf("got %x want 00000000", b)
	}
	got, err := Unmarshal[[]uint16](b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestTopLevelOptionAbsentPresentScalar(t *testing.T) {
	var absent *uint32
	b, err := Marshal(absent)
	if err != nil {
		t.Fatalf("Marshal(absent): %v", err)
	}
	if !bytes.Equal(b, []byte{0}) {
		t.Fatalf("absent: got %x want 00", b)
	}
	got, err := Unmarshal[*uint32](b)
	if err != nil {
		t.Fatalf("Unmarshal(absent): %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", *got)
	}

	seven := uint32(7)
	b, err = Marshal(&seven)
	if err != nil {
		t.Fatalf("Marshal(present): %v", err)
	}
	if !bytes.Equal(b, []byte{1, 7, 0, 0, 0}) {
		t.Fatalf("present: got %x want 0107000000", b)
	}
	got, err = Unmarshal[*uint32](b)
	if err != nil {
		t.Fatalf("Unmarshal(present): %v", err)
	}
	if got == nil || *got != 7 {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestTopLevelOptionPresentEmptyString(t *testing.T) {
	empty := ""
	b, err := Marshal(&empty)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(b, []byte{1, 0, 0, 0, 0}) {
		t.Fatalf("got %x want 0100000000", b)
	}
	got, err := Unmarshal[*string](b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got == nil || *got != "" {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

type widget struct {
	Name string
	Tags []uint16
	Note *string
}

func TestRecordWithStringSliceOptionFields(t *testing.T) {
	note := "hello"
	in := widget{Name: "gear", Tags: []uint16{1, 2}, Note: &note}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal[widget](b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != in.Name || len(got.Tags) != 2 || got.Tags[0] != 1 || got.Tags[1] != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Note == nil || *got.Note != note {
		t.Fatalf("Note round trip mismatch: %v", got.Note)
	}
	if err := Verify[widget](b); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestRecordWithAbsentOptionField(t *testing.T) {
	in := widget{Name: "x", Tags: nil, Note: nil}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal[widget](b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Note != nil {
		t.Fatalf("expected absent Note, got %v", *got.Note)
	}
	if len(got.Tags) != 0 {
		t.Fatalf("expected empty Tags, got %v", got.Tags)
	}
}

func TestOffsetMutationRejectedByVerify(t *testing.T) {
	in := widget{Name: "gear", Tags: []uint16{1, 2}}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Verify[widget](b); err != nil {
		t.Fatalf("Verify of valid encoding: %v", err)
	}
	for i := range b {
		mutated := append([]byte(nil), b...)
		mutated[i] ^= 0xFF
		// Not every byte participates in an offset; we only assert that
		// corrupting the first field's offset slot (bytes 0-3, Name's slot)
		// is caught.
		if i < 4 {
			if err := Verify[widget](mutated); err == nil {
				t.Fatalf("byte %d: expected verify error after offset mutation", i)
			}
		}
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	b, err := Marshal(uint32(1))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b = append(b, 0xDE, 0xAD)
	if err := Verify[uint32](b); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
	if _, err := Unmarshal[uint32](b); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestEmptyHeapLenRejectedForNestedString(t *testing.T) {
	type holder struct {
		S string
	}
	in := holder{S: "abc"}
	b, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// Find the heap length prefix (right after the 4-byte offset slot) and
	// zero it out, which is invalid: a present string's heap length must
	// never be 0 (that case belongs to the fixed-slot empty sentinel).
	heapLenPos := 4
	mutated := append([]byte(nil), b...)
	mutated[heapLenPos] = 0
	if err := Verify[holder](mutated); !errors.Is(err, ErrBadEmptyEncoding) {
		t.Fatalf("expected ErrBadEmptyEncoding, got %v", err)
	}
}

type headerV1 struct {
	Extensible
	Expiration uint32
	RefBlock   uint32
}

type headerV2 struct {
	Extensible
	Expiration uint32
	RefBlock   uint32
	Flags      uint32
}

func TestExtensibleForwardCompat(t *testing.T) {
	v2 := headerV2{Expiration: 100, RefBlock: 200, Flags: 7}
	b, err := Marshal(v2)
	if err != nil {
		t.Fatalf("Marshal(v2): %v", err)
	}
	v1, err := Unmarshal[headerV1](b)
	if err != nil {
		t.Fatalf("Unmarshal as v1: %v", err)
	}
	if v1.Expiration != 100 || v1.RefBlock != 200 {
		t.Fatalf("v1 decode mismatch: %+v", v1)
	}
}

func TestExtensibleBackwardCompat(t *testing.T) {
	v1 := headerV1{Expiration: 11, RefBlock: 22}
	b, err := Marshal(v1)
	if err != nil {
		t.Fatalf("Marshal(v1): %v", err)
	}
	v2, err := Unmarshal[headerV2](b)
	if err != nil {
		t.Fatalf("Unmarshal as v2: %v", err)
	}
	if v2.Expiration != 11 || v2.RefBlock != 22 || v2.Flags != 0 {
		t.Fatalf("v2 decode mismatch: %+v", v2)
	}
}

func TestNestedOptionalRejectedAtSchemaConstruction(t *testing.T) {
	type bad struct {
		P **uint32
	}
	if _, err := Marshal(bad{}); !errors.Is(err, ErrNestedOptional) {
		t.Fatalf("expected ErrNestedOptional, got %v", err)
	}
}
