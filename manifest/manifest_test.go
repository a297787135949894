package manifest

import (
	"testing"

	"github.com/psibase-go/fracpack/wiretypes"
)

func sampleMeta() wiretypes.Meta {
	return wiretypes.Meta{
		Name:        "demo",
		Version:     "0.1.0",
		Description: "a demo manifest",
		Depends:     []wiretypes.PackageRef{{Name: "base", Version: "1.0.0"}},
		Accounts:    []wiretypes.AccountNumber{7},
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	var c JSON[wiretypes.Meta]
	in := sampleMeta()
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != in.Name || got.Version != in.Version {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCBORCodecRoundTrip(t *testing.T) {
	c, err := NewCBOR[wiretypes.Meta](true)
	if err != nil {
		t.Fatalf("NewCBOR: %v", err)
	}
	in := sampleMeta()
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != in.Name || len(got.Depends) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestMustCBORPanicsNever(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustCBOR panicked unexpectedly: %v", r)
		}
	}()
	_ = MustCBOR[wiretypes.Meta](false)
}

func TestMsgpackCodecRoundTrip(t *testing.T) {
	var c Msgpack[wiretypes.Meta]
	in := sampleMeta()
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != in.Name || got.Accounts[0] != in.Accounts[0] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLimitCodecRejectsOversizedPayload(t *testing.T) {
	lc := LimitCodec[wiretypes.Meta]{Inner: JSON[wiretypes.Meta]{}, MaxDecode: 4}
	b, err := JSON[wiretypes.Meta]{}.Encode(sampleMeta())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(b) <= 4 {
		t.Fatalf("test fixture too small to exercise the limit: %d bytes", len(b))
	}
	if _, err := lc.Decode(b); err == nil {
		t.Fatalf("expected an error decoding a payload over MaxDecode")
	}
}

func TestLimitCodecPassesUnderLimit(t *testing.T) {
	lc := LimitCodec[wiretypes.Meta]{Inner: JSON[wiretypes.Meta]{}, MaxDecode: 1 << 20}
	in := sampleMeta()
	b, err := lc.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := lc.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != in.Name {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

type recordingLogger struct {
	debugs, warns int
}

func (l *recordingLogger) Debug(string, Fields) { l.debugs++ }
func (l *recordingLogger) Info(string, Fields)  {}
func (l *recordingLogger) Warn(string, Fields)  { l.warns++ }
func (l *recordingLogger) Error(string, Fields) {}

func TestLoaderLogsSuccessAndFailure(t *testing.T) {
	rl := &recordingLogger{}
	loader := NewLoader[wiretypes.Meta](JSON[wiretypes.Meta]{}, rl)

	in := sampleMeta()
	b, err := loader.Save(in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rl.debugs != 1 {
		t.Fatalf("expected one Debug log after Save, got %d", rl.debugs)
	}

	got, err := loader.Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != in.Name {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if rl.debugs != 2 {
		t.Fatalf("expected a second Debug log after Load, got %d", rl.debugs)
	}

	if _, err := loader.Load([]byte("not json")); err == nil {
		t.Fatalf("expected an error loading malformed data")
	}
	if rl.warns != 1 {
		t.Fatalf("expected one Warn log after a failed Load, got %d", rl.warns)
	}
}

func TestLoaderDefaultsToNopLogger(t *testing.T) {
	loader := NewLoader[wiretypes.Meta](JSON[wiretypes.Meta]{}, nil)
	if _, err := loader.Save(sampleMeta()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := loader.Logger.(NopLogger); !ok {
		t.Fatalf("expected a nil Logger to default to NopLogger, got %T", loader.Logger)
	}
}
