package wire

import (
	"bytes"
	"math"
	"testing"
)

func encodeHex(t *testing.T, fn func(e *Encoder) bool) []byte {
	t.Helper()
	buf := make([]byte, 64)
	e := NewEncoder(buf)
	if !fn(e) {
		t.Fatal("encode failed")
	}
	return e.Bytes()
}

func TestEncodeVectors(t *testing.T) {
	cases := []struct {
		name string
		fn   func(e *Encoder) bool
		want []byte
	}{
		{"uint 0", func(e *Encoder) bool { return e.EncodeUint(0) }, []byte{0x00}},
		{"uint 23", func(e *Encoder) bool { return e.EncodeUint(23) }, []byte{0x17}},
		{"uint 24", func(e *Encoder) bool { return e.EncodeUint(24) }, []byte{0x18, 0x18}},
		{"uint 1000", func(e *Encoder) bool { return e.EncodeUint(1000) }, []byte{0x19, 0x03, 0xE8}},
		{"int -1", func(e *Encoder) bool { return e.EncodeInt(-1) }, []byte{0x20}},
		{"int -100", func(e *Encoder) bool { return e.EncodeInt(-100) }, []byte{0x38, 0x63}},
		{"false", func(e *Encoder) bool { return e.EncodeBool(false) }, []byte{0xF4}},
		{"true", func(e *Encoder) bool { return e.EncodeBool(true) }, []byte{0xF5}},
		{"null", func(e *Encoder) bool { return e.EncodeNull() }, []byte{0xF6}},
		{
			"text IETF",
			func(e *Encoder) bool { return e.EncodeText("IETF") },
			[]byte{0x64, 0x49, 0x45, 0x54, 0x46},
		},
		{
			"bytes 01020304",
			func(e *Encoder) bool { return e.EncodeBytes([]byte{0x01, 0x02, 0x03, 0x04}) },
			[]byte{0x44, 0x01, 0x02, 0x03, 0x04},
		},
		{
			"nested array",
			func(e *Encoder) bool {
				return Array{Uint(1), Array{Uint(2), Uint(3)}, Array{Uint(4), Uint(5)}}.Encode(e)
			},
			[]byte{0x83, 0x01, 0x82, 0x02, 0x03, 0x82, 0x04, 0x05},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := encodeHex(t, c.fn)
			if !bytes.Equal(got, c.want) {
				t.Errorf("got % X, want % X", got, c.want)
			}
		})
	}
}

func TestDecodeUintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 23, 24, 255, 256, 1000, 65535, 65536, 1 << 32, math.MaxUint64}
	for _, v := range values {
		buf := make([]byte, 16)
		e := NewEncoder(buf)
		if !e.EncodeUint(v) {
			t.Fatalf("encode %d failed", v)
		}
		d := NewDecoder(e.Bytes())
		got, ok := d.DecodeUint()
		if !ok {
			t.Fatalf("decode %d failed", v)
		}
		if got != v {
			t.Fatalf("got %d, want %d", got, v)
		}
		if d.Remaining() != 0 {
			t.Fatalf("leftover bytes after decoding %d", v)
		}
	}
}

func TestDecodeIntRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, -100, 100, math.MinInt64, math.MaxInt64}
	for _, v := range values {
		buf := make([]byte, 16)
		e := NewEncoder(buf)
		if !e.EncodeInt(v) {
			t.Fatalf("encode %d failed", v)
		}
		d := NewDecoder(e.Bytes())
		got, ok := d.DecodeInt()
		if !ok || got != v {
			t.Fatalf("decode %d: got %d, ok=%v", v, got, ok)
		}
	}
}

func TestDecodeBytesAndText(t *testing.T) {
	buf := make([]byte, 32)
	e := NewEncoder(buf)
	if !e.EncodeBytes([]byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatal("encode bytes failed")
	}
	d := NewDecoder(e.Bytes())
	got, ok := d.DecodeBytes()
	if !ok || !bytes.Equal(got, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("decode bytes: got %v ok=%v", got, ok)
	}

	buf2 := make([]byte, 32)
	e2 := NewEncoder(buf2)
	if !e2.EncodeText("IETF") {
		t.Fatal("encode text failed")
	}
	d2 := NewDecoder(e2.Bytes())
	text, ok := d2.DecodeText()
	if !ok || text != "IETF" {
		t.Fatalf("decode text: got %q ok=%v", text, ok)
	}
}

func TestDecodeBoolNullUndefined(t *testing.T) {
	buf := make([]byte, 8)
	e := NewEncoder(buf)
	if !e.EncodeBool(true) {
		t.Fatal("encode failed")
	}
	d := NewDecoder(e.Bytes())
	v, ok := d.DecodeBool()
	if !ok || !v {
		t.Fatal("decode bool true failed")
	}

	buf2 := make([]byte, 8)
	e2 := NewEncoder(buf2)
	e2.EncodeNull()
	d2 := NewDecoder(e2.Bytes())
	if !d2.DecodeNull() {
		t.Fatal("decode null failed")
	}

	buf3 := make([]byte, 8)
	e3 := NewEncoder(buf3)
	e3.EncodeUndefined()
	d3 := NewDecoder(e3.Bytes())
	if !d3.DecodeUndefined() {
		t.Fatal("decode undefined failed")
	}
}

func TestFloatRoundTrip(t *testing.T) {
	f32 := float32(3.25)
	buf := make([]byte, 8)
	e := NewEncoder(buf)
	if !e.EncodeFloat32(f32) {
		t.Fatal("encode float32 failed")
	}
	d := NewDecoder(e.Bytes())
	got, ok := d.DecodeFloat32()
	if !ok || got != f32 {
		t.Fatalf("got %v, want %v", got, f32)
	}

	f64 := 2.718281828
	buf2 := make([]byte, 16)
	e2 := NewEncoder(buf2)
	if !e2.EncodeFloat64(f64) {
		t.Fatal("encode float64 failed")
	}
	d2 := NewDecoder(e2.Bytes())
	got2, ok := d2.DecodeFloat64()
	if !ok || got2 != f64 {
		t.Fatalf("got %v, want %v", got2, f64)
	}
}

func TestFloatUpcast(t *testing.T) {
	buf := make([]byte, 8)
	e := NewEncoder(buf)
	if !e.EncodeFloat32(1.5) {
		t.Fatal("encode failed")
	}
	d := NewDecoder(e.Bytes())
	got, ok := d.DecodeFloat64()
	if !ok || got != 1.5 {
		t.Fatalf("upcast float32->float64: got %v ok=%v", got, ok)
	}
}

func TestNestedArrayDecode(t *testing.T) {
	buf := make([]byte, 32)
	e := NewEncoder(buf)
	if !(Array{Uint(1), Array{Uint(2), Uint(3)}, Array{Uint(4), Uint(5)}}).Encode(e) {
		t.Fatal("encode failed")
	}
	d := NewDecoder(e.Bytes())
	n, indef, ok := d.DecodeArrayHeader()
	if !ok || indef || n != 3 {
		t.Fatalf("outer header: n=%d indef=%v ok=%v", n, indef, ok)
	}
	v1, ok := d.DecodeUint()
	if !ok || v1 != 1 {
		t.Fatalf("v1: %d ok=%v", v1, ok)
	}
	n2, _, ok := d.DecodeArrayHeader()
	if !ok || n2 != 2 {
		t.Fatalf("inner1 header: n=%d", n2)
	}
	a, _ := d.DecodeUint()
	b, _ := d.DecodeUint()
	if a != 2 || b != 3 {
		t.Fatalf("inner1 values: %d %d", a, b)
	}
	n3, _, ok := d.DecodeArrayHeader()
	if !ok || n3 != 2 {
		t.Fatalf("inner2 header: n=%d", n3)
	}
	c, _ := d.DecodeUint()
	dd, _ := d.DecodeUint()
	if c != 4 || dd != 5 {
		t.Fatalf("inner2 values: %d %d", c, dd)
	}
}

func TestTagRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	e := NewEncoder(buf)
	if !(Tag{N: 2, Value: Uint(9)}).Encode(e) {
		t.Fatal("encode failed")
	}
	d := NewDecoder(e.Bytes())
	tag, ok := d.DecodeTag()
	if !ok || tag != 2 {
		t.Fatalf("tag: %d ok=%v", tag, ok)
	}
	v, ok := d.DecodeUint()
	if !ok || v != 9 {
		t.Fatalf("tagged value: %d ok=%v", v, ok)
	}
}

func TestMapRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	e := NewEncoder(buf)
	m := Map{{Key: Text("a"), Value: Uint(1)}, {Key: Text("b"), Value: Uint(2)}}
	if !m.Encode(e) {
		t.Fatal("encode failed")
	}
	d := NewDecoder(e.Bytes())
	n, indef, ok := d.DecodeMapHeader()
	if !ok || indef || n != 2 {
		t.Fatalf("map header: n=%d indef=%v ok=%v", n, indef, ok)
	}
	k1, _ := d.DecodeText()
	v1, _ := d.DecodeUint()
	k2, _ := d.DecodeText()
	v2, _ := d.DecodeUint()
	if k1 != "a" || v1 != 1 || k2 != "b" || v2 != 2 {
		t.Fatalf("map contents mismatch: %q=%d %q=%d", k1, v1, k2, v2)
	}
}

func TestDecodeMap(t *testing.T) {
	buf := make([]byte, 32)
	e := NewEncoder(buf)
	m := Map{{Key: Text("a"), Value: Uint(1)}, {Key: Text("b"), Value: Uint(2)}}
	if !m.Encode(e) {
		t.Fatal("encode failed")
	}
	got, ok := DecodeMap(NewDecoder(e.Bytes()))
	if !ok {
		t.Fatal("DecodeMap failed")
	}
	if len(got) != 2 || got["a"] != Uint(1) || got["b"] != Uint(2) {
		t.Fatalf("DecodeMap = %#v", got)
	}
}

func TestDecodeValueRecursesThroughNestedShapes(t *testing.T) {
	buf := make([]byte, 64)
	e := NewEncoder(buf)
	v := Array{Text("x"), Uint(1), Tag{N: 5, Value: Bool(true)}}
	if !v.Encode(e) {
		t.Fatal("encode failed")
	}
	got, ok := DecodeValue(NewDecoder(e.Bytes()))
	if !ok {
		t.Fatal("DecodeValue failed")
	}
	arr, ok := got.(Array)
	if !ok || len(arr) != 3 {
		t.Fatalf("DecodeValue = %#v", got)
	}
	if arr[0] != Text("x") || arr[1] != Uint(1) {
		t.Fatalf("DecodeValue array contents = %#v", arr)
	}
	tag, ok := arr[2].(Tag)
	if !ok || tag.N != 5 || tag.Value != Bool(true) {
		t.Fatalf("DecodeValue tag = %#v", arr[2])
	}
}

func TestBufferExhaustion(t *testing.T) {
	buf := make([]byte, 1)
	e := NewEncoder(buf)
	if e.EncodeUint(1000) {
		t.Fatal("expected encode failure on a too-small buffer")
	}
}

func TestFloat16Decode(t *testing.T) {
	cases := []struct {
		bits uint16
		want float32
	}{
		{0x0000, 0},
		{0x3C00, 1.0},
		{0xC000, -2.0},
		{0x0001, float32(math.Pow(2, -24))},
		{0x7C00, float32(math.Inf(1))},
	}
	for _, c := range cases {
		buf := make([]byte, 4)
		buf[0] = byte(MajorSimple)<<5 | simpleFloat2
		buf[1] = byte(c.bits >> 8)
		buf[2] = byte(c.bits)
		d := NewDecoder(buf[:3])
		got, ok := d.DecodeFloat32()
		if !ok {
			t.Fatalf("decode half %#04x failed", c.bits)
		}
		if got != c.want {
			t.Errorf("half %#04x: got %v, want %v", c.bits, got, c.want)
		}
	}
}

func TestDecodeMajorMismatch(t *testing.T) {
	buf := make([]byte, 8)
	e := NewEncoder(buf)
	e.EncodeText("x")
	d := NewDecoder(e.Bytes())
	if _, ok := d.DecodeUint(); ok {
		t.Fatal("expected major mismatch to fail decode")
	}
}
