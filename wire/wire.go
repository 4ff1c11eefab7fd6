// Package wire implements the tagged-value binary codec used for RPC
// arguments, return values, and the self-describing schema: a compact
// major/minor initial byte followed by zero or more value bytes, using
// the major-type table of RFC 8949.
//
// Encoder and Decoder both work over a caller-supplied byte slice and a
// cursor position rather than allocating, so they can run inside an RPC
// handler's fixed scratch buffer.
package wire

import (
	"errors"
	"math"
)

// Major is the 3-bit major type of a tagged-value initial byte.
type Major uint8

const (
	MajorUint   Major = 0
	MajorNegInt Major = 1
	MajorBytes  Major = 2
	MajorText   Major = 3
	MajorArray  Major = 4
	MajorMap    Major = 5
	MajorTag    Major = 6
	MajorSimple Major = 7
)

// Minor codes with fixed meaning, independent of major.
const (
	minorWidth1  = 24
	minorWidth2  = 25
	minorWidth4  = 26
	minorWidth8  = 27
	minorIndef   = 31
	embeddedMax  = 23
	simpleFalse  = 20
	simpleTrue   = 21
	simpleNull   = 22
	simpleUndef  = 23
	simpleFloat2 = 25 // half precision
	simpleFloat4 = 26 // single precision
	simpleFloat8 = 27 // double precision
)

// ErrBufferExhausted names the buffer-exhaustion condition. No function in
// this package returns it: every encode and decode reports failure as
// ok=false, so buffer exhaustion is not distinguished from a type/shape
// mismatch.
var ErrBufferExhausted = errors.New("wire: buffer exhausted")

// Encoder writes tagged values into a fixed-capacity byte slice.
type Encoder struct {
	buf []byte
	pos int
}

// NewEncoder returns an Encoder that writes into buf starting at offset 0.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Bytes returns the portion of the buffer written so far.
func (e *Encoder) Bytes() []byte { return e.buf[:e.pos] }

// Pos returns the current cursor position.
func (e *Encoder) Pos() int { return e.pos }

func (e *Encoder) room(n int) bool { return e.pos+n <= len(e.buf) }

func (e *Encoder) putByte(b byte) bool {
	if !e.room(1) {
		return false
	}
	e.buf[e.pos] = b
	e.pos++
	return true
}

func (e *Encoder) putBytes(b []byte) bool {
	if !e.room(len(b)) {
		return false
	}
	copy(e.buf[e.pos:], b)
	e.pos += len(b)
	return true
}

// putWidthValue writes the initial byte for (major, value) using the
// minimum-width embedded/1/2/4/8-byte big-endian encoding, then any
// following width bytes.
func (e *Encoder) putWidthValue(major Major, value uint64) bool {
	head := byte(major) << 5
	switch {
	case value <= embeddedMax:
		return e.putByte(head | byte(value))
	case value <= math.MaxUint8:
		return e.putByte(head|minorWidth1) && e.putByte(byte(value))
	case value <= math.MaxUint16:
		return e.putByte(head|minorWidth2) && e.putBytes([]byte{byte(value >> 8), byte(value)})
	case value <= math.MaxUint32:
		return e.putByte(head|minorWidth4) && e.putBytes([]byte{
			byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value),
		})
	default:
		return e.putByte(head|minorWidth8) && e.putBytes([]byte{
			byte(value >> 56), byte(value >> 48), byte(value >> 40), byte(value >> 32),
			byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value),
		})
	}
}

// EncodeUint writes an unsigned integer (major 0).
func (e *Encoder) EncodeUint(v uint64) bool {
	return e.putWidthValue(MajorUint, v)
}

// EncodeInt writes a signed integer: non-negative values as major 0,
// negative values as major 1 carrying the bitwise complement of v.
func (e *Encoder) EncodeInt(v int64) bool {
	if v >= 0 {
		return e.EncodeUint(uint64(v))
	}
	return e.putWidthValue(MajorNegInt, uint64(^v))
}

// EncodeBytes writes a byte string (major 2).
func (e *Encoder) EncodeBytes(b []byte) bool {
	return e.putWidthValue(MajorBytes, uint64(len(b))) && e.putBytes(b)
}

// EncodeText writes a UTF-8 text string (major 3).
func (e *Encoder) EncodeText(s string) bool {
	return e.putWidthValue(MajorText, uint64(len(s))) && e.putBytes([]byte(s))
}

// EncodeArrayHeader writes an array/tuple header (major 4) of the given
// arity. The caller must then encode exactly n elements.
func (e *Encoder) EncodeArrayHeader(n int) bool {
	return e.putWidthValue(MajorArray, uint64(n))
}

// EncodeMapHeader writes a map header (major 5) of the given pair count.
// The caller must then encode exactly n key/value pairs.
func (e *Encoder) EncodeMapHeader(n int) bool {
	return e.putWidthValue(MajorMap, uint64(n))
}

// EncodeTag writes a tag header (major 6). The caller must then encode
// exactly one wrapped item.
func (e *Encoder) EncodeTag(tag uint64) bool {
	return e.putWidthValue(MajorTag, tag)
}

// EncodeBool writes a boolean as a CBOR-style simple value (major 7).
func (e *Encoder) EncodeBool(v bool) bool {
	if v {
		return e.putByte(byte(MajorSimple)<<5 | simpleTrue)
	}
	return e.putByte(byte(MajorSimple)<<5 | simpleFalse)
}

// EncodeNull writes the null simple value.
func (e *Encoder) EncodeNull() bool {
	return e.putByte(byte(MajorSimple)<<5 | simpleNull)
}

// EncodeUndefined writes the undefined simple value, used as the return
// slot for handlers with no meaningful result.
func (e *Encoder) EncodeUndefined() bool {
	return e.putByte(byte(MajorSimple)<<5 | simpleUndef)
}

// EncodeFloat32 writes a single-precision float. Per the deterministic
// encoding gap noted in design, floats always use their full width.
func (e *Encoder) EncodeFloat32(f float32) bool {
	bits := math.Float32bits(f)
	return e.putByte(byte(MajorSimple)<<5|simpleFloat4) && e.putBytes([]byte{
		byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits),
	})
}

// EncodeFloat64 writes a double-precision float.
func (e *Encoder) EncodeFloat64(f float64) bool {
	bits := math.Float64bits(f)
	return e.putByte(byte(MajorSimple)<<5|simpleFloat8) && e.putBytes([]byte{
		byte(bits >> 56), byte(bits >> 48), byte(bits >> 40), byte(bits >> 32),
		byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits),
	})
}

// Decoder reads tagged values from a byte slice via a cursor.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder reading from buf starting at offset 0.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Pos returns the current cursor position.
func (d *Decoder) Pos() int { return d.pos }

// Remaining reports how many undecoded bytes are left.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) getByte() (byte, bool) {
	if d.pos >= len(d.buf) {
		return 0, false
	}
	b := d.buf[d.pos]
	d.pos++
	return b, true
}

func (d *Decoder) getBytes(n int) ([]byte, bool) {
	if d.pos+n > len(d.buf) {
		return nil, false
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, true
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// peekInitial reads the major/minor of the next item without advancing.
func (d *Decoder) peekInitial() (major Major, minor byte, ok bool) {
	if d.pos >= len(d.buf) {
		return 0, 0, false
	}
	b := d.buf[d.pos]
	return Major(b >> 5), b & 0x1F, true
}

func (d *Decoder) readInitial() (major Major, minor byte, ok bool) {
	b, ok := d.getByte()
	if !ok {
		return 0, 0, false
	}
	return Major(b >> 5), b & 0x1F, true
}

// readFixedWidth consumes the width bytes implied by minor (0 for
// embedded values) and returns the raw big-endian value. It returns
// ok=false for minor values with no fixed width (28..30) or for the
// indefinite marker (31), which callers must special-case themselves.
func (d *Decoder) readFixedWidth(minor byte) (uint64, bool) {
	switch {
	case minor <= embeddedMax:
		return uint64(minor), true
	case minor == minorWidth1:
		b, ok := d.getBytes(1)
		if !ok {
			return 0, false
		}
		return beUint(b), true
	case minor == minorWidth2:
		b, ok := d.getBytes(2)
		if !ok {
			return 0, false
		}
		return beUint(b), true
	case minor == minorWidth4:
		b, ok := d.getBytes(4)
		if !ok {
			return 0, false
		}
		return beUint(b), true
	case minor == minorWidth8:
		b, ok := d.getBytes(8)
		if !ok {
			return 0, false
		}
		return beUint(b), true
	default:
		return 0, false
	}
}

// DecodeUint decodes an unsigned integer (major 0).
func (d *Decoder) DecodeUint() (uint64, bool) {
	major, minor, ok := d.readInitial()
	if !ok || major != MajorUint {
		return 0, false
	}
	return d.readFixedWidth(minor)
}

// DecodeInt decodes a signed integer, accepting either major.
func (d *Decoder) DecodeInt() (int64, bool) {
	major, minor, ok := d.peekInitial()
	if !ok {
		return 0, false
	}
	switch major {
	case MajorUint:
		v, ok := d.DecodeUint()
		if !ok || v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case MajorNegInt:
		d.pos++
		mag, ok := d.readFixedWidth(minor)
		if !ok || mag > math.MaxInt64 {
			return 0, false
		}
		return ^int64(mag), true
	default:
		return 0, false
	}
}

// DecodeBytes decodes a byte string (major 2). The returned slice
// references the decoder's underlying buffer for the definite-length
// case; indefinite-length strings are reassembled into a fresh slice.
func (d *Decoder) DecodeBytes() ([]byte, bool) {
	major, minor, ok := d.readInitial()
	if !ok || major != MajorBytes {
		return nil, false
	}
	if minor == minorIndef {
		return d.decodeIndefiniteBytes(MajorBytes)
	}
	n, ok := d.readFixedWidth(minor)
	if !ok {
		return nil, false
	}
	return d.getBytes(int(n))
}

// DecodeText decodes a UTF-8 text string (major 3).
func (d *Decoder) DecodeText() (string, bool) {
	major, minor, ok := d.readInitial()
	if !ok || major != MajorText {
		return "", false
	}
	if minor == minorIndef {
		b, ok := d.decodeIndefiniteBytes(MajorText)
		return string(b), ok
	}
	n, ok := d.readFixedWidth(minor)
	if !ok {
		return "", false
	}
	b, ok := d.getBytes(int(n))
	return string(b), ok
}

func (d *Decoder) decodeIndefiniteBytes(major Major) ([]byte, bool) {
	var out []byte
	for {
		m, minor, ok := d.peekInitial()
		if !ok {
			return nil, false
		}
		if m == MajorSimple && minor == minorIndef {
			d.pos++
			return out, true
		}
		if m != major {
			return nil, false
		}
		d.pos++
		n, ok := d.readFixedWidth(minor)
		if !ok {
			return nil, false
		}
		chunk, ok := d.getBytes(int(n))
		if !ok {
			return nil, false
		}
		out = append(out, chunk...)
	}
}

// DecodeBool decodes a boolean simple value.
func (d *Decoder) DecodeBool() (bool, bool) {
	major, minor, ok := d.readInitial()
	if !ok || major != MajorSimple {
		return false, false
	}
	switch minor {
	case simpleTrue:
		return true, true
	case simpleFalse:
		return false, true
	default:
		return false, false
	}
}

// DecodeNull consumes a null simple value, reporting whether one was
// present.
func (d *Decoder) DecodeNull() bool {
	major, minor, ok := d.readInitial()
	return ok && major == MajorSimple && minor == simpleNull
}

// DecodeUndefined consumes an undefined simple value.
func (d *Decoder) DecodeUndefined() bool {
	major, minor, ok := d.readInitial()
	return ok && major == MajorSimple && minor == simpleUndef
}

// DecodeFloat32 decodes a float, losslessly up-casting narrower widths.
func (d *Decoder) DecodeFloat32() (float32, bool) {
	major, minor, ok := d.readInitial()
	if !ok || major != MajorSimple {
		return 0, false
	}
	switch minor {
	case simpleFloat2:
		b, ok := d.getBytes(2)
		if !ok {
			return 0, false
		}
		return float16ToFloat32(uint16(beUint(b))), true
	case simpleFloat4:
		b, ok := d.getBytes(4)
		if !ok {
			return 0, false
		}
		return math.Float32frombits(uint32(beUint(b))), true
	default:
		return 0, false
	}
}

// DecodeFloat64 decodes a float of any supported width, losslessly
// up-casting into a float64.
func (d *Decoder) DecodeFloat64() (float64, bool) {
	major, minor, ok := d.readInitial()
	if !ok || major != MajorSimple {
		return 0, false
	}
	switch minor {
	case simpleFloat2:
		b, ok := d.getBytes(2)
		if !ok {
			return 0, false
		}
		return float64(float16ToFloat32(uint16(beUint(b)))), true
	case simpleFloat4:
		b, ok := d.getBytes(4)
		if !ok {
			return 0, false
		}
		return float64(math.Float32frombits(uint32(beUint(b)))), true
	case simpleFloat8:
		b, ok := d.getBytes(8)
		if !ok {
			return 0, false
		}
		return math.Float64frombits(beUint(b)), true
	default:
		return 0, false
	}
}

// DecodeArrayHeader reads an array/tuple header (major 4), returning its
// arity and whether it was indefinite-length (arity is then 0 and
// elements must be read until AtBreak).
func (d *Decoder) DecodeArrayHeader() (n int, indefinite bool, ok bool) {
	return d.decodeCountHeader(MajorArray)
}

// DecodeMapHeader reads a map header (major 5), returning its pair count.
func (d *Decoder) DecodeMapHeader() (n int, indefinite bool, ok bool) {
	return d.decodeCountHeader(MajorMap)
}

func (d *Decoder) decodeCountHeader(major Major) (n int, indefinite bool, ok bool) {
	gotMajor, minor, ok := d.readInitial()
	if !ok || gotMajor != major {
		return 0, false, false
	}
	if minor == minorIndef {
		return 0, true, true
	}
	v, ok := d.readFixedWidth(minor)
	if !ok {
		return 0, false, false
	}
	return int(v), false, true
}

// DecodeTag reads a tag header (major 6); the caller must then decode
// exactly one wrapped item.
func (d *Decoder) DecodeTag() (uint64, bool) {
	major, minor, ok := d.readInitial()
	if !ok || major != MajorTag {
		return 0, false
	}
	return d.readFixedWidth(minor)
}

// AtBreak reports whether the next item is the indefinite-length
// terminator, without consuming anything.
func (d *Decoder) AtBreak() bool {
	major, minor, ok := d.peekInitial()
	return ok && major == MajorSimple && minor == minorIndef
}

// ConsumeBreak consumes the indefinite-length terminator.
func (d *Decoder) ConsumeBreak() bool {
	major, minor, ok := d.readInitial()
	return ok && major == MajorSimple && minor == minorIndef
}

// float16ToFloat32 converts an IEEE 754 half-precision bit pattern to a
// float32, used only on decode: this codec never encodes half floats.
func float16ToFloat32(h uint16) float32 {
	const biasAdjust = 127 - 15 // difference between single and half exponent bias

	sign := uint32(h&0x8000) << 16
	exp := uint32(h&0x7C00) >> 10
	frac := uint32(h & 0x03FF)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal half: normalise by shifting the fraction left until
		// it carries into the implicit leading bit, working directly in
		// the single-precision exponent's bias so it never underflows.
		exp = biasAdjust + 1
		for frac&0x0400 == 0 {
			frac <<= 1
			exp--
		}
		frac &= 0x03FF
		return math.Float32frombits(sign | exp<<23 | frac<<13)
	case 0x1F:
		if frac == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7F800000 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp+biasAdjust)<<23 | frac<<13)
	}
}
