// Package cobs implements Constant Overhead Byte Stuffing: it removes the
// zero byte from an arbitrary payload so that a single 0x00 can be used as
// an unambiguous, self-synchronising frame delimiter.
package cobs

// MaxRunLength is the longest run of literal bytes a single chunk header
// can describe. Because a header byte H points at "H-1 literal bytes then
// an implicit zero", and H itself ranges over [1,255], the largest literal
// run representable without an implicit zero is 254 (H=255).
const MaxRunLength = 254

// MaxEncodedSize returns the worst-case number of bytes COBS produces for
// a payload of the given size, not counting the terminating zero.
func MaxEncodedSize(dataSize int) int {
	if dataSize == 0 {
		return 1
	}
	overhead := (dataSize + MaxRunLength - 1) / MaxRunLength
	return dataSize + overhead
}

// Encoder pulls COBS-encoded bytes out of an in-memory payload one at a
// time, never materialising the whole encoded frame. This lets a caller
// (e.g. a framer feeding a small TX ring) drive encoding byte-by-byte.
type Encoder struct {
	data      []byte
	runLength uint8
	runIndex  uint8
	headerOut bool
	done      bool
}

// NewEncoder prepares to encode data. data must not be retained/mutated by
// the caller while the Encoder is in use.
func NewEncoder(data []byte) *Encoder {
	e := &Encoder{data: data}
	e.runLength = findRunLength(e.data)
	return e
}

func findRunLength(data []byte) uint8 {
	var n uint8
	for int(n) < len(data) && n < MaxRunLength && data[n] != 0 {
		n++
	}
	return n
}

// Next returns the next encoded byte, or ok=false once the encoding
// (excluding the terminating zero, which the caller appends separately)
// is complete.
func (e *Encoder) Next() (b byte, ok bool) {
	if e.done {
		return 0, false
	}
	if int(e.runIndex) == len(e.data) && e.headerOut {
		e.done = true
		return 0, false
	}

	if !e.headerOut {
		b = e.runLength + 1
	} else {
		b = e.data[e.runIndex]
	}

	if !e.headerOut {
		e.headerOut = true
	} else if e.runIndex < e.runLength {
		e.runIndex++
	}
	if e.runIndex == e.runLength {
		if int(e.runIndex) < len(e.data) {
			if e.runLength < MaxRunLength {
				e.runIndex++ // skip the implied zero byte, not present on the wire
			}
			e.headerOut = false
		}
		e.data = e.data[e.runIndex:]
		e.runIndex = 0
		e.runLength = findRunLength(e.data)
	}
	return b, true
}

// Encode returns the full COBS encoding of data (without the terminating
// zero). Convenience wrapper around Encoder for callers that don't need
// the byte-at-a-time form.
func Encode(data []byte) []byte {
	out := make([]byte, 0, MaxEncodedSize(len(data)))
	e := NewEncoder(data)
	for {
		b, ok := e.Next()
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out
}

// Decoder is a per-byte state machine that reverses COBS encoding. It
// holds no buffer of its own; the caller decides what to do with each
// emitted byte (e.g. push it onto a ring).
type Decoder struct {
	runRemaining uint8
	runWasMax    bool
}

// NewDecoder returns a Decoder ready to decode from the start of a frame.
func NewDecoder() *Decoder {
	return &Decoder{runWasMax: true}
}

// Reset returns the decoder to its start-of-frame state.
func (d *Decoder) Reset() {
	d.runRemaining = 0
	d.runWasMax = true
}

// Step feeds one wire byte to the decoder. It returns the byte to emit to
// the payload (valid only if emit is true) and whether b was the frame
// delimiter (0x00). A delimiter also resets the decoder, ready for the
// next frame.
//
// Because an implicit zero byte in the original payload never appears on
// the wire, the byte Step emits is not always b itself: at the boundary
// between a non-maximal run and the next chunk, Step synthesises the
// implicit 0x00 and treats b as that next chunk's header.
func (d *Decoder) Step(b byte) (emit byte, shouldEmit bool, delimiter bool) {
	if b == 0 {
		d.Reset()
		return 0, false, true
	}

	if d.runRemaining == 0 {
		pendingZero := !d.runWasMax
		d.runRemaining = b - 1
		d.runWasMax = b == 255
		if pendingZero {
			return 0, true, false
		}
		return 0, false, false
	}

	d.runRemaining--
	return b, true, false
}
