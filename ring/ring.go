// Package ring implements the single-producer/single-consumer packet ring:
// a byte buffer holding a queue of whole, length-prefixed records. One
// context pushes bytes and commits packets; a different context drains
// committed packets.
package ring

import (
	"errors"
	"sync/atomic"

	"github.com/commsccf/ccf/internal/smallestuint"
)

// ErrSizeNotPowerOfTwo is returned by New when size isn't a power of two.
var ErrSizeNotPowerOfTwo = errors.New("ring: size must be a power of two")

// ErrMaxPktSizeInvalid is returned by New when maxPktSize is zero or
// larger than the ring itself could ever hold.
var ErrMaxPktSizeInvalid = errors.New("ring: max packet size must be >0 and fit within size")

// Ring is an SPSC queue of whole packets. The zero value is not usable;
// construct with New.
type Ring struct {
	buf        []byte
	size       uint32
	mask       uint32
	maxPktSize uint32
	lenWidth   smallestuint.Width

	read     atomic.Uint32
	notified atomic.Uint32
	write    atomic.Uint32
	dropped  bool

	haveCurFrame bool
	curFrameLen  uint32
}

// New allocates a ring of the given capacity (must be a power of two)
// that records packets up to maxPktSize bytes each.
func New(size, maxPktSize uint32) (*Ring, error) {
	if size == 0 || size&(size-1) != 0 {
		return nil, ErrSizeNotPowerOfTwo
	}
	if maxPktSize == 0 || uint64(maxPktSize) >= uint64(size) {
		return nil, ErrMaxPktSizeInvalid
	}
	return &Ring{
		buf:        make([]byte, size),
		size:       size,
		mask:       size - 1,
		maxPktSize: maxPktSize,
		lenWidth:   smallestuint.For(uint64(maxPktSize)),
	}, nil
}

// Reset returns the ring to its empty startup state. Intended for use
// only before the producer/consumer roles begin running.
func (r *Ring) Reset() {
	r.read.Store(0)
	r.notified.Store(0)
	r.write.Store(0)
	r.dropped = false
	r.haveCurFrame = false
	r.curFrameLen = 0
}

func (r *Ring) getLengthAt(pos uint32) uint32 {
	var v uint32
	for i := int(r.lenWidth) - 1; i >= 0; i-- {
		v <<= 8
		v |= uint32(r.buf[(pos+uint32(i))&r.mask])
	}
	return v
}

func (r *Ring) putLengthAt(pos uint32, length uint32) {
	v := length
	for i := 0; i < int(r.lenWidth); i++ {
		r.buf[(pos+uint32(i))&r.mask] = byte(v)
		v >>= 8
	}
}

// PushBack stores one producer-side byte. Call only from the single
// producer context. If storing b would overflow the ring's capacity or
// push the in-progress packet past maxPktSize, the packet is marked
// dropped and b (and all following bytes, until Notify or ResetDropped)
// is discarded.
func (r *Ring) PushBack(b byte) {
	if r.dropped {
		return
	}
	write := r.write.Load()
	notified := r.notified.Load()
	read := r.read.Load()

	if write == notified {
		if write+uint32(r.lenWidth)-read > r.size {
			r.dropped = true
			return
		}
		write += uint32(r.lenWidth)
	}

	pktLen := write - notified - uint32(r.lenWidth)
	if pktLen+1 > r.maxPktSize || write+1-read > r.size {
		r.dropped = true
		return
	}

	r.buf[write&r.mask] = b
	write++
	r.write.Store(write)
}

// Notify commits the in-progress packet, making it visible to the
// consumer. If the packet was marked dropped, it is discarded instead
// (equivalent to ResetDropped). A delimiter with no preceding PushBack
// calls commits a legitimate zero-length packet.
func (r *Ring) Notify() {
	if r.dropped {
		r.write.Store(r.notified.Load())
		r.dropped = false
		return
	}
	write := r.write.Load()
	notified := r.notified.Load()
	read := r.read.Load()

	if write == notified {
		if write+uint32(r.lenWidth)-read > r.size {
			return // can't even reserve a zero-length record; drop silently
		}
		write += uint32(r.lenWidth)
	}

	length := write - notified - uint32(r.lenWidth)
	r.putLengthAt(notified, length)
	r.notified.Store(write)
	r.write.Store(write)
}

// ResetDropped discards the in-progress dropped packet, restoring the
// producer to a clean state for the next one. No-op if not dropping.
func (r *Ring) ResetDropped() {
	if r.dropped {
		r.write.Store(r.notified.Load())
		r.dropped = false
	}
}

// Dropping reports whether the in-progress packet has overflowed and is
// being discarded.
func (r *Ring) Dropping() bool {
	return r.dropped
}

// NextFrame releases the frame returned by the previous call (advancing
// read past it), then copies the next queued packet into dst, which must
// be at least maxPktSize bytes. Returns ok=false if no packet is queued.
// Call only from the single consumer context.
func (r *Ring) NextFrame(dst []byte) (n int, ok bool) {
	if r.haveCurFrame {
		r.read.Store(r.read.Load() + uint32(r.lenWidth) + r.curFrameLen)
		r.haveCurFrame = false
	}

	read := r.read.Load()
	notified := r.notified.Load()
	if read == notified {
		return 0, false
	}

	length := r.getLengthAt(read)
	start := read + uint32(r.lenWidth)
	for i := uint32(0); i < length; i++ {
		dst[i] = r.buf[(start+i)&r.mask]
	}
	r.curFrameLen = length
	r.haveCurFrame = true
	return int(length), true
}
