// Package ccf is the framer: it owns the RX/TX packet rings and the byte
// stuffing decoder, turns an incoming byte stream into dispatched RPC
// calls, and turns outgoing channel payloads into wire-ready frames.
package ccf

import "errors"

// ErrSizeNotPowerOfTwo is returned by NewConfig when a ring size isn't a
// power of two.
var ErrSizeNotPowerOfTwo = errors.New("ccf: ring size must be a power of two")

// ErrMaxPktSizeInvalid is returned by NewConfig when max packet size is
// too small to hold a channel byte, a checksum, and at least one payload
// byte, or doesn't fit within the configured ring sizes.
var ErrMaxPktSizeInvalid = errors.New("ccf: max packet size must be >=6 and fit within both ring sizes")

// Config is the compile-time configuration of a Framer: both ring sizes
// and the maximum decoded packet size (channel + payload + checksum).
type Config struct {
	RxBufSize  uint32
	TxBufSize  uint32
	MaxPktSize uint32
}

func isPowerOfTwo(n uint32) bool { return n != 0 && n&(n-1) == 0 }

// NewConfig validates a Config: both ring sizes must be powers of two and
// MaxPktSize must leave room for a channel byte, a 4-byte checksum, and
// at least one payload byte, while still fitting inside each ring.
func NewConfig(rxBufSize, txBufSize, maxPktSize uint32) (Config, error) {
	c := Config{RxBufSize: rxBufSize, TxBufSize: txBufSize, MaxPktSize: maxPktSize}
	if !isPowerOfTwo(rxBufSize) || !isPowerOfTwo(txBufSize) {
		return Config{}, ErrSizeNotPowerOfTwo
	}
	if maxPktSize < 6 || maxPktSize >= rxBufSize || maxPktSize >= txBufSize {
		return Config{}, ErrMaxPktSizeInvalid
	}
	return c, nil
}
