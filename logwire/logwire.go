// Package logwire implements the fixed binary wire format for log
// records carried on the Log channel. It is a thin
// formatting layer over a byte buffer; it never touches a ring or
// transport directly; so it can run inside an RPC handler (a context
// that must not call ccf.Framer.Send) and hand the staged bytes to an
// outer scope to transmit.
package logwire

import (
	"fmt"

	"github.com/commsccf/ccf/wire"
)

// Level is a log record's severity, packed into the top 3 bits of the
// record's first byte.
type Level byte

const (
	LevelDebug Level = 0
	LevelInfo  Level = 1
	LevelWarn  Level = 2
	LevelError Level = 3
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// maxModule is the largest module id the 5-bit module field can hold.
const maxModule = 31

// MaxBodyLen is the largest body the single length byte can describe.
const MaxBodyLen = 255

func header(level Level, module byte) byte {
	return byte(level)<<5 | (module & maxModule)
}

// WriteToBuffer writes an already-formatted record (header, length,
// bytes) into dst and returns the number of bytes written. body is
// truncated to MaxBodyLen if longer. Returns ok=false if dst is too
// small to hold header+length+body.
func WriteToBuffer(dst []byte, level Level, module byte, body []byte) (n int, ok bool) {
	if len(body) > MaxBodyLen {
		body = body[:MaxBodyLen]
	}
	if len(dst) < 2+len(body) {
		return 0, false
	}
	dst[0] = header(level, module)
	dst[1] = byte(len(body))
	copy(dst[2:], body)
	return 2 + len(body), true
}

// Format is the eager formatter: fmt.Sprintf runs at the log site and the
// resulting UTF-8 bytes become the record body.
func Format(dst []byte, level Level, module byte, format string, args ...interface{}) (int, bool) {
	return WriteToBuffer(dst, level, module, []byte(fmt.Sprintf(format, args...)))
}

// FormatDeferred writes the deferred form: the format string followed by
// a tagged-value encoding of each argument, so the host performs
// printf-style substitution after decoding. The caller is responsible for
// choosing deferred vs eager formatting at build time.
func FormatDeferred(dst []byte, level Level, module byte, format string, args ...wire.Value) (n int, ok bool) {
	if len(dst) < 2 {
		return 0, false
	}
	enc := wire.NewEncoder(dst[2:])
	if !enc.EncodeText(format) {
		return 0, false
	}
	for _, a := range args {
		if !a.Encode(enc) {
			return 0, false
		}
	}
	if enc.Pos() > MaxBodyLen {
		return 0, false
	}
	dst[0] = header(level, module)
	dst[1] = byte(enc.Pos())
	return 2 + enc.Pos(), true
}

// Record is a decoded log record, the mirror image of the wire format.
type Record struct {
	Level  Level
	Module byte
	Body   []byte
}

// Decode reads one record's header, length, and body from the front of
// buf. It does not decode a deferred record's body into a format string
// and arguments; callers that know a stream is deferred-formatted should
// run wire.NewDecoder over Record.Body themselves.
func Decode(buf []byte) (Record, bool) {
	if len(buf) < 2 {
		return Record{}, false
	}
	length := int(buf[1])
	if len(buf) < 2+length {
		return Record{}, false
	}
	return Record{
		Level:  Level(buf[0] >> 5),
		Module: buf[0] & maxModule,
		Body:   buf[2 : 2+length],
	}, true
}
