package logwire

import "github.com/commsccf/ccf/wire"

// Sender is the subset of *ccf.Framer a Logger needs. Kept as an
// interface, mirroring ccf.Dispatcher's split, so this package never
// imports ccf: the caller tells a Logger which channel byte to use.
type Sender interface {
	Send(channel byte, payload []byte) bool
}

// Logger is the `log(level, module, fmt, ...)` convenience: it formats
// a record and submits it as a packet on the given
// channel (normally ccf.ChannelLog).
type Logger struct {
	sender  Sender
	channel byte
}

// NewLogger returns a Logger that submits formatted records to sender on
// channel.
func NewLogger(sender Sender, channel byte) *Logger {
	return &Logger{sender: sender, channel: channel}
}

// Log formats and sends an eager log record. It returns false if the
// record couldn't be formatted or the transmit queue rejected it (a kind
// 5, TX overflow, failure).
func (l *Logger) Log(level Level, module byte, format string, args ...interface{}) bool {
	var buf [2 + MaxBodyLen]byte
	n, ok := Format(buf[:], level, module, format, args...)
	if !ok {
		return false
	}
	return l.sender.Send(l.channel, buf[:n])
}

// LogDeferred formats and sends a deferred log record: see FormatDeferred.
func (l *Logger) LogDeferred(level Level, module byte, format string, args ...wire.Value) bool {
	var buf [2 + MaxBodyLen]byte
	n, ok := FormatDeferred(buf[:], level, module, format, args...)
	if !ok {
		return false
	}
	return l.sender.Send(l.channel, buf[:n])
}
