package logwire

import (
	"bytes"
	"testing"

	"github.com/commsccf/ccf/wire"
)

func TestFormatEagerHeader(t *testing.T) {
	buf := make([]byte, 64)
	n, ok := Format(buf, LevelWarn, 5, "disk at %d%%", 91)
	if !ok {
		t.Fatal("Format failed")
	}
	rec, ok := Decode(buf[:n])
	if !ok {
		t.Fatal("Decode failed")
	}
	if rec.Level != LevelWarn || rec.Module != 5 {
		t.Fatalf("level=%v module=%d", rec.Level, rec.Module)
	}
	if !bytes.Equal(rec.Body, []byte("disk at 91%")) {
		t.Fatalf("body = %q", rec.Body)
	}
}

func TestHeaderPacksLevelAndModule(t *testing.T) {
	buf := make([]byte, 8)
	n, ok := WriteToBuffer(buf, LevelError, 31, nil)
	if !ok || n != 2 {
		t.Fatalf("n=%d ok=%v", n, ok)
	}
	if buf[0] != byte(LevelError)<<5|31 {
		t.Fatalf("header = %#x", buf[0])
	}
}

func TestFormatDeferredRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	n, ok := FormatDeferred(buf, LevelInfo, 2, "count=%d name=%s", wire.Int(42), wire.Text("disk0"))
	if !ok {
		t.Fatal("FormatDeferred failed")
	}
	rec, ok := Decode(buf[:n])
	if !ok {
		t.Fatal("Decode failed")
	}

	dec := wire.NewDecoder(rec.Body)
	format, ok := dec.DecodeText()
	if !ok || format != "count=%d name=%s" {
		t.Fatalf("format = %q", format)
	}
	count, ok := dec.DecodeInt()
	if !ok || count != 42 {
		t.Fatalf("count = %d", count)
	}
	name, ok := dec.DecodeText()
	if !ok || name != "disk0" {
		t.Fatalf("name = %q", name)
	}
}

type recordingSender struct {
	channel byte
	payload []byte
}

func (s *recordingSender) Send(channel byte, payload []byte) bool {
	s.channel = channel
	s.payload = append([]byte(nil), payload...)
	return true
}

func TestLoggerSendsOnConfiguredChannel(t *testing.T) {
	s := &recordingSender{}
	logger := NewLogger(s, 1)
	if !logger.Log(LevelDebug, 3, "hello %s", "world") {
		t.Fatal("Log failed")
	}
	if s.channel != 1 {
		t.Fatalf("channel = %d, want 1", s.channel)
	}
	rec, ok := Decode(s.payload)
	if !ok || string(rec.Body) != "hello world" {
		t.Fatalf("body = %q", rec.Body)
	}
}

func TestBodyTruncatedToMaxLen(t *testing.T) {
	body := bytes.Repeat([]byte{'x'}, 300)
	buf := make([]byte, 512)
	n, ok := WriteToBuffer(buf, LevelInfo, 0, body)
	if !ok {
		t.Fatal("WriteToBuffer failed")
	}
	if n != 2+MaxBodyLen {
		t.Fatalf("n = %d, want %d", n, 2+MaxBodyLen)
	}
}
