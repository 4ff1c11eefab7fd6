// Package loop is an in-process, io.Pipe-backed transport connecting two
// ccf.Framers without any real I/O: a stand-in for the UART/transport
// driver, which stays deliberately out of scope for the core itself,
// used by tests and cmd/demo's default mode.
package loop

import (
	"io"
	"time"

	"github.com/commsccf/ccf/ccf"
)

// pollInterval is how often a TX pump retries CharactersToSend when the
// TX ring had nothing queued. A real UART transport would instead be
// woken by the bool ReceiveByte/Send return; this stand-in just polls,
// since there's no interrupt context to wake it.
const pollInterval = time.Millisecond

// Link wires two Framers back-to-back: bytes transmitted by one arrive,
// byte for byte, as the other's received bytes, and vice versa.
type Link struct {
	a, b *ccf.Framer

	abR *io.PipeReader
	abW *io.PipeWriter
	baR *io.PipeReader
	baW *io.PipeWriter

	done chan struct{}
}

// New builds a Link between a and b. Call Start to begin pumping bytes.
func New(a, b *ccf.Framer) *Link {
	abR, abW := io.Pipe()
	baR, baW := io.Pipe()
	return &Link{a: a, b: b, abR: abR, abW: abW, baR: baR, baW: baW, done: make(chan struct{})}
}

// Start launches the four pump goroutines (TX and RX for each side).
func (l *Link) Start() {
	go l.pumpTX(l.a, l.abW)
	go l.pumpTX(l.b, l.baW)
	go l.pumpRX(l.a, l.baR)
	go l.pumpRX(l.b, l.abR)
}

// Close stops all pumps and releases the underlying pipes.
func (l *Link) Close() {
	close(l.done)
	l.abW.Close()
	l.abR.Close()
	l.baW.Close()
	l.baR.Close()
}

func (l *Link) pumpTX(f *ccf.Framer, w io.Writer) {
	buf := make([]byte, 1024)
	for {
		select {
		case <-l.done:
			return
		default:
		}
		n, ok := f.CharactersToSend(buf)
		if !ok {
			time.Sleep(pollInterval)
			continue
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return
		}
	}
}

func (l *Link) pumpRX(f *ccf.Framer, r io.Reader) {
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			f.ReceiveByte(b[0])
		}
		if err != nil {
			return
		}
	}
}
