//go:build linux

// Package serial is a real termios-configured UART transport (Linux
// only) for running a demo against actual serial hardware. It is a
// collaborator, never imported by ccf/rpc/wire/ring/logwire or
// internal/*: the UART driver itself stays out of the core's scope.
package serial

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/commsccf/ccf/ccf"
)

// pollInterval is the TX pump's retry cadence, matching transport/loop
// and transport/tcp: there is no TX-done interrupt on this path, only a
// goroutine polling CharactersToSend.
const pollInterval = time.Millisecond

// Port is an open serial device configured into raw 8N1 mode, paired
// with the Framer that frames/deframes bytes flowing over it.
type Port struct {
	file   *os.File
	Framer *ccf.Framer

	done chan struct{}
}

// Open opens path (e.g. "/dev/ttyUSB0"), puts it into raw 8N1 mode at
// baud, and constructs a Framer from cfg.
func Open(path string, baud uint32, cfg ccf.Config) (*Port, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %q: %w", path, err)
	}

	if err := setRaw(int(f.Fd()), baud); err != nil {
		f.Close()
		return nil, fmt.Errorf("serial: configure %q: %w", path, err)
	}

	framer, err := ccf.New(cfg)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Port{file: f, Framer: framer, done: make(chan struct{})}, nil
}

// setRaw configures fd for raw 8N1 operation at baud via termios
// ioctls (unix.IoctlGetTermios/IoctlSetTermios).
func setRaw(fd int, baud uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	rate, ok := termiosBaudConstant(baud)
	if !ok {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}
	t.Ispeed = rate
	t.Ospeed = rate

	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

// termiosBaudConstant maps a plain baud rate to the termios speed
// constant golang.org/x/sys/unix exposes for it.
func termiosBaudConstant(baud uint32) (uint32, bool) {
	switch baud {
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	default:
		return 0, false
	}
}

// Start launches the TX/RX pump goroutines for this port.
func (p *Port) Start() {
	go p.pumpTX()
	go p.pumpRX()
}

// Close stops the pumps and closes the underlying file.
func (p *Port) Close() error {
	close(p.done)
	return p.file.Close()
}

func (p *Port) pumpTX() {
	buf := make([]byte, 1024)
	for {
		select {
		case <-p.done:
			return
		default:
		}
		n, ok := p.Framer.CharactersToSend(buf)
		if !ok {
			time.Sleep(pollInterval)
			continue
		}
		if _, err := p.file.Write(buf[:n]); err != nil {
			return
		}
	}
}

func (p *Port) pumpRX() {
	buf := make([]byte, 1024)
	for {
		n, err := p.file.Read(buf)
		for i := 0; i < n; i++ {
			p.Framer.ReceiveByte(buf[i])
		}
		if err != nil {
			return
		}
	}
}
