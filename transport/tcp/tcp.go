// Package tcp is a net.Conn-backed stand-in for a UART link: real
// concurrent byte delivery (unlike transport/loop's in-process pipes)
// for demos and integration tests, without requiring actual serial
// hardware. Each session gets an fd (via netfd, for labelling) and a
// short sortable session id (via xid).
package tcp

import (
	"io"
	"net"
	"time"

	"github.com/higebu/netfd"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/commsccf/ccf/ccf"
)

// pollInterval mirrors transport/loop's TX retry cadence: there is no
// interrupt context here either, just a goroutine polling the TX ring.
const pollInterval = time.Millisecond

// Session pairs one net.Conn with the Framer that frames/deframes bytes
// flowing over it, plus the fd and session id a collaborator (e.g.
// pkg/metrics) might want for labelling.
type Session struct {
	ID     string
	FD     int
	Conn   net.Conn
	Framer *ccf.Framer

	done chan struct{}
}

// NewSession wraps an already-connected conn with a freshly constructed
// Framer. conn is typically one side of a net.Dial/net.Listen pair
// standing in for a UART link.
func NewSession(conn net.Conn, cfg ccf.Config) (*Session, error) {
	framer, err := ccf.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:     xid.New().String(),
		FD:     netfd.GetFdFromConn(conn),
		Conn:   conn,
		Framer: framer,
		done:   make(chan struct{}),
	}, nil
}

// Start launches the TX and RX pump goroutines for this session's
// connection.
func (s *Session) Start() {
	logrus.WithFields(logrus.Fields{"session": s.ID, "fd": s.FD}).Info("tcp transport: session started")
	go s.pumpTX()
	go s.pumpRX()
}

// Close stops the pumps and closes the underlying connection.
func (s *Session) Close() error {
	close(s.done)
	err := s.Conn.Close()
	logrus.WithFields(logrus.Fields{"session": s.ID}).Info("tcp transport: session closed")
	return err
}

func (s *Session) pumpTX() {
	buf := make([]byte, 1024)
	for {
		select {
		case <-s.done:
			return
		default:
		}
		n, ok := s.Framer.CharactersToSend(buf)
		if !ok {
			time.Sleep(pollInterval)
			continue
		}
		if _, err := s.Conn.Write(buf[:n]); err != nil {
			logrus.WithFields(logrus.Fields{"session": s.ID, "error": err}).Warn("tcp transport: write failed")
			return
		}
	}
}

func (s *Session) pumpRX() {
	buf := make([]byte, 1024)
	for {
		n, err := s.Conn.Read(buf)
		for i := 0; i < n; i++ {
			s.Framer.ReceiveByte(buf[i])
		}
		if err != nil {
			if err != io.EOF {
				logrus.WithFields(logrus.Fields{"session": s.ID, "error": err}).Warn("tcp transport: read failed")
			}
			return
		}
	}
}
