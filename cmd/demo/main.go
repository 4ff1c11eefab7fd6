// Command demo wires up a device-side framer the way embedded firmware
// would: one goroutine standing in for the ISR byte pump, one for the
// application poll loop, and one for the log-producer task, around a
// transport chosen by flag.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/commsccf/ccf/ccf"
	"github.com/commsccf/ccf/logwire"
	"github.com/commsccf/ccf/pkg/profile"
	"github.com/commsccf/ccf/rpc"
	"github.com/commsccf/ccf/transport/loop"
	"github.com/commsccf/ccf/transport/serial"
	"github.com/commsccf/ccf/transport/tcp"
	"github.com/commsccf/ccf/wire"
)

var startTime = time.Now()

func add(x, y int64) int64 { return x + y }

func echo(s string) string { return s }

func uptime() int64 { return int64(time.Since(startTime).Seconds()) }

func main() {
	transportFlag := flag.String("transport", "loop", "transport to run the demo over: loop, tcp, serial")
	profileFlag := flag.String("profile", "tiny-mcu", "device profile to resolve buffer sizes from")
	addrFlag := flag.String("addr", "127.0.0.1:9191", "address to listen on, for -transport=tcp")
	devFlag := flag.String("device", "/dev/ttyUSB0", "serial device path, for -transport=serial")
	baudFlag := flag.Uint("baud", 115200, "serial baud rate, for -transport=serial")
	flag.Parse()

	cfg, err := profile.Default().Load(*profileFlag)
	if err != nil {
		logrus.WithError(err).Fatal("demo: failed to resolve profile")
	}

	dispatcher := rpc.NewDispatcher(
		rpc.NewCall("add", "return x+y", []string{"x", "y"}, add),
		rpc.NewCall("echo", "return s unchanged", []string{"s"}, echo),
		rpc.NewCall("uptime", "seconds since demo start", nil, uptime),
	)

	switch *transportFlag {
	case "loop":
		runLoop(cfg, dispatcher)
	case "tcp":
		runTCP(cfg, dispatcher, *addrFlag)
	case "serial":
		runSerial(cfg, dispatcher, *devFlag, uint32(*baudFlag))
	default:
		fmt.Fprintf(os.Stderr, "demo: unknown -transport %q\n", *transportFlag)
		os.Exit(1)
	}
}

// runLoop wires two in-process Framers over transport/loop: one stands
// in for the firmware device, the other for the host issuing requests.
func runLoop(cfg ccf.Config, dispatcher *rpc.Dispatcher) {
	device, err := ccf.New(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("demo: failed to construct device framer")
	}
	host, err := ccf.New(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("demo: failed to construct host framer")
	}

	link := loop.New(device, host)
	link.Start()
	defer link.Close()

	logrus.Info("demo: running over the loop transport")
	runDemo(device, host, dispatcher)
}

// runTCP listens on addr and treats the first accepted connection as the
// firmware device side, wiring the demo's own dialed connection as the
// host side.
func runTCP(cfg ccf.Config, dispatcher *rpc.Dispatcher, addr string) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logrus.WithError(err).Fatal("demo: failed to listen")
	}
	defer ln.Close()
	logrus.WithField("addr", ln.Addr()).Info("demo: running over the tcp transport")

	accepted := make(chan *tcp.Session, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			logrus.WithError(err).Fatal("demo: accept failed")
		}
		s, err := tcp.NewSession(conn, cfg)
		if err != nil {
			logrus.WithError(err).Fatal("demo: failed to wrap accepted connection")
		}
		s.Start()
		accepted <- s
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		logrus.WithError(err).Fatal("demo: failed to dial own listener")
	}
	host, err := tcp.NewSession(clientConn, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("demo: failed to wrap host connection")
	}
	host.Start()
	defer host.Close()

	device := <-accepted
	defer device.Close()

	runDemo(device.Framer, host.Framer, dispatcher)
}

// runSerial opens a real serial port as the device side; the host side
// exists only conceptually (a real deployment's host is a separate
// process on the other end of the wire), so this mode only runs the
// device's poll loop and log producer.
func runSerial(cfg ccf.Config, dispatcher *rpc.Dispatcher, devPath string, baud uint32) {
	port, err := serial.Open(devPath, baud, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("demo: failed to open serial port")
	}
	port.Start()
	defer port.Close()

	logrus.WithFields(logrus.Fields{"device": devPath, "baud": baud}).Info("demo: running over the serial transport")

	go runLogProducer(port.Framer)

	for {
		port.Framer.Poll(dispatcher)
		time.Sleep(time.Millisecond)
	}
}

// runDemo plays the three-role scenario against an already-linked
// device/host Framer pair: the device polls and replies to RPCs and
// emits periodic log records, while the host issues one uptime() request
// per tick and prints whatever comes back.
func runDemo(device, host *ccf.Framer, dispatcher *rpc.Dispatcher) {
	go runLogProducer(device)

	go func() {
		for {
			device.Poll(dispatcher)
			time.Sleep(time.Millisecond)
		}
	}()

	var raw [256]byte
	for range time.Tick(time.Second) {
		if !sendUptimeRequest(host) {
			logrus.Warn("demo: host failed to send uptime request")
			continue
		}
		n, ok := host.NextRawFrame(raw[:])
		if !ok {
			continue
		}
		logrus.WithField("frame_len", n).Info("demo: host observed a reply frame")
	}
}

// runLogProducer stands in for an RTOS log-producer task: a
// goroutine that ticks once a second and emits an eager-format log
// record on the log channel, exactly as a firmware task would from a
// free-running timer.
func runLogProducer(f *ccf.Framer) {
	logger := logwire.NewLogger(&framerSender{f}, byte(ccf.ChannelLog))
	var tick int64
	for range time.Tick(time.Second) {
		tick++
		logger.Log(logwire.LevelInfo, 0, "demo: tick %d", tick)
	}
}

// framerSender adapts *ccf.Framer to logwire.Sender, matching the
// interface split ccf.Dispatcher already uses to keep logwire from
// importing ccf.
type framerSender struct{ f *ccf.Framer }

func (s *framerSender) Send(channel byte, payload []byte) bool {
	return s.f.Send(channel, payload)
}

func sendUptimeRequest(host *ccf.Framer) bool {
	var buf [8]byte
	buf[0] = 1 // seq_no
	buf[1] = 3 // function id of "uptime" (dispatcher order add, echo, uptime -> ids 1, 2, 3)
	enc := wire.NewEncoder(buf[2:])
	if !enc.EncodeArrayHeader(0) {
		return false
	}
	return host.Send(byte(ccf.ChannelRpc), buf[:2+enc.Pos()])
}
