package tcp

import (
	"net"
	"testing"
	"time"

	"github.com/commsccf/ccf/ccf"
	"github.com/commsccf/ccf/rpc"
	"github.com/commsccf/ccf/wire"
)

func add(x, y int64) int64 { return x + y }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func TestSessionRoundTripOverRealSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	cfg, err := ccf.NewConfig(256, 256, 64)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	accepted := make(chan *Session, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s, err := NewSession(conn, cfg)
		if err != nil {
			t.Error(err)
			return
		}
		s.Start()
		accepted <- s
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	client, err := NewSession(clientConn, cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	client.Start()
	defer client.Close()

	server := <-accepted
	defer server.Close()

	if server.FD <= 0 {
		t.Fatalf("server.FD = %d, want a positive fd", server.FD)
	}
	if client.ID == server.ID {
		t.Fatal("expected distinct session ids")
	}

	dispatcher := rpc.NewDispatcher(rpc.NewCall("add", "return x+y", []string{"x", "y"}, add))
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			server.Framer.Poll(dispatcher)
			time.Sleep(time.Millisecond)
		}
	}()

	var buf [32]byte
	buf[0], buf[1] = 7, 1
	enc := wire.NewEncoder(buf[2:])
	if !enc.EncodeArrayHeader(2) || !enc.EncodeInt(2) || !enc.EncodeInt(3) {
		t.Fatal("encode args failed")
	}
	n := 2 + enc.Pos()
	if !client.Framer.Send(byte(ccf.ChannelRpc), buf[:n]) {
		t.Fatal("Send failed")
	}

	var raw [64]byte
	var gotLen int
	waitFor(t, 2*time.Second, func() bool {
		n, ok := client.Framer.NextRawFrame(raw[:])
		if !ok {
			return false
		}
		gotLen = n
		return true
	})

	dec := wire.NewDecoder(raw[3 : gotLen-4])
	result, ok := dec.DecodeInt()
	if !ok || result != 5 {
		t.Fatalf("result = %d, ok=%v, want 5", result, ok)
	}
}
