package ccf

import (
	"sync/atomic"

	"github.com/commsccf/ccf/internal/checksum"
	"github.com/commsccf/ccf/internal/cobs"
	"github.com/commsccf/ccf/ring"
)

// Channel is the one-byte tag at the start of every decoded frame.
type Channel byte

const (
	ChannelRpc   Channel = 0
	ChannelLog   Channel = 1
	ChannelTrace Channel = 2
)

// The three fixed diagnostic strings sent back as zero-checksum error
// packets on the RPC channel. Kept provisional per the design notes: a
// future revision may replace these with a structured error tag.
const (
	ErrTextBadRPC    = "Bad RPC!\n"
	ErrTextCorrupted = "Corrupted request\n"
	ErrTextRPCFailed = "RPC failed\n"
	minFrameLen      = 6 // channel(1) + checksum(4) + payload(>=1)
	rpcHeaderLen     = 2 // seq_no(1) + function(1)
)

// ErrorKind labels one of the dispatch/transport failure kinds, for
// counters that want to break error volume down by cause instead of
// just totalling it.
type ErrorKind int

const (
	ErrKindBadRPC ErrorKind = iota
	ErrKindChecksumMismatch
	ErrKindRPCFailed
	ErrKindRXOverflow
	ErrKindTXOverflow
	numErrorKinds
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindBadRPC:
		return "bad_rpc"
	case ErrKindChecksumMismatch:
		return "checksum_mismatch"
	case ErrKindRPCFailed:
		return "rpc_failed"
	case ErrKindRXOverflow:
		return "rx_overflow"
	case ErrKindTXOverflow:
		return "tx_overflow"
	default:
		return "unknown"
	}
}

// Dispatcher is the subset of rpc.Dispatcher the framer needs, kept as an
// interface so this package never imports rpc: the framer owns the byte
// pipeline, the registry is handed in at poll time.
type Dispatcher interface {
	Call(function byte, args []byte, ret []byte) (n int, ok bool)
}

// Framer owns the RX/TX rings, the byte-stuffing decoder, and the scratch
// buffers needed to process one packet at a time without allocating.
type Framer struct {
	cfg Config

	rxRing  *ring.Ring
	txRing  *ring.Ring
	decoder *cobs.Decoder

	rxScratch    []byte
	txBuild      []byte
	replyResult  []byte
	replyPayload []byte

	// OnUnknownChannel is called by Poll for frames on a channel other
	// than Rpc. Left nil, such frames are silently ignored.
	OnUnknownChannel func(channel byte, payload []byte)

	// Counters, safe to read concurrently with RX/TX activity (pkg/metrics
	// polls these from a goroutine distinct from both the byte-pump and
	// the poll loop). rpcCalls is indexed by function id.
	rxFrames  atomic.Uint64
	txFrames  atomic.Uint64
	errCounts [numErrorKinds]atomic.Uint64
	rpcCalls  [256]atomic.Uint64
}

// New constructs a Framer from a validated Config.
func New(cfg Config) (*Framer, error) {
	rxRing, err := ring.New(cfg.RxBufSize, cfg.MaxPktSize)
	if err != nil {
		return nil, err
	}
	txMax := uint32(cobs.MaxEncodedSize(int(cfg.MaxPktSize))) + 1
	txRing, err := ring.New(cfg.TxBufSize, txMax)
	if err != nil {
		return nil, err
	}
	return &Framer{
		cfg:          cfg,
		rxRing:       rxRing,
		txRing:       txRing,
		decoder:      cobs.NewDecoder(),
		rxScratch:    make([]byte, cfg.MaxPktSize),
		txBuild:      make([]byte, cfg.MaxPktSize),
		replyResult:  make([]byte, cfg.MaxPktSize),
		replyPayload: make([]byte, cfg.MaxPktSize),
	}, nil
}

// ReceiveByte feeds one byte from the transport into the RX pipeline.
// ISR-safe: lock-free, never blocks. Returns true when a frame delimiter
// was just processed, signalling the caller to wake the polling task.
func (f *Framer) ReceiveByte(b byte) bool {
	emit, shouldEmit, delimiter := f.decoder.Step(b)
	if delimiter {
		if f.rxRing.Dropping() {
			f.errCounts[ErrKindRXOverflow].Add(1)
			f.rxRing.ResetDropped()
		} else {
			f.rxRing.Notify()
			f.rxFrames.Add(1)
		}
		return true
	}
	if shouldEmit {
		f.rxRing.PushBack(emit)
	}
	return false
}

// CharactersToSend copies the next queued wire-ready chunk into dst,
// which must be at least as large as the TX ring's configured max frame
// size. ISR-safe.
func (f *Framer) CharactersToSend(dst []byte) (n int, ok bool) {
	return f.txRing.NextFrame(dst)
}

// NextRawFrame dequeues the next reassembled RX frame (channel byte,
// payload, and trailing checksum, still unverified) without running it
// through dispatch. It exists for collaborators that are not the RPC
// server side of the link, e.g. a host-role peer that issued requests
// and needs to read the responses and log records that come back,
// rather than treating inbound frames as calls to serve. Not ISR-safe;
// callers must not mix this with Poll on the same Framer.
func (f *Framer) NextRawFrame(dst []byte) (n int, ok bool) {
	return f.rxRing.NextFrame(dst)
}

// Poll drains the RX ring, dispatching any RPC-channel frames through d
// and queuing responses on the TX ring. Not ISR-safe: call only from the
// application task. Returns true if any TX activity was queued.
func (f *Framer) Poll(d Dispatcher) bool {
	activity := false
	for {
		n, ok := f.rxRing.NextFrame(f.rxScratch)
		if !ok {
			break
		}
		if f.pollOne(d, f.rxScratch[:n]) {
			activity = true
		}
	}
	return activity
}

func (f *Framer) pollOne(d Dispatcher, frame []byte) bool {
	if len(frame) < minFrameLen {
		f.errCounts[ErrKindBadRPC].Add(1)
		return f.sendError(ErrTextBadRPC)
	}
	channel := Channel(frame[0])
	ok, err := checksum.CheckAtEnd(frame)
	if err != nil || !ok {
		f.errCounts[ErrKindChecksumMismatch].Add(1)
		return f.sendError(ErrTextCorrupted)
	}
	payload := frame[1 : len(frame)-4]

	if channel != ChannelRpc {
		if f.OnUnknownChannel != nil {
			f.OnUnknownChannel(byte(channel), payload)
		}
		return false
	}

	if len(payload) < rpcHeaderLen {
		f.errCounts[ErrKindBadRPC].Add(1)
		return f.sendError(ErrTextBadRPC)
	}
	seqNo := payload[0]
	function := payload[1]
	args := payload[rpcHeaderLen:]

	f.rpcCalls[function].Add(1)
	n, ok := d.Call(function, args, f.replyResult)
	if !ok {
		f.errCounts[ErrKindRPCFailed].Add(1)
		return f.sendError(ErrTextRPCFailed)
	}

	f.replyPayload[0] = seqNo
	f.replyPayload[1] = function
	copy(f.replyPayload[rpcHeaderLen:], f.replyResult[:n])
	return f.Send(byte(ChannelRpc), f.replyPayload[:rpcHeaderLen+n])
}

// Send prepends the channel byte, appends a checksum, byte-stuffs the
// whole thing into the TX ring, and pushes a terminating zero. Returns
// false (a TX overflow, kind 5) if the ring couldn't hold the encoded
// frame; the caller decides whether to retry or drop.
func (f *Framer) Send(channel byte, payload []byte) bool {
	n := 1 + len(payload) + 4
	if n > len(f.txBuild) {
		return false
	}
	buf := f.txBuild[:n]
	buf[0] = channel
	copy(buf[1:], payload)
	if checksum.PutAtEnd(buf) != nil {
		return false
	}
	return f.sendFrame(buf)
}

// sendError emits the fixed zero-checksum diagnostic frame for a kind
// 1-3 failure, per the provisional error-reply format.
func (f *Framer) sendError(msg string) bool {
	n := 1 + len(msg) + 4
	if n > len(f.txBuild) {
		return false
	}
	buf := f.txBuild[:n]
	buf[0] = byte(ChannelRpc)
	copy(buf[1:], msg)
	for i := n - 4; i < n; i++ {
		buf[i] = 0
	}
	return f.sendFrame(buf)
}

func (f *Framer) sendFrame(buf []byte) bool {
	enc := cobs.NewEncoder(buf)
	for {
		b, ok := enc.Next()
		if !ok {
			break
		}
		f.txRing.PushBack(b)
		if f.txRing.Dropping() {
			f.txRing.ResetDropped()
			f.errCounts[ErrKindTXOverflow].Add(1)
			return false
		}
	}
	f.txRing.PushBack(0x00)
	if f.txRing.Dropping() {
		f.txRing.ResetDropped()
		f.errCounts[ErrKindTXOverflow].Add(1)
		return false
	}
	f.txRing.Notify()
	f.txFrames.Add(1)
	return true
}

// RxFrames reports the number of frames delivered to Poll (successfully
// reassembled, whether or not they went on to pass checksum/dispatch).
func (f *Framer) RxFrames() uint64 { return f.rxFrames.Load() }

// TxFrames reports the number of frames successfully queued by Send.
func (f *Framer) TxFrames() uint64 { return f.txFrames.Load() }

// ErrorCount reports the number of failures of the given kind observed
// since the Framer was constructed.
func (f *Framer) ErrorCount(kind ErrorKind) uint64 {
	if kind < 0 || kind >= numErrorKinds {
		return 0
	}
	return f.errCounts[kind].Load()
}

// RPCCallCount reports how many times the given function id was
// dispatched (including ids that then failed decode/invoke/encode).
func (f *Framer) RPCCallCount(function byte) uint64 {
	return f.rpcCalls[function].Load()
}
