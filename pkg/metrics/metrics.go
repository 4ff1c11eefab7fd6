// Package metrics exposes a *ccf.Framer's internal counters as Prometheus
// metrics: a small prometheus.Collector wrapping one live object. The
// Framer's counters are already atomics, so Collect just reads them;
// there is nothing to lock.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/commsccf/ccf/ccf"
	"github.com/commsccf/ccf/rpc"
)

// FramerCollector reports RX/TX frame counts, per-kind dispatch/transport
// error counts, and per-function RPC call counts for one *ccf.Framer. It
// is purely observational: nothing here participates in flow control.
type FramerCollector struct {
	framer *ccf.Framer

	functionNames map[byte]string

	rxFrames           *prometheus.Desc
	rxDrops            *prometheus.Desc
	rxChecksumFailures *prometheus.Desc
	txFrames           *prometheus.Desc
	txOverflow         *prometheus.Desc
	rpcCalls           *prometheus.Desc
	rpcErrors          *prometheus.Desc
}

// NewFramerCollector builds a collector for framer. calls is the
// dispatcher's registered call list (function id = index+1):
// ccf_rpc_calls_total is emitted only for those functions, labelled by
// name, so with calls nil it is not emitted at all. constLabels are
// attached to every exposed metric.
func NewFramerCollector(framer *ccf.Framer, namespace string, constLabels prometheus.Labels, calls []*rpc.Call) *FramerCollector {
	names := make(map[byte]string, len(calls))
	for i, c := range calls {
		names[byte(i+1)] = c.Name()
	}

	return &FramerCollector{
		framer:        framer,
		functionNames: names,
		rxFrames: prometheus.NewDesc(
			namespace+"_rx_frames_total", "Frames reassembled off the RX ring.", nil, constLabels),
		rxDrops: prometheus.NewDesc(
			namespace+"_rx_drops_total", "Packets discarded for exceeding max_pkt_size or ring capacity.", nil, constLabels),
		rxChecksumFailures: prometheus.NewDesc(
			namespace+"_rx_checksum_failures_total", "Frames that failed FNV-1a verification.", nil, constLabels),
		txFrames: prometheus.NewDesc(
			namespace+"_tx_frames_total", "Frames successfully queued by Send.", nil, constLabels),
		txOverflow: prometheus.NewDesc(
			namespace+"_tx_overflow_total", "Send calls that failed because the TX ring couldn't hold the frame.", nil, constLabels),
		rpcCalls: prometheus.NewDesc(
			namespace+"_rpc_calls_total", "RPC dispatches, by function.", []string{"function"}, constLabels),
		rpcErrors: prometheus.NewDesc(
			namespace+"_rpc_errors_total", "Dispatch/transport failures, by kind.", []string{"kind"}, constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *FramerCollector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.rxFrames
	descs <- c.rxDrops
	descs <- c.rxChecksumFailures
	descs <- c.txFrames
	descs <- c.txOverflow
	descs <- c.rpcCalls
	descs <- c.rpcErrors
}

// Collect implements prometheus.Collector.
func (c *FramerCollector) Collect(metrics chan<- prometheus.Metric) {
	metrics <- prometheus.MustNewConstMetric(c.rxFrames, prometheus.CounterValue, float64(c.framer.RxFrames()))
	metrics <- prometheus.MustNewConstMetric(c.rxDrops, prometheus.CounterValue, float64(c.framer.ErrorCount(ccf.ErrKindRXOverflow)))
	metrics <- prometheus.MustNewConstMetric(c.rxChecksumFailures, prometheus.CounterValue, float64(c.framer.ErrorCount(ccf.ErrKindChecksumMismatch)))
	metrics <- prometheus.MustNewConstMetric(c.txFrames, prometheus.CounterValue, float64(c.framer.TxFrames()))
	metrics <- prometheus.MustNewConstMetric(c.txOverflow, prometheus.CounterValue, float64(c.framer.ErrorCount(ccf.ErrKindTXOverflow)))

	for _, kind := range []ccf.ErrorKind{
		ccf.ErrKindBadRPC, ccf.ErrKindChecksumMismatch, ccf.ErrKindRPCFailed,
		ccf.ErrKindRXOverflow, ccf.ErrKindTXOverflow,
	} {
		metrics <- prometheus.MustNewConstMetric(c.rpcErrors, prometheus.CounterValue, float64(c.framer.ErrorCount(kind)), kind.String())
	}

	for fn, name := range c.functionNames {
		metrics <- prometheus.MustNewConstMetric(c.rpcCalls, prometheus.CounterValue, float64(c.framer.RPCCallCount(fn)), name)
	}
}
