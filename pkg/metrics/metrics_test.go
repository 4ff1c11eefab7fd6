package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/commsccf/ccf/ccf"
	"github.com/commsccf/ccf/rpc"
)

func add(x, y int64) int64 { return x + y }

func TestCollectEmitsExpectedMetrics(t *testing.T) {
	cfg, err := ccf.NewConfig(64, 64, 32)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	framer, err := ccf.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	calls := []*rpc.Call{rpc.NewCall("add", "", []string{"x", "y"}, add)}
	collector := NewFramerCollector(framer, "ccf", nil, calls)

	descCh := make(chan *prometheus.Desc, 16)
	collector.Describe(descCh)
	close(descCh)
	var descCount int
	for range descCh {
		descCount++
	}
	if descCount != 7 {
		t.Fatalf("Describe emitted %d descs, want 7", descCount)
	}

	metricCh := make(chan prometheus.Metric, 32)
	collector.Collect(metricCh)
	close(metricCh)

	var sawRPCCallsLabelled bool
	for m := range metricCh {
		var out dto.Metric
		if err := m.Write(&out); err != nil {
			t.Fatalf("Write: %v", err)
		}
		for _, lp := range out.Label {
			if lp.GetName() == "function" && lp.GetValue() == "add" {
				sawRPCCallsLabelled = true
			}
		}
	}
	if !sawRPCCallsLabelled {
		t.Fatal("expected ccf_rpc_calls_total labelled function=\"add\"")
	}
}

func TestCollectReflectsFramerActivity(t *testing.T) {
	cfg, err := ccf.NewConfig(64, 64, 32)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	framer, err := ccf.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !framer.Send(byte(ccf.ChannelLog), []byte("hi")) {
		t.Fatal("Send failed")
	}

	collector := NewFramerCollector(framer, "ccf", nil, nil)
	metricCh := make(chan prometheus.Metric, 16)
	collector.Collect(metricCh)
	close(metricCh)

	found := false
	for m := range metricCh {
		var out dto.Metric
		if err := m.Write(&out); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if out.Counter != nil && out.Counter.GetValue() == 1 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected tx_frames_total to reflect the Send call")
	}
}
