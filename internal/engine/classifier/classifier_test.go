package classifier

import (
	"TraceSpectra/internal/model"
	"errors"
	"math"
	"strings"
	"testing"
)

const sampleTrace = `+ 0.10 0 2 tcp 1040 ------- 1 0.0 3.0 0 1
- 0.10 0 2 tcp 1040 ------- 1 0.0 3.0 0 1
r 0.50 2 3 tcp 1040 ------- 1 0.0 3.0 0 1
+ 0.20 1 2 tcp 1040 ------- 2 1.0 4.0 0 2
d 0.30 1 2 tcp 1040 ------- 2 1.0 4.0 0 2
r 2.75 2 4 tcp 1000 ------- 2 1.0 4.0 1 3
r 2.10 2 4 tcp 500 ------- 2 1.0 4.0 2 4
r 3.00 2 3 udp 1000 ------- 3 0.0 3.0 0 5
r 3.00 2 3 tcp 1000 ------- 3 5.0 3.0 0 6
this is not a trace line
`

func TestClassifier_Consume(t *testing.T) {
	c := New("tcp")
	if err := c.Consume(strings.NewReader(sampleTrace)); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	f1, f2 := c.Flow(0), c.Flow(1)
	if f1.Sent != 1 || f1.Received != 1 || f1.Dropped != 0 || f1.ReceivedBytes != 1040 {
		t.Errorf("Unexpected flow 1 counters: %+v", f1)
	}
	if f2.Sent != 1 || f2.Received != 2 || f2.Dropped != 1 || f2.ReceivedBytes != 1500 {
		t.Errorf("Unexpected flow 2 counters: %+v", f2)
	}
	if f1.Buckets[0] != 1040 || len(f1.Buckets) != 1 {
		t.Errorf("Unexpected flow 1 buckets: %v", f1.Buckets)
	}
	if f2.Buckets[2] != 1500 || len(f2.Buckets) != 1 {
		t.Errorf("Unexpected flow 2 buckets: %v", f2.Buckets)
	}
	if c.Lines() != 10 {
		t.Errorf("Expected 10 lines, got %d", c.Lines())
	}
	if c.Skipped() != 1 {
		t.Errorf("Expected 1 skipped line, got %d", c.Skipped())
	}
}

func TestClassifier_IgnoresOtherProtocolsAndFlows(t *testing.T) {
	c := New("tcp")
	c.Add(model.Event{Kind: model.EventReceive, Protocol: "cbr", Size: 100, FlowID: 0})
	c.Add(model.Event{Kind: model.EventReceive, Protocol: "tcp", Size: 100, FlowID: 2})
	c.Add(model.Event{Kind: model.EventReceive, Protocol: "tcp", Size: 100, FlowID: -1})
	c.Add(model.Event{Kind: model.EventOther, Protocol: "tcp", Size: 100, FlowID: 0})

	for i := 0; i < NumFlows; i++ {
		f := c.Flow(i)
		if f.Sent+f.Received+f.Dropped+f.ReceivedBytes != 0 || len(f.Buckets) != 0 {
			t.Errorf("Flow %d should be untouched, got %+v", i, f)
		}
	}
}

func TestClassifier_Labels(t *testing.T) {
	c := New("tcp")
	if c.Flow(0).Label != "Flow 1" || c.Flow(1).Label != "Flow 2" {
		t.Fatalf("labels=%q,%q", c.Flow(0).Label, c.Flow(1).Label)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestClassifier_ConsumeReadError(t *testing.T) {
	c := New("tcp")
	if err := c.Consume(failingReader{}); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestClassifier_ConsumeOversizedLine(t *testing.T) {
	trace := "r 0.50 2 3 tcp 1000 ------- 1 0.0 3.0 0 1\n" +
		strings.Repeat("x", 2<<20) + "\n" +
		"r 1.50 2 3 tcp 500 ------- 1 0.0 3.0 0 2\r\n" +
		"r 2.50 2 3 tcp 250 ------- 1 1.0 3.0 0 3"

	c := New("tcp")
	if err := c.Consume(strings.NewReader(trace)); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if f := c.Flow(0); f.Received != 2 || f.ReceivedBytes != 1500 {
		t.Errorf("Unexpected flow 1 counters: %+v", f)
	}
	if f := c.Flow(1); f.Received != 1 || f.ReceivedBytes != 250 {
		t.Errorf("Unexpected flow 2 counters: %+v", f)
	}
	if c.Lines() != 4 || c.Skipped() != 1 {
		t.Errorf("lines=%d skipped=%d, want 4 and 1", c.Lines(), c.Skipped())
	}
}

func TestClassifier_ConsumeOversizedLastLine(t *testing.T) {
	c := New("tcp")
	trace := "r 0.50 2 3 tcp 1000 ------- 1 0.0 3.0 0 1\n" + strings.Repeat("y", maxLineSize*3)
	if err := c.Consume(strings.NewReader(trace)); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if c.Flow(0).ReceivedBytes != 1000 || c.Skipped() != 1 {
		t.Errorf("bytes=%d skipped=%d", c.Flow(0).ReceivedBytes, c.Skipped())
	}
}

func TestClassifier_IgnoresInvalidReceiveTimestamps(t *testing.T) {
	c := New("tcp")
	for _, ts := range []float64{math.Inf(1), math.NaN(), 1e17, -1e17} {
		c.Add(model.Event{Kind: model.EventReceive, Timestamp: ts, Protocol: "tcp", Size: 100, FlowID: 0})
	}
	if f := c.Flow(0); f.Received != 0 || len(f.Buckets) != 0 {
		t.Errorf("invalid timestamps were counted: %+v", f)
	}
}
