package classifier

import (
	"TraceSpectra/internal/engine/protocol"
	"TraceSpectra/internal/model"
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
)

// NumFlows is the number of flows under study. Flow id 0 is "Flow 1", flow id 1 is "Flow 2".
const NumFlows = 2

// maxLineSize bounds a single trace line; longer lines are counted as
// skipped. ns-2 lines are well below 1 KiB.
const maxLineSize = 64 * 1024

// Accumulator collects the counters and the sparse per-second byte totals of one flow.
type Accumulator struct {
	Label         string
	Sent          uint64
	Received      uint64
	Dropped       uint64
	ReceivedBytes uint64
	// Buckets maps floor(timestamp) to the bytes received during that second.
	Buckets map[int64]uint64
}

func newAccumulator(label string) *Accumulator {
	return &Accumulator{Label: label, Buckets: make(map[int64]uint64)}
}

// Classifier routes events of the transport of interest to the two flow accumulators.
type Classifier struct {
	protocol string
	flows    [NumFlows]*Accumulator

	lines   uint64
	skipped uint64
}

// New creates a classifier that keeps only events whose protocol token equals proto.
func New(proto string) *Classifier {
	return &Classifier{
		protocol: proto,
		flows:    [NumFlows]*Accumulator{newAccumulator("Flow 1"), newAccumulator("Flow 2")},
	}
}

// Add classifies a single event.
func (c *Classifier) Add(ev model.Event) {
	if ev.Protocol != c.protocol {
		return
	}
	if ev.FlowID < 0 || ev.FlowID >= NumFlows {
		// background or routing traffic
		return
	}
	acc := c.flows[ev.FlowID]

	switch ev.Kind {
	case model.EventSend:
		acc.Sent++
	case model.EventReceive:
		if !protocol.ValidTimestamp(ev.Timestamp) {
			return
		}
		acc.Received++
		acc.ReceivedBytes += uint64(ev.Size)
		bucket := int64(math.Floor(ev.Timestamp))
		acc.Buckets[bucket] += uint64(ev.Size)
	case model.EventDrop:
		acc.Dropped++
	}
}

// AddLine parses and classifies a raw trace line. Malformed lines are counted and dropped.
func (c *Classifier) AddLine(line string) {
	c.lines++
	ev, ok := protocol.ParseLine(line)
	if !ok {
		c.skipped++
		return
	}
	c.Add(ev)
}

// Consume reads r line by line until EOF. Only read errors are returned;
// malformed content, including lines longer than maxLineSize, never is.
func (c *Classifier) Consume(r io.Reader) error {
	br := bufio.NewReaderSize(r, maxLineSize)
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// discard the rest of the oversized line
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = br.ReadSlice('\n')
			}
			c.lines++
			c.skipped++
		} else if len(line) > 0 {
			c.AddLine(string(bytes.TrimRight(line, "\r\n")))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Flow returns the accumulator of flow id i (0 or 1).
func (c *Classifier) Flow(i int) *Accumulator {
	return c.flows[i]
}

// Lines returns the number of lines seen by AddLine.
func (c *Classifier) Lines() uint64 {
	return c.lines
}

// Skipped returns the number of malformed lines.
func (c *Classifier) Skipped() uint64 {
	return c.skipped
}

// CountRecord increments the line counter for events that did not come from AddLine.
func (c *Classifier) CountRecord() {
	c.lines++
}
