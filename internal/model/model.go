package model

import (
	"net"
	"strconv"
	"time"
)

// EventKind is the first column of a trace line.
type EventKind uint8

const (
	EventOther EventKind = iota
	EventSend
	EventReceive
	EventDrop
)

// ParseEventKind maps a trace token to its EventKind. Unknown tokens
// (dequeue "-", routing, etc.) map to EventOther.
func ParseEventKind(token string) EventKind {
	switch token {
	case "+":
		return EventSend
	case "r":
		return EventReceive
	case "d":
		return EventDrop
	default:
		return EventOther
	}
}

func (k EventKind) String() string {
	switch k {
	case EventSend:
		return "send"
	case EventReceive:
		return "receive"
	case EventDrop:
		return "drop"
	default:
		return "other"
	}
}

// Event is a single record of a trace.
type Event struct {
	Kind      EventKind
	Timestamp float64 // seconds since simulation start
	Protocol  string
	Size      int64 // bytes
	FlowID    int
}

// FiveTuple represents the 5-tuple of a captured packet.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// PacketInfo holds the metadata extracted from a single captured packet.
type PacketInfo struct {
	Timestamp time.Time
	FiveTuple FiveTuple
	Length    int
	// PayloadLength is the transport payload size taken from the IP and
	// transport headers, so it survives snaplen truncation.
	PayloadLength int
}

// FlowStats holds the counters and the dense throughput series of one flow.
type FlowStats struct {
	Label         string
	Sent          uint64
	Received      uint64
	Dropped       uint64
	ReceivedBytes uint64
	// Throughput holds one Mbps sample per second, from second 0 to the
	// last second with a receive event. Empty if the flow received nothing.
	Throughput []float64
}

// Stability is the coefficient of variation of the pooled throughput
// samples. Defined is false when the CoV cannot be computed (no samples or a
// zero mean); such a value is not comparable and must not be read as zero.
type Stability struct {
	CoV     float64 `json:"cov"`
	Defined bool    `json:"defined"`
}

// UndefinedStability is the "infinite" sentinel.
var UndefinedStability = Stability{}

// DefinedStability wraps a computed CoV.
func DefinedStability(cov float64) Stability {
	return Stability{CoV: cov, Defined: true}
}

// Value returns the CoV and whether it is defined.
func (s Stability) Value() (float64, bool) {
	return s.CoV, s.Defined
}

// Format renders the CoV with prec decimals, or "inf" when undefined.
func (s Stability) Format(prec int) string {
	if !s.Defined {
		return "inf"
	}
	return strconv.FormatFloat(s.CoV, 'f', prec, 64)
}

func (s Stability) String() string {
	return s.Format(4)
}

// MetricResult holds the four comparison metrics of a trace.
type MetricResult struct {
	GoodputMbps           float64
	PacketLossRatePercent float64
	FairnessIndex         float64
	Stability             Stability
}

// TraceFormat selects the decoder for a trace file.
type TraceFormat string

const (
	FormatNS2  TraceFormat = "ns2"
	FormatPcap TraceFormat = "pcap"
)

// TraceSpec identifies one trace to analyze.
type TraceSpec struct {
	Name   string      `yaml:"name"`  // e.g. "cubic"
	Group  string      `yaml:"group"` // e.g. "DropTail" or "RED"
	Path   string      `yaml:"path"`
	Format TraceFormat `yaml:"format"`
}

// Key returns a stable identifier of the trace, "<group>/<name>" or just the
// name when no group is set.
func (s TraceSpec) Key() string {
	if s.Group == "" {
		return s.Name
	}
	return s.Group + "/" + s.Name
}

// TraceResult is the outcome of one analysis pass.
type TraceResult struct {
	Spec       TraceSpec
	Missing    bool
	Flows      [2]FlowStats
	Metrics    MetricResult
	Lines      uint64 // lines (or packets) read
	Skipped    uint64 // malformed lines dropped by the parser
	AnalyzedAt time.Time
}
