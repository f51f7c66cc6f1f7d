package protocol

import (
	"TraceSpectra/internal/model"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// MinTraceFields is the number of whitespace separated fields of a well-formed trace line.
const MinTraceFields = 12

// MaxTimestamp bounds the magnitude of a trace timestamp in seconds. Larger
// values cannot be bucketed into a per-second series and make the line
// malformed.
const MaxTimestamp = 1 << 22

// UnroutedFlow is the flow id given to flow tokens that are numeric but not
// exactly "0" or "1" (e.g. "00", "+1"); the classifier ignores it.
const UnroutedFlow = -1

// Field positions of an ns-2 style trace line.
const (
	fieldKind      = 0
	fieldTimestamp = 1
	fieldProtocol  = 4
	fieldSize      = 5
	// counted from the end of the line: "<flow>.<sub>" is the 4th-from-last token
	fieldFlowFromEnd = 4
)

// ParseLine decodes a single trace line. The second return value is false for
// lines that are too short, carry a non-numeric size or flow id, or a
// timestamp rejected by ValidTimestamp; such lines are skipped by callers
// without raising an error.
func ParseLine(line string) (model.Event, bool) {
	parts := strings.Fields(line)
	if len(parts) < MinTraceFields {
		return model.Event{}, false
	}

	ts, err := strconv.ParseFloat(parts[fieldTimestamp], 64)
	if err != nil || !ValidTimestamp(ts) {
		return model.Event{}, false
	}
	size, err := strconv.ParseInt(parts[fieldSize], 10, 64)
	if err != nil || size < 0 {
		return model.Event{}, false
	}

	flowToken := parts[len(parts)-fieldFlowFromEnd]
	if i := strings.IndexByte(flowToken, '.'); i >= 0 {
		flowToken = flowToken[:i]
	}
	flowID, err := strconv.Atoi(flowToken)
	if err != nil {
		return model.Event{}, false
	}
	// only the literal tokens "0" and "1" select a flow under study
	if (flowID == 0 || flowID == 1) && flowToken != strconv.Itoa(flowID) {
		flowID = UnroutedFlow
	}

	return model.Event{
		Kind:      model.ParseEventKind(parts[fieldKind]),
		Timestamp: ts,
		Protocol:  parts[fieldProtocol],
		Size:      size,
		FlowID:    flowID,
	}, true
}

// ValidTimestamp reports whether ts is finite and within MaxTimestamp.
// Negative and out-of-order values are accepted.
func ValidTimestamp(ts float64) bool {
	return !math.IsNaN(ts) && !math.IsInf(ts, 0) && math.Abs(ts) <= MaxTimestamp
}

// ParsePacket uses gopacket to decode a raw captured packet and extract key information.
func ParsePacket(data []byte, ci gopacket.CaptureInfo, linkType gopacket.Decoder) (*model.PacketInfo, error) {
	packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	info := &model.PacketInfo{
		Timestamp: ci.Timestamp,
		Length:    ci.Length,
	}
	if info.Timestamp.IsZero() {
		info.Timestamp = time.Unix(0, 0)
	}
	if info.Length == 0 {
		info.Length = len(data)
	}

	var fiveTuple model.FiveTuple
	var ipLayer *layers.IPv4

	if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
		ipLayer = l.(*layers.IPv4)
		fiveTuple.SrcIP = ipLayer.SrcIP
		fiveTuple.DstIP = ipLayer.DstIP
		fiveTuple.Protocol = uint8(ipLayer.Protocol)
	} else {
		return nil, fmt.Errorf("not an IPv4 packet")
	}

	if l := packet.Layer(layers.LayerTypeTCP); l != nil {
		tcpLayer := l.(*layers.TCP)
		fiveTuple.SrcPort = uint16(tcpLayer.SrcPort)
		fiveTuple.DstPort = uint16(tcpLayer.DstPort)
		info.PayloadLength = int(ipLayer.Length) - int(ipLayer.IHL)*4 - int(tcpLayer.DataOffset)*4
	} else if l := packet.Layer(layers.LayerTypeUDP); l != nil {
		udpLayer := l.(*layers.UDP)
		fiveTuple.SrcPort = uint16(udpLayer.SrcPort)
		fiveTuple.DstPort = uint16(udpLayer.DstPort)
		info.PayloadLength = int(udpLayer.Length) - 8
	} else {
		return nil, fmt.Errorf("not a TCP or UDP packet")
	}
	if info.PayloadLength < 0 {
		info.PayloadLength = 0
	}

	info.FiveTuple = fiveTuple
	return info, nil
}

// TransportName returns the trace style protocol token ("tcp", "udp") of an IP protocol number.
func TransportName(proto uint8) string {
	return strings.ToLower(layers.IPProtocol(proto).String())
}
