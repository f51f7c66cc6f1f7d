package protocol

import (
	"TraceSpectra/internal/model"
	"math"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		ok     bool
		expect model.Event
	}{
		{
			name:   "receive flow 0",
			line:   "r 0.5 2 3 tcp 1000 ------- 1 0.0 3.0 1 10",
			ok:     true,
			expect: model.Event{Kind: model.EventReceive, Timestamp: 0.5, Protocol: "tcp", Size: 1000, FlowID: 0},
		},
		{
			name:   "enqueue flow 1 with extra columns",
			line:   "+ 12.25 1 2 tcp 1040 ------- 2 extra 1.0 4.1 77 300",
			ok:     true,
			expect: model.Event{Kind: model.EventSend, Timestamp: 12.25, Protocol: "tcp", Size: 1040, FlowID: 1},
		},
		{
			name:   "dequeue is other",
			line:   "- 1.0 2 3 ack 40 ------- 1 3.0 0.0 5 6",
			ok:     true,
			expect: model.Event{Kind: model.EventOther, Timestamp: 1.0, Protocol: "ack", Size: 40, FlowID: 3},
		},
		{name: "too few fields", line: "r 0.5 2 3 tcp 1000 ------- 1 0.0 3.0 1", ok: false},
		{name: "empty", line: "", ok: false},
		{name: "bad timestamp", line: "r abc 2 3 tcp 1000 ------- 1 0.0 3.0 1 10", ok: false},
		{name: "bad size", line: "r 0.5 2 3 tcp 1k ------- 1 0.0 3.0 1 10", ok: false},
		{name: "negative size", line: "r 0.5 2 3 tcp -5 ------- 1 0.0 3.0 1 10", ok: false},
		{name: "non numeric flow", line: "r 0.5 2 3 tcp 1000 ------- 1 x.0 3.0 1 10", ok: false},
		{name: "infinite timestamp", line: "r inf 2 3 tcp 1000 ------- 1 0.0 3.0 1 10", ok: false},
		{name: "NaN timestamp", line: "r NaN 2 3 tcp 1000 ------- 1 0.0 3.0 1 10", ok: false},
		{name: "huge timestamp", line: "r 1e17 2 3 tcp 1000 ------- 1 0.0 3.0 1 10", ok: false},
		{name: "overflowing timestamp", line: "r 1e400 2 3 tcp 1000 ------- 1 0.0 3.0 1 10", ok: false},
		{
			name:   "negative timestamp kept",
			line:   "r -2.5 2 3 tcp 1000 ------- 1 1.0 3.0 1 10",
			ok:     true,
			expect: model.Event{Kind: model.EventReceive, Timestamp: -2.5, Protocol: "tcp", Size: 1000, FlowID: 1},
		},
		{
			name:   "leading zero flow is not routed",
			line:   "r 0.5 2 3 tcp 1000 ------- 1 00.0 3.0 1 10",
			ok:     true,
			expect: model.Event{Kind: model.EventReceive, Timestamp: 0.5, Protocol: "tcp", Size: 1000, FlowID: UnroutedFlow},
		},
		{
			name:   "signed flow is not routed",
			line:   "r 0.5 2 3 tcp 1000 ------- 1 +1.0 3.0 1 10",
			ok:     true,
			expect: model.Event{Kind: model.EventReceive, Timestamp: 0.5, Protocol: "tcp", Size: 1000, FlowID: UnroutedFlow},
		},
		{
			name:   "negative zero flow is not routed",
			line:   "r 0.5 2 3 tcp 1000 ------- 1 -0 3.0 1 10",
			ok:     true,
			expect: model.Event{Kind: model.EventReceive, Timestamp: 0.5, Protocol: "tcp", Size: 1000, FlowID: UnroutedFlow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseLine(%q) ok=%v, want %v", tt.line, ok, tt.ok)
			}
			if ok && got != tt.expect {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.expect)
			}
		})
	}
}

func TestValidTimestamp(t *testing.T) {
	for _, ts := range []float64{0, 0.5, -3, MaxTimestamp, -MaxTimestamp} {
		if !ValidTimestamp(ts) {
			t.Errorf("ValidTimestamp(%v) = false, want true", ts)
		}
	}
	for _, ts := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), MaxTimestamp + 1, -1e17} {
		if ValidTimestamp(ts) {
			t.Errorf("ValidTimestamp(%v) = true, want false", ts)
		}
	}
}

func TestParsePacket(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{SrcPort: 40000, DstPort: 5001, Window: 14600}
	tcp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(make([]byte, 100))); err != nil {
		t.Fatalf("Failed to serialize layers: %v", err)
	}

	ts := time.Unix(100, 0)
	ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(buf.Bytes()), Length: len(buf.Bytes())}
	info, err := ParsePacket(buf.Bytes(), ci, layers.LayerTypeEthernet)
	if err != nil {
		t.Fatalf("ParsePacket failed: %v", err)
	}
	if !info.Timestamp.Equal(ts) {
		t.Errorf("Expected timestamp %v, got %v", ts, info.Timestamp)
	}
	if info.Length != len(buf.Bytes()) {
		t.Errorf("Expected length %d, got %d", len(buf.Bytes()), info.Length)
	}
	if info.FiveTuple.SrcPort != 40000 || info.FiveTuple.DstPort != 5001 {
		t.Errorf("Unexpected ports: %+v", info.FiveTuple)
	}
	if info.PayloadLength != 100 {
		t.Errorf("Expected payload length 100, got %d", info.PayloadLength)
	}
	if TransportName(info.FiveTuple.Protocol) != "tcp" {
		t.Errorf("Expected tcp, got %q", TransportName(info.FiveTuple.Protocol))
	}
}
