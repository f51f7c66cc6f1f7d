package pcap

import (
	"TraceSpectra/internal/model"
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

type testPacket struct {
	at      time.Duration
	src     net.IP
	dst     net.IP
	sport   uint16
	dport   uint16
	payload int
}

var (
	sender1  = net.IP{10, 1, 0, 1}
	sender2  = net.IP{10, 1, 0, 2}
	receiver = net.IP{10, 2, 0, 1}
)

func buildCapture(t *testing.T, pkts []testPacket) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("Failed to write pcap header: %v", err)
	}

	base := time.Unix(1700000000, 0)
	for _, p := range pkts {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
			DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolTCP, SrcIP: p.src, DstIP: p.dst}
		tcp := &layers.TCP{SrcPort: layers.TCPPort(p.sport), DstPort: layers.TCPPort(p.dport), ACK: true, Window: 65535}
		tcp.SetNetworkLayerForChecksum(ip)

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(make([]byte, p.payload))); err != nil {
			t.Fatalf("Failed to serialize packet: %v", err)
		}
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{Timestamp: base.Add(p.at), CaptureLength: len(data), Length: len(data)}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("Failed to write packet: %v", err)
		}
	}
	return &out
}

func TestReader_ReadEvents(t *testing.T) {
	capture := buildCapture(t, []testPacket{
		{at: 0, src: sender1, dst: receiver, sport: 40000, dport: 5001, payload: 1000},
		{at: 10 * time.Millisecond, src: receiver, dst: sender1, sport: 5001, dport: 40000, payload: 0},
		{at: 500 * time.Millisecond, src: sender2, dst: receiver, sport: 40001, dport: 5002, payload: 500},
		{at: 1500 * time.Millisecond, src: sender1, dst: receiver, sport: 40000, dport: 5001, payload: 1000},
		{at: 2 * time.Second, src: sender2, dst: receiver, sport: 40002, dport: 5003, payload: 10},
	})

	reader, err := NewReader(capture)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	var events []model.Event
	if err := reader.ReadEvents(func(ev model.Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("Expected 4 data events, got %d: %+v", len(events), events)
	}
	wantFlows := []int{0, 1, 0, 2}
	wantTimes := []float64{0, 0.5, 1.5, 2}
	for i, ev := range events {
		if ev.Kind != model.EventReceive || ev.Protocol != "tcp" {
			t.Errorf("Event %d: unexpected kind/protocol %v/%q", i, ev.Kind, ev.Protocol)
		}
		if ev.FlowID != wantFlows[i] {
			t.Errorf("Event %d: expected flow %d, got %d", i, wantFlows[i], ev.FlowID)
		}
		if ev.Timestamp != wantTimes[i] {
			t.Errorf("Event %d: expected t=%v, got %v", i, wantTimes[i], ev.Timestamp)
		}
	}
	// 14 ethernet + 20 ip + 20 tcp + payload
	if events[0].Size != 1054 {
		t.Errorf("Expected wire size 1054, got %d", events[0].Size)
	}
	if reader.Packets() != 5 || reader.Skipped() != 0 {
		t.Errorf("Expected 5 packets and 0 skipped, got %d and %d", reader.Packets(), reader.Skipped())
	}
}

func TestFlowKey_Directional(t *testing.T) {
	fwd := model.FiveTuple{SrcIP: sender1, DstIP: receiver, SrcPort: 1, DstPort: 2, Protocol: 6}
	rev := model.FiveTuple{SrcIP: receiver, DstIP: sender1, SrcPort: 2, DstPort: 1, Protocol: 6}
	if FlowKey(fwd) == FlowKey(rev) {
		t.Errorf("Opposite directions should hash differently")
	}
	if FlowKey(fwd) != FlowKey(fwd) {
		t.Errorf("FlowKey is not deterministic")
	}
}

func TestFlowTracker_SkipsOutOfRangeTimestamps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ft := model.FiveTuple{SrcIP: sender1, DstIP: receiver, SrcPort: 1, DstPort: 2, Protocol: 6}
	tr := NewFlowTracker()

	if _, ok := tr.Event(&model.PacketInfo{Timestamp: base, Length: 100, PayloadLength: 40, FiveTuple: ft}); !ok {
		t.Fatalf("First packet should yield an event")
	}
	far := &model.PacketInfo{Timestamp: base.AddDate(5, 0, 0), Length: 100, PayloadLength: 40, FiveTuple: ft}
	if ev, ok := tr.Event(far); ok {
		t.Errorf("Packet years after the first should be skipped, got %+v", ev)
	}
	near := &model.PacketInfo{Timestamp: base.Add(1500 * time.Millisecond), Length: 100, PayloadLength: 40, FiveTuple: ft}
	if ev, ok := tr.Event(near); !ok || ev.Timestamp != 1.5 || ev.FlowID != 0 {
		t.Errorf("Unexpected event %+v ok=%v", ev, ok)
	}
}

func TestNewReader_BadHeader(t *testing.T) {
	if _, err := NewReader(bytes.NewReader([]byte("not a capture"))); err == nil {
		t.Fatalf("Expected an error for a bad pcap header")
	}
}

func TestReader_Summarize(t *testing.T) {
	capture := buildCapture(t, []testPacket{
		{at: 0, src: sender1, dst: receiver, sport: 40000, dport: 5001, payload: 1000},
		{at: 10 * time.Millisecond, src: receiver, dst: sender1, sport: 5001, dport: 40000, payload: 0},
		{at: 500 * time.Millisecond, src: sender2, dst: receiver, sport: 40001, dport: 5002, payload: 500},
		{at: 1500 * time.Millisecond, src: sender1, dst: receiver, sport: 40000, dport: 5001, payload: 1000},
	})
	reader, err := NewReader(capture)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Close()

	flows, err := reader.Summarize()
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(flows) != 2 {
		t.Fatalf("Expected 2 data flows, got %+v", flows)
	}
	if flows[0].Packets != 2 || flows[0].Bytes != 2108 || flows[0].Last != 1.5 {
		t.Errorf("Unexpected first flow: %+v", flows[0])
	}
	if !flows[1].Tuple.SrcIP.Equal(sender2) || flows[1].First != 0.5 {
		t.Errorf("Unexpected second flow: %+v", flows[1])
	}
}
