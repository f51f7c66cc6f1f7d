package pcap

import (
	"TraceSpectra/internal/engine/protocol"
	"TraceSpectra/internal/model"
	"TraceSpectra/pkg/tracefile"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cespare/xxhash"
	"github.com/google/gopacket/pcapgo"
)

// Reader reads packets from a pcap stream without libpcap.
type Reader struct {
	r      *pcapgo.Reader
	closer io.Closer

	packets uint64
	skipped uint64
}

// NewReader creates a pcap reader over an already open stream.
func NewReader(r io.Reader) (*Reader, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	return &Reader{r: pr}, nil
}

// Open creates a pcap reader for the given file path. Gzip compressed
// captures (.pcap.gz) are inflated transparently.
func Open(filePath string) (*Reader, error) {
	f, err := tracefile.Open(filePath)
	if err != nil {
		return nil, err
	}
	reader, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	reader.closer = f
	return reader, nil
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next returns the next IPv4 TCP or UDP packet. Other packets are counted
// as skipped. It returns io.EOF at the end of the capture.
func (r *Reader) Next() (*model.PacketInfo, error) {
	for {
		data, ci, err := r.r.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				// a capture cut off mid-record still yields what was written
				log.Printf("Warning: truncated pcap record after %d packets", r.packets)
				return nil, io.EOF
			}
			return nil, err
		}
		r.packets++

		info, err := protocol.ParsePacket(data, ci, r.r.LinkType())
		if err != nil {
			r.skipped++
			continue
		}
		return info, nil
	}
}

// Packets returns the number of records read so far.
func (r *Reader) Packets() uint64 {
	return r.packets
}

// Skipped returns the number of records that were not IPv4 TCP or UDP.
func (r *Reader) Skipped() uint64 {
	return r.skipped
}

// ReadEvents converts every data packet of the capture into a receive event
// and hands it to fn. Segments without transport payload (pure ACKs, SYN,
// FIN) carry no goodput and do not take a flow slot.
func (r *Reader) ReadEvents(fn func(model.Event)) error {
	tracker := NewFlowTracker()
	for {
		info, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if ev, ok := tracker.Event(info); ok {
			fn(ev)
		}
	}
}

// FlowTracker numbers flows by order of first appearance and rebases
// timestamps on the first packet seen.
type FlowTracker struct {
	ids   map[uint64]int
	start time.Time
}

// NewFlowTracker creates an empty tracker.
func NewFlowTracker() *FlowTracker {
	return &FlowTracker{ids: make(map[uint64]int)}
}

// Event maps a packet to a receive event. The second return value is false
// for packets without payload and for packets whose rebased timestamp is out
// of range.
func (t *FlowTracker) Event(info *model.PacketInfo) (model.Event, bool) {
	if t.start.IsZero() {
		t.start = info.Timestamp
	}
	if info.PayloadLength == 0 {
		return model.Event{}, false
	}
	ts := info.Timestamp.Sub(t.start).Seconds()
	if !protocol.ValidTimestamp(ts) {
		return model.Event{}, false
	}

	key := FlowKey(info.FiveTuple)
	id, ok := t.ids[key]
	if !ok {
		id = len(t.ids)
		t.ids[key] = id
	}

	return model.Event{
		Kind:      model.EventReceive,
		Timestamp: ts,
		Protocol:  protocol.TransportName(info.FiveTuple.Protocol),
		Size:      int64(info.Length),
		FlowID:    id,
	}, true
}

// FlowKey hashes a directional 5-tuple.
func FlowKey(ft model.FiveTuple) uint64 {
	buf := make([]byte, 0, 37)
	buf = append(buf, ft.SrcIP.To16()...)
	buf = append(buf, ft.DstIP.To16()...)
	buf = binary.LittleEndian.AppendUint16(buf, ft.SrcPort)
	buf = binary.LittleEndian.AppendUint16(buf, ft.DstPort)
	buf = append(buf, ft.Protocol)
	return xxhash.Sum64(buf)
}
