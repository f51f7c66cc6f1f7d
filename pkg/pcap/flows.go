package pcap

import (
	"TraceSpectra/internal/model"
	"io"
)

// FlowInfo summarizes one data flow of a capture.
type FlowInfo struct {
	ID      int
	Tuple   model.FiveTuple
	Packets uint64
	Bytes   uint64
	First   float64 // seconds since the first packet
	Last    float64
}

// Summarize reads the rest of the capture and returns its data flows in
// slot order, the same numbering ReadEvents uses.
func (r *Reader) Summarize() ([]FlowInfo, error) {
	tracker := NewFlowTracker()
	var flows []FlowInfo
	for {
		info, err := r.Next()
		if err == io.EOF {
			return flows, nil
		}
		if err != nil {
			return nil, err
		}
		ev, ok := tracker.Event(info)
		if !ok {
			continue
		}
		if ev.FlowID == len(flows) {
			flows = append(flows, FlowInfo{ID: ev.FlowID, Tuple: info.FiveTuple, First: ev.Timestamp})
		}
		f := &flows[ev.FlowID]
		f.Packets++
		f.Bytes += uint64(ev.Size)
		f.Last = ev.Timestamp
	}
}
