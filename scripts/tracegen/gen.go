package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"
)

// flowParams describes the offered load of one synthetic flow.
type flowParams struct {
	RateMbps float64 // offered load
	Loss     float64 // drop probability at the bottleneck
}

// genOptions controls a synthetic run.
type genOptions struct {
	Seed       int64
	Duration   float64 // seconds
	PacketSize int     // bytes
	Delay      float64 // one-way bottleneck delay in seconds
	Flows      [2]flowParams
}

type traceEvent struct {
	kind  byte
	at    float64
	from  int
	to    int
	flow  int
	seq   int
	pktID int
}

// generate writes a two-flow ns-2 style trace. Each packet is enqueued on
// its access link ("+"), then either dropped at the bottleneck ("d") or
// received by the sink ("r") after the bottleneck delay. The same seed
// always produces the same trace.
func generate(w io.Writer, opts genOptions) error {
	rng := rand.New(rand.NewSource(opts.Seed))

	var events []traceEvent
	pktID := 0
	for f, fp := range opts.Flows {
		if fp.RateMbps <= 0 {
			continue
		}
		interval := float64(opts.PacketSize) * 8 / (fp.RateMbps * 1e6)
		seq := 0
		for t := interval * rng.Float64(); t < opts.Duration; t += interval * (0.5 + rng.Float64()) {
			events = append(events, traceEvent{kind: '+', at: t, from: f, to: 2, flow: f, seq: seq, pktID: pktID})
			if rng.Float64() < fp.Loss {
				events = append(events, traceEvent{kind: 'd', at: t, from: 2, to: 3, flow: f, seq: seq, pktID: pktID})
			} else if rx := t + opts.Delay; rx < opts.Duration {
				events = append(events, traceEvent{kind: 'r', at: rx, from: 2, to: 3, flow: f, seq: seq, pktID: pktID})
			}
			seq++
			pktID++
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].at < events[j].at })

	bw := bufio.NewWriter(w)
	for _, ev := range events {
		// <event> <time> <from> <to> <type> <size> <flags> <fid> <src> <dst> <seq> <pkt id>
		_, err := fmt.Fprintf(bw, "%c %.6f %d %d tcp %d ------- %d %d.0 3.0 %d %d\n",
			ev.kind, ev.at, ev.from, ev.to, opts.PacketSize, ev.flow+1, ev.flow, ev.seq, ev.pktID)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
