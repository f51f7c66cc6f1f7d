package main

import (
	"TraceSpectra/internal/snapshot"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <snapshot_trace_dir>")
		os.Exit(1)
	}
	traceDir := os.Args[1]

	snap, err := snapshot.Load(traceDir)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	s := snap.Summary
	fmt.Printf("Trace: %s (group %q, %s, analyzed %s)\n", s.Trace, s.Group, s.Format, s.AnalyzedAt)
	if s.Missing {
		fmt.Println("Trace file was missing when the snapshot was taken.")
	}
	cov := "inf"
	if s.CoV != nil {
		cov = fmt.Sprintf("%.4f", *s.CoV)
	}
	fmt.Printf("Goodput %.2f Mbps, PLR %.4f%%, fairness %.4f, CoV %s\n", s.Goodput, s.PLR, s.Fairness, cov)
	fmt.Printf("%s lines, %s skipped\n", humanize.Comma(int64(s.Lines)), humanize.Comma(int64(s.Skipped)))

	for i, flow := range snap.Flows {
		if flow == nil {
			fmt.Printf("\nFlow %d: no events\n", i+1)
			continue
		}
		fmt.Printf("\n%s: sent %d, received %d, dropped %d, %s received\n",
			flow.Label, flow.Sent, flow.Received, flow.Dropped, humanize.Bytes(flow.ReceivedBytes))
		for sec, mbps := range flow.Throughput {
			fmt.Printf("  t=%3ds %8.4f Mbps\n", sec, mbps)
		}
	}
}
