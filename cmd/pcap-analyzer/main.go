package main

import (
	"TraceSpectra/internal/engine/analyzer"
	"TraceSpectra/internal/engine/protocol"
	"TraceSpectra/internal/engine/reducer"
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/report"
	"TraceSpectra/pkg/pcap"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

func main() {
	duration := flag.Float64("duration", 0, "capture duration in seconds used for goodput, 0 for the last packet time rounded up")
	flag.Usage = func() {
		fmt.Println("Usage: pcap-analyzer [-duration seconds] <path_to_pcap_file>")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	pcapFilePath := flag.Arg(0)

	// 1. List the data flows of the capture
	reader, err := pcap.Open(pcapFilePath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	log.Printf("Reading packets from '%s'...", pcapFilePath)
	flows, err := reader.Summarize()
	reader.Close()
	if err != nil {
		log.Fatalf("Failed to read pcap file: %v", err)
	}

	var last float64
	fmt.Printf("%-5s %-45s %10s %10s\n", "Flow", "5-tuple", "Packets", "Bytes")
	for _, f := range flows {
		fmt.Printf("%-5d %-45s %10s %10s\n", f.ID+1, tuple(f.Tuple),
			humanize.Comma(int64(f.Packets)), humanize.Bytes(f.Bytes))
		if f.Last > last {
			last = f.Last
		}
	}
	if len(flows) > 2 {
		log.Printf("Warning: %d flows found, only the first two are compared", len(flows))
	}
	fmt.Println()

	// 2. Compute the metrics
	params := reducer.DefaultParams()
	params.SimDuration = *duration
	if params.SimDuration <= 0 {
		params.SimDuration = float64(int(last) + 1)
	}
	spec := model.TraceSpec{
		Name:   strings.TrimSuffix(filepath.Base(pcapFilePath), filepath.Ext(pcapFilePath)),
		Path:   pcapFilePath,
		Format: model.FormatPcap,
	}
	res, err := analyzer.AnalyzeFile(spec, params)
	if err != nil {
		log.Fatalf("Failed to analyze capture: %v", err)
	}
	if err := report.WriteTables(os.Stdout, []model.TraceResult{*res}); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

func tuple(ft model.FiveTuple) string {
	return fmt.Sprintf("%s:%d -> %s:%d/%s", ft.SrcIP, ft.SrcPort, ft.DstIP, ft.DstPort, protocol.TransportName(ft.Protocol))
}
