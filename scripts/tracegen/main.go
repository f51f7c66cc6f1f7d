package main

import (
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

func main() {
	outputFile := flag.String("o", "out_synthetic.tr", "Output trace file path; a .gz suffix compresses it")
	seed := flag.Int64("seed", 1, "Random seed")
	duration := flag.Float64("duration", 100, "Simulation duration in seconds")
	size := flag.Int("size", 1040, "Packet size in bytes")
	delay := flag.Float64("delay", 0.02, "Bottleneck delay in seconds")
	rate1 := flag.Float64("rate1", 2.5, "Offered load of flow 1 in Mbps")
	rate2 := flag.Float64("rate2", 2.5, "Offered load of flow 2 in Mbps")
	loss1 := flag.Float64("loss1", 0.01, "Drop probability of flow 1")
	loss2 := flag.Float64("loss2", 0.01, "Drop probability of flow 2")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	var w io.Writer = f
	if strings.HasSuffix(*outputFile, ".gz") {
		gz := pgzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	opts := genOptions{
		Seed:       *seed,
		Duration:   *duration,
		PacketSize: *size,
		Delay:      *delay,
		Flows: [2]flowParams{
			{RateMbps: *rate1, Loss: *loss1},
			{RateMbps: *rate2, Loss: *loss2},
		},
	}
	log.Printf("Generating a %.0f s two-flow trace into %s...", *duration, *outputFile)
	if err := generate(w, opts); err != nil {
		log.Fatalf("Failed to write trace: %v", err)
	}
	log.Printf("Successfully generated %s.", *outputFile)
}
