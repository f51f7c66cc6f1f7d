package main

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/publish"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	url := flag.String("url", "", "NATS server URL (overrides the config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *url != "" {
		cfg.Publisher.URL = *url
	}

	sub, err := publish.NewSubscriber(cfg.Publisher)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	if err := sub.Start(printResult); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received.")
}

func printResult(res model.TraceResult) {
	if res.Missing {
		fmt.Printf("[%s] %s: trace file missing\n", res.AnalyzedAt.Format("15:04:05"), res.Spec.Key())
		return
	}
	received := res.Flows[0].ReceivedBytes + res.Flows[1].ReceivedBytes
	fmt.Printf("[%s] %s: goodput %.2f Mbps, PLR %.4f%%, fairness %.4f, CoV %s (%s lines, %s received, analyzed %s)\n",
		res.AnalyzedAt.Format("15:04:05"), res.Spec.Key(),
		res.Metrics.GoodputMbps, res.Metrics.PacketLossRatePercent, res.Metrics.FairnessIndex,
		res.Metrics.Stability.Format(4),
		humanize.Comma(int64(res.Lines)), humanize.Bytes(received), humanize.Time(res.AnalyzedAt))
}
