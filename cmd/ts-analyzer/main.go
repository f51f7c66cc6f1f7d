package main

import (
	"TraceSpectra/internal/ai"
	"TraceSpectra/internal/alerter"
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/engine/manager"
	"TraceSpectra/internal/factory"
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/notification"
	"TraceSpectra/internal/publish"
	"TraceSpectra/internal/report"
	"TraceSpectra/internal/writer"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file, empty for defaults")
	workers := flag.Int("workers", 0, "number of traces analyzed in parallel (overrides the config)")
	protocol := flag.String("protocol", "", "protocol token to measure (overrides the config)")
	duration := flag.String("duration", "", "simulation duration, e.g. 100s (overrides the config)")
	explain := flag.Bool("explain", false, "stream an AI interpretation of the results to stdout")
	var traces traceFlags
	flag.Var(&traces, "trace", "trace to analyze as name[@group]=path[,format]; repeatable, replaces the configured traces")
	flag.Parse()

	// 1. Load configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Println("Configuration loaded successfully.")
	}
	if len(traces) > 0 {
		cfg.Analyzer.Traces = traces
	}
	if *workers > 0 {
		cfg.Analyzer.NumWorkers = *workers
	}
	if *protocol != "" {
		cfg.Analyzer.Protocol = *protocol
	}
	if *duration != "" {
		cfg.Analyzer.SimDuration = *duration
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if len(cfg.Analyzer.Traces) == 0 {
		log.Fatalf("No traces to analyze. Configure analyzer.traces or pass -trace flags.")
	}

	// 2. Build the writers
	writers, err := factory.CreateWriters(cfg)
	if err != nil {
		log.Fatalf("Failed to create writers: %v", err)
	}
	if _, ok := cfg.EnabledWriter("text"); !ok {
		writers = append(writers, writer.NewTextWriter(""))
	}
	mgr, err := manager.NewManager(cfg, writers...)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 3. Attach the downstream consumers
	if cfg.Publisher.Enabled {
		pub, err := publish.NewPublisher(cfg.Publisher)
		if err != nil {
			log.Fatalf("Failed to create publisher: %v", err)
		}
		mgr.AddWriter(pub)
		writers = append(writers, pub)
	}

	var analyzer *ai.ResultsAnalyzer
	if cfg.Alerter.AIAnalysis || *explain {
		analyzer, err = ai.NewResultsAnalyzer(&cfg.AI)
		if err != nil {
			log.Printf("Warning: AI analysis disabled: %v", err)
		}
	}

	if cfg.Alerter.Enabled {
		notifier := notification.NewEmailNotifier(cfg.Alerter.SMTP)
		var a *alerter.Alerter
		if cfg.Alerter.AIAnalysis && analyzer != nil {
			a = alerter.NewAlerter(&cfg.Alerter, notifier, analyzer)
		} else {
			a = alerter.NewAlerter(&cfg.Alerter, notifier, nil)
		}
		mgr.AddWriter(a)
	}

	// 4. Run the batch

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, runErr := mgr.Run(ctx, cfg.Analyzer.Traces)
	closeWriters(writers)
	if errors.Is(runErr, context.Canceled) {
		log.Fatalf("Analysis interrupted.")
	}

	if *explain && analyzer != nil && len(results) > 0 {
		if err := explainResults(ctx, analyzer, results); err != nil {
			log.Printf("Warning: AI interpretation failed: %v", err)
		}
	}

	if runErr != nil {
		log.Printf("Batch finished with errors: %v", runErr)
		os.Exit(1)
	}
	log.Println("Batch complete.")
}

func explainResults(ctx context.Context, analyzer *ai.ResultsAnalyzer, results []model.TraceResult) error {
	var sb strings.Builder
	if err := report.WriteTables(&sb, results); err != nil {
		return err
	}
	fmt.Println("\nInterpretation")
	err := analyzer.AnalyzeStream(ctx, sb.String(), func(chunk string) error {
		_, err := fmt.Print(chunk)
		return err
	})
	fmt.Println()
	return err
}

func closeWriters(writers []model.Writer) {
	for _, w := range writers {
		switch c := w.(type) {
		case io.Closer:
			if err := c.Close(); err != nil {
				log.Printf("Warning: failed to close writer %s: %v", w.Name(), err)
			}
		case interface{ Close() }:
			c.Close()
		}
	}
}
