package main

import (
	"TraceSpectra/internal/api"
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/engine/manager"
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/query"
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	refresh := flag.Duration("refresh", 0, "re-analyze the configured traces at this interval (memory source only)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var querier query.Querier
	switch cfg.API.Source {
	case "clickhouse":
		querier, err = query.NewClickHouseQuerier(cfg.API.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to create querier: %v", err)
		}
		log.Println("Serving results from ClickHouse.")
	case "memory", "":
		mem := query.NewMemoryQuerier(nil)
		mgr, err := manager.NewManager(cfg, mem)
		if err != nil {
			log.Fatalf("Failed to create manager: %v", err)
		}
		if _, err := mgr.Run(ctx, cfg.Analyzer.Traces); err != nil {
			log.Printf("Warning: initial analysis finished with errors: %v", err)
		}
		if *refresh > 0 {
			go refreshLoop(ctx, mgr, cfg.Analyzer.Traces, *refresh)
		}
		querier = mem
		log.Printf("Serving %d analyzed traces from memory.", len(cfg.Analyzer.Traces))
	default:
		log.Fatalf("Unknown api.source %q", cfg.API.Source)
	}

	svc := api.NewService(querier)

	// Run gRPC server
	grpcServer := api.NewGRPCServer(svc)
	lis, err := net.Listen("tcp", cfg.API.GrpcListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.API.GrpcListenAddr, err)
	}
	go func() {
		log.Printf("gRPC API server starting on %s", cfg.API.GrpcListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	// Run HTTP server
	httpServer := &http.Server{
		Addr:    cfg.API.HttpListenAddr,
		Handler: api.NewRouter(svc),
	}
	go func() {
		log.Printf("HTTP API server starting on %s", cfg.API.HttpListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("Servers shutting down...")

	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("All servers exited.")
}

func refreshLoop(ctx context.Context, mgr *manager.Manager, traces []model.TraceSpec, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := mgr.Run(ctx, traces); err != nil {
				log.Printf("Warning: refresh finished with errors: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
