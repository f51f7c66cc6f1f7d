package main

import (
	"TraceSpectra/internal/api"
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/query"
	"TraceSpectra/internal/report"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	mode := flag.String("mode", "http", "Query mode: 'http' for the HTTP API, 'grpc' for the gRPC API, 'direct' to query ClickHouse directly.")
	addr := flag.String("addr", "", "API address (default localhost:8080 for http, localhost:50051 for grpc)")
	name := flag.String("trace", "", "The name of the trace to query (optional).")
	group := flag.String("group", "", "The group of the trace (optional).")
	configPath := flag.String("config", "configs/config.yaml", "Configuration used by the 'direct' mode.")
	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch *mode {
	case "http":
		if *addr == "" {
			*addr = "localhost:8080"
		}
		queryViaHTTP(*addr, *name, *group)
	case "grpc":
		if *addr == "" {
			*addr = "localhost:50051"
		}
		queryViaGRPC(ctx, *addr, *name, *group)
	case "direct":
		queryClickHouse(ctx, *configPath, *name, *group)
	default:
		log.Fatalf("Invalid mode: %s. Use 'http', 'grpc' or 'direct'.", *mode)
	}
}

func queryViaHTTP(addr, name, group string) {
	apiURL := "http://" + addr + "/api/v1/results"
	if name != "" {
		apiURL += "/" + url.PathEscape(name)
		if group != "" {
			apiURL += "?group=" + url.QueryEscape(group)
		}
	}
	log.Printf("Sending request to %s", apiURL)

	resp, err := http.Get(apiURL)
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, respBody, "", "  "); err != nil {
		log.Printf("Could not prettify JSON, printing raw response:")
		fmt.Println(string(respBody))
		return
	}
	fmt.Println(prettyJSON.String())
}

func queryViaGRPC(ctx context.Context, addr, name, group string) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Did not connect: %v", err)
	}
	defer conn.Close()
	client := api.NewResultServiceClient(conn)

	var results []model.TraceResult
	if name != "" {
		res, err := client.GetResult(ctx, name, group)
		if err != nil {
			log.Fatalf("Error calling GetResult: %v", err)
		}
		results = append(results, *res)
	} else {
		results, err = client.ListResults(ctx)
		if err != nil {
			log.Fatalf("Error calling ListResults: %v", err)
		}
	}
	printResults(results)
}

func queryClickHouse(ctx context.Context, configPath, name, group string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	q, err := query.NewClickHouseQuerier(cfg.API.ClickHouse)
	if err != nil {
		log.Fatalf("Error connecting to ClickHouse: %v", err)
	}
	log.Println("Successfully connected to ClickHouse.")

	var results []model.TraceResult
	if name != "" {
		res, err := q.GetResult(ctx, name, group)
		if err != nil {
			log.Fatalf("Error querying trace: %v", err)
		}
		results = append(results, *res)
	} else {
		results, err = q.ListResults(ctx)
		if err != nil {
			log.Fatalf("Error querying results: %v", err)
		}
	}
	printResults(results)
}

func printResults(results []model.TraceResult) {
	if len(results) == 0 {
		log.Println("No data found for the specified criteria.")
		return
	}
	if err := report.WriteTables(os.Stdout, results); err != nil {
		log.Fatalf("Failed to print results: %v", err)
	}
}
