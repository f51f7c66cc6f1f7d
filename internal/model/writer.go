package model

import "context"

// Writer defines a generic interface for persisting a batch of trace results.
type Writer interface {
	// Name returns the writer type, e.g. "csv" or "clickhouse".
	Name() string

	// Write persists the results of one batch. Results are in input order.
	Write(ctx context.Context, results []TraceResult) error
}
