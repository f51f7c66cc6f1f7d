package query

import (
	"TraceSpectra/internal/model"
	"context"
	"errors"
)

// ErrNotFound is returned when no result matches a lookup.
var ErrNotFound = errors.New("result not found")

// Querier defines the interface for reading analyzed results.
type Querier interface {
	// ListResults returns the latest result of every trace.
	ListResults(ctx context.Context) ([]model.TraceResult, error)
	// GetResult returns the latest result of one trace. An empty group
	// matches the first trace with that name.
	GetResult(ctx context.Context, name, group string) (*model.TraceResult, error)
}
