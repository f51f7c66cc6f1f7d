package model

import (
	"context"
)

// Analyzer defines the standard interface for an AI analyzer.
type Analyzer interface {
	// AnalyzeResults receives a rendered comparison and returns the model's interpretation.
	AnalyzeResults(ctx context.Context, input string) (string, error)
}
