package writer

import (
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/report"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TextWriter renders the comparison tables to a file or to stdout.
type TextWriter struct {
	path string
	out  io.Writer
}

// NewTextWriter creates a text writer. An empty path writes to stdout.
func NewTextWriter(path string) *TextWriter {
	return &TextWriter{path: path, out: os.Stdout}
}

func (w *TextWriter) Name() string {
	return "text"
}

func (w *TextWriter) Write(_ context.Context, results []model.TraceResult) error {
	if w.path == "" {
		return report.WriteTables(w.out, results)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", w.path, err)
	}
	defer file.Close()

	if err := report.WriteTables(file, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
