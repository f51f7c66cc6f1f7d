package writer

import (
	"TraceSpectra/internal/model"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// CSVHeader is the fixed column order of the results file.
var CSVHeader = []string{"Variant", "Queue", "Goodput (Mbps)", "PLR (%)", "Fairness Index", "Stability (CoV)"}

// WriteCSV writes one row per trace. An undefined CoV is written as "inf".
func WriteCSV(w io.Writer, results []model.TraceResult) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(CSVHeader); err != nil {
		return err
	}

	for _, r := range results {
		record := []string{
			r.Spec.Name,
			r.Spec.Group,
			strconv.FormatFloat(r.Metrics.GoodputMbps, 'f', 2, 64),
			strconv.FormatFloat(r.Metrics.PacketLossRatePercent, 'f', 4, 64),
			strconv.FormatFloat(r.Metrics.FairnessIndex, 'f', 4, 64),
			r.Metrics.Stability.Format(4),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVWriter writes the results of a batch to a csv file, replacing it.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a csv writer for path.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("csv writer requires a path")
	}
	return &CSVWriter{path: path}, nil
}

func (w *CSVWriter) Name() string {
	return "csv"
}

func (w *CSVWriter) Write(_ context.Context, results []model.TraceResult) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create csv directory: %w", err)
	}
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create csv file '%s': %w", w.path, err)
	}
	defer file.Close()

	if err := WriteCSV(file, results); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	log.Printf("Wrote %d rows to %s", len(results), w.path)
	return nil
}
