package snapshot

import (
	"TraceSpectra/internal/model"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout names the per-batch snapshot directory.
const TimestampLayout = "2006-01-02_15-04-05"

const summaryFile = "summary.json"

// SummaryData holds the metadata and metrics of one trace snapshot.
type SummaryData struct {
	Trace      string            `json:"trace"`
	Group      string            `json:"group,omitempty"`
	Path       string            `json:"path"`
	Format     model.TraceFormat `json:"format"`
	Missing    bool              `json:"missing"`
	Lines      uint64            `json:"lines"`
	Skipped    uint64            `json:"skipped"`
	Goodput    float64           `json:"goodput_mbps"`
	PLR        float64           `json:"plr_percent"`
	Fairness   float64           `json:"fairness_index"`
	CoV        *float64          `json:"cov"` // null when undefined
	FlowFiles  int               `json:"flow_files"`
	AnalyzedAt string            `json:"analyzed_at"`
}

// Writer handles writing trace snapshots to disk.
type Writer struct {
	rootPath string
}

// NewWriter creates a new snapshot writer rooted at rootPath.
func NewWriter(rootPath string) *Writer {
	return &Writer{rootPath: rootPath}
}

// TraceDir returns the directory of one trace inside a batch directory.
func TraceDir(batchDir string, spec model.TraceSpec) string {
	group := spec.Group
	if group == "" {
		group = "default"
	}
	return filepath.Join(batchDir, group, spec.Name)
}

// Write stores a batch under <root>/<timestamp>/<group>/<name>. Each flow
// that saw any event is gob encoded to flow_<i>.dat; summary.json is always
// written. It returns the batch directory.
func (w *Writer) Write(results []model.TraceResult, timestamp string) (string, error) {
	batchDir := filepath.Join(w.rootPath, timestamp)
	for _, res := range results {
		if err := writeTrace(batchDir, res); err != nil {
			return "", err
		}
	}
	return batchDir, nil
}

func writeTrace(batchDir string, res model.TraceResult) error {
	traceDir := TraceDir(batchDir, res.Spec)
	if err := os.MkdirAll(traceDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	flowFiles := 0
	for i, flow := range res.Flows {
		if flow.Sent+flow.Received+flow.Dropped == 0 {
			continue
		}
		flowFiles++

		filePath := filepath.Join(traceDir, fmt.Sprintf("flow_%d.dat", i))
		if err := encodeFile(filePath, func(f *os.File) error {
			return gob.NewEncoder(f).Encode(flow)
		}); err != nil {
			return fmt.Errorf("failed to encode flow to gob for file '%s': %w", filePath, err)
		}
	}

	summary := SummaryData{
		Trace:      res.Spec.Name,
		Group:      res.Spec.Group,
		Path:       res.Spec.Path,
		Format:     res.Spec.Format,
		Missing:    res.Missing,
		Lines:      res.Lines,
		Skipped:    res.Skipped,
		Goodput:    res.Metrics.GoodputMbps,
		PLR:        res.Metrics.PacketLossRatePercent,
		Fairness:   res.Metrics.FairnessIndex,
		FlowFiles:  flowFiles,
		AnalyzedAt: res.AnalyzedAt.UTC().Format(time.RFC3339),
	}
	if cov, ok := res.Metrics.Stability.Value(); ok {
		summary.CoV = &cov
	}

	summaryPath := filepath.Join(traceDir, summaryFile)
	if err := encodeFile(summaryPath, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	return nil
}

func encodeFile(path string, encode func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Snapshot is a trace snapshot read back from disk.
type Snapshot struct {
	Summary SummaryData
	// Flows holds nil for flows that had no file.
	Flows [2]*model.FlowStats
}

// Load reads the snapshot of one trace directory.
func Load(traceDir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(traceDir, summaryFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	for i := range snap.Flows {
		f, err := os.Open(filepath.Join(traceDir, fmt.Sprintf("flow_%d.dat", i)))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var flow model.FlowStats
		err = gob.NewDecoder(f).Decode(&flow)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode flow %d: %w", i, err)
		}
		snap.Flows[i] = &flow
	}
	return &snap, nil
}
