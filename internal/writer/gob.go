package writer

import (
	"TraceSpectra/internal/model"
	"TraceSpectra/internal/snapshot"
	"context"
	"fmt"
	"log"
	"time"
)

// GobWriter stores a gob snapshot of every trace of a batch.
type GobWriter struct {
	snap *snapshot.Writer
	now  func() time.Time
}

// NewGobWriter creates a snapshot writer rooted at rootPath.
func NewGobWriter(rootPath string) (*GobWriter, error) {
	if rootPath == "" {
		return nil, fmt.Errorf("gob writer requires a root_path")
	}
	return &GobWriter{snap: snapshot.NewWriter(rootPath), now: time.Now}, nil
}

func (w *GobWriter) Name() string {
	return "gob"
}

func (w *GobWriter) Write(_ context.Context, results []model.TraceResult) error {
	dir, err := w.snap.Write(results, w.now().Format(snapshot.TimestampLayout))
	if err != nil {
		return err
	}
	log.Printf("Wrote %d trace snapshots to %s", len(results), dir)
	return nil
}
