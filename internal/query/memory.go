package query

import (
	"TraceSpectra/internal/model"
	"context"
	"fmt"
	"sync"
)

// MemoryQuerier serves results held in memory. It also implements
// model.Writer, so a manager can refresh it after every batch.
type MemoryQuerier struct {
	mu      sync.RWMutex
	results []model.TraceResult
}

// NewMemoryQuerier creates a querier over an initial set of results.
func NewMemoryQuerier(results []model.TraceResult) *MemoryQuerier {
	q := &MemoryQuerier{}
	q.set(results)
	return q
}

func (q *MemoryQuerier) set(results []model.TraceResult) {
	cp := make([]model.TraceResult, len(results))
	copy(cp, results)
	q.mu.Lock()
	q.results = cp
	q.mu.Unlock()
}

func (q *MemoryQuerier) Name() string {
	return "memory"
}

// Write replaces the served results.
func (q *MemoryQuerier) Write(_ context.Context, results []model.TraceResult) error {
	q.set(results)
	return nil
}

func (q *MemoryQuerier) ListResults(_ context.Context) ([]model.TraceResult, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]model.TraceResult, len(q.results))
	copy(out, q.results)
	return out, nil
}

func (q *MemoryQuerier) GetResult(_ context.Context, name, group string) (*model.TraceResult, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for i := range q.results {
		r := q.results[i]
		if r.Spec.Name == name && (group == "" || r.Spec.Group == group) {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, model.TraceSpec{Name: name, Group: group}.Key())
}
