package manager

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/engine/analyzer"
	"TraceSpectra/internal/engine/reducer"
	"TraceSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrPanicked marks a trace whose analysis panicked. The panic is confined to
// that trace.
var ErrPanicked = errors.New("trace analysis panicked")

// AnalyzeFunc analyzes a single trace.
type AnalyzeFunc func(spec model.TraceSpec, params reducer.Params) (*model.TraceResult, error)

// Manager analyzes a batch of traces with a worker pool and hands the
// results to a set of writers.
type Manager struct {
	params     reducer.Params
	numWorkers int
	writers    []model.Writer
	analyze    AnalyzeFunc
}

// New creates a new Manager.
func New(params reducer.Params, numWorkers int, writers ...model.Writer) *Manager {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Manager{
		params:     params,
		numWorkers: numWorkers,
		writers:    writers,
		analyze:    analyzer.AnalyzeFile,
	}
}

// NewManager creates a Manager from the analyzer section of the configuration.
func NewManager(cfg *config.Config, writers ...model.Writer) (*Manager, error) {
	params, err := cfg.Analyzer.Params()
	if err != nil {
		return nil, err
	}
	return New(params, cfg.Analyzer.NumWorkers, writers...), nil
}

// Params returns the reducer parameters used for every trace.
func (m *Manager) Params() reducer.Params {
	return m.params
}

// AddWriter appends a writer to the fan-out list.
func (m *Manager) AddWriter(w model.Writer) {
	m.writers = append(m.writers, w)
}

type job struct {
	index int
	spec  model.TraceSpec
}

// Analyze runs every trace through the engine. Results keep the input order.
// A trace that fails is logged and left out; its error is part of the
// returned error. The context is checked between traces only.
func (m *Manager) Analyze(ctx context.Context, specs []model.TraceSpec) ([]model.TraceResult, error) {
	results := make([]*model.TraceResult, len(specs))
	errs := make([]error, len(specs))

	jobs := make(chan job)
	var wg sync.WaitGroup
	workers := m.numWorkers
	if workers > len(specs) {
		workers = len(specs)
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index], errs[j.index] = m.analyzeOne(j.spec)
			}
		}()
	}

	var ctxErr error
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		jobs <- job{index: i, spec: spec}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}

	out := make([]model.TraceResult, 0, len(specs))
	for i, res := range results {
		if errs[i] != nil {
			log.Printf("Error analyzing trace %s: %v", specs[i].Key(), errs[i])
			continue
		}
		out = append(out, *res)
	}
	return out, errors.Join(errs...)
}

func (m *Manager) analyzeOne(spec model.TraceSpec) (res *model.TraceResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("%w: %s: %v", ErrPanicked, spec.Key(), p)
		}
	}()

	start := time.Now()
	res, err = m.analyze(spec, m.params)
	if err != nil {
		return nil, err
	}
	if !res.Missing {
		received := res.Flows[0].ReceivedBytes + res.Flows[1].ReceivedBytes
		log.Printf("Analyzed %s: %s lines, %s received in %s",
			spec.Key(), humanize.Comma(int64(res.Lines)), humanize.Bytes(received), time.Since(start).Round(time.Millisecond))
	}
	return res, nil
}

// Flush hands the results to every writer. A failing writer does not stop
// the others.
func (m *Manager) Flush(ctx context.Context, results []model.TraceResult) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(ctx, results); err != nil {
			log.Printf("Error writing results with %s: %v", w.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Run analyzes the batch and flushes whatever was analyzed.
func (m *Manager) Run(ctx context.Context, specs []model.TraceSpec) ([]model.TraceResult, error) {
	log.Printf("Analyzing %d traces with %d workers.", len(specs), m.numWorkers)
	results, analyzeErr := m.Analyze(ctx, specs)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	flushErr := m.Flush(ctx, results)
	return results, errors.Join(analyzeErr, flushErr)
}
