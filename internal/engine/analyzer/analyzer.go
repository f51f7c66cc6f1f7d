package analyzer

import (
	"TraceSpectra/internal/engine/classifier"
	"TraceSpectra/internal/engine/materializer"
	"TraceSpectra/internal/engine/reducer"
	"TraceSpectra/internal/model"
	"TraceSpectra/pkg/pcap"
	"TraceSpectra/pkg/tracefile"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// ErrUnreadable marks a trace that exists but cannot be read.
var ErrUnreadable = errors.New("trace unreadable")

// Analyze runs the classifier, materializer and reducer over an ns-2 trace
// stream.
func Analyze(r io.Reader, spec model.TraceSpec, params reducer.Params) (*model.TraceResult, error) {
	c := classifier.New(params.Protocol)
	if err := c.Consume(r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, spec.Key(), err)
	}
	return finish(c, spec, params), nil
}

// AnalyzeCapture runs the pipeline over a pcap stream.
func AnalyzeCapture(r *pcap.Reader, spec model.TraceSpec, params reducer.Params) (*model.TraceResult, error) {
	c := classifier.New(params.Protocol)
	err := r.ReadEvents(func(ev model.Event) {
		c.CountRecord()
		c.Add(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, spec.Key(), err)
	}
	res := finish(c, spec, params)
	res.Skipped = r.Skipped()
	return res, nil
}

// AnalyzeFile opens spec.Path and analyzes it. An absent file is not an
// error: a warning is logged and a result with default metrics and
// Missing set is returned.
func AnalyzeFile(spec model.TraceSpec, params reducer.Params) (*model.TraceResult, error) {
	if spec.Format == model.FormatPcap {
		r, err := pcap.Open(spec.Path)
		if err != nil {
			return openFailed(spec, params, err)
		}
		defer r.Close()
		return AnalyzeCapture(r, spec, params)
	}

	f, err := tracefile.Open(spec.Path)
	if err != nil {
		return openFailed(spec, params, err)
	}
	defer f.Close()
	return Analyze(f, spec, params)
}

func openFailed(spec model.TraceSpec, params reducer.Params, err error) (*model.TraceResult, error) {
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: trace file %s not found", spec.Path)
		return Missing(spec, params), nil
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, spec.Path, err)
}

// Missing returns the result reported for an absent trace.
func Missing(spec model.TraceSpec, params reducer.Params) *model.TraceResult {
	res := finish(classifier.New(params.Protocol), spec, params)
	res.Missing = true
	return res
}

func finish(c *classifier.Classifier, spec model.TraceSpec, params reducer.Params) *model.TraceResult {
	res := &model.TraceResult{
		Spec:       spec,
		Lines:      c.Lines(),
		Skipped:    c.Skipped(),
		AnalyzedAt: time.Now(),
	}
	for i := 0; i < classifier.NumFlows; i++ {
		acc := c.Flow(i)
		res.Flows[i] = model.FlowStats{
			Label:         acc.Label,
			Sent:          acc.Sent,
			Received:      acc.Received,
			Dropped:       acc.Dropped,
			ReceivedBytes: acc.ReceivedBytes,
			Throughput:    materializer.Materialize(acc.Buckets),
		}
	}
	res.Metrics = reducer.Reduce(res.Flows[0], res.Flows[1], params)
	return res
}
