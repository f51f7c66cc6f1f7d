package main

import (
	"TraceSpectra/internal/model"
	"fmt"
	"path/filepath"
	"strings"
)

// traceFlags collects repeated -trace flags of the form
// name[@group]=path[,format].
type traceFlags []model.TraceSpec

func (f *traceFlags) String() string {
	keys := make([]string, len(*f))
	for i, s := range *f {
		keys[i] = s.Key()
	}
	return strings.Join(keys, ",")
}

func (f *traceFlags) Set(value string) error {
	spec, err := parseTrace(value)
	if err != nil {
		return err
	}
	*f = append(*f, spec)
	return nil
}

func parseTrace(value string) (model.TraceSpec, error) {
	label, path, ok := strings.Cut(value, "=")
	if !ok || label == "" || path == "" {
		return model.TraceSpec{}, fmt.Errorf("expected name[@group]=path, got %q", value)
	}

	var spec model.TraceSpec
	spec.Name, spec.Group, _ = strings.Cut(label, "@")
	if spec.Name == "" {
		return model.TraceSpec{}, fmt.Errorf("empty trace name in %q", value)
	}

	// only a known format after the last comma is a suffix; commas may
	// appear in the path itself
	spec.Path, spec.Format = path, formatOf(path)
	if i := strings.LastIndexByte(path, ','); i >= 0 {
		switch format := model.TraceFormat(path[i+1:]); format {
		case model.FormatNS2, model.FormatPcap:
			spec.Path, spec.Format = path[:i], format
		}
	}
	if spec.Path == "" {
		return model.TraceSpec{}, fmt.Errorf("empty trace path in %q", value)
	}
	return spec, nil
}

// formatOf guesses the format from the file extension, ignoring a trailing .gz.
func formatOf(path string) model.TraceFormat {
	ext := filepath.Ext(strings.TrimSuffix(path, ".gz"))
	switch ext {
	case ".pcap", ".cap":
		return model.FormatPcap
	}
	return model.FormatNS2
}
