package factory

import (
	"TraceSpectra/internal/config"
	"TraceSpectra/internal/model"
	"context"
	"errors"
	"testing"
)

type nopWriter struct{ name string }

func (w nopWriter) Name() string { return w.name }

func (w nopWriter) Write(context.Context, []model.TraceResult) error { return nil }

func init() {
	RegisterWriter("test-nop", func(def config.WriterDef) (model.Writer, error) {
		return nopWriter{name: def.Type}, nil
	})
	RegisterWriter("test-broken", func(config.WriterDef) (model.Writer, error) {
		return nil, errors.New("cannot connect")
	})
}

func TestCreateWriters(t *testing.T) {
	cfg := &config.Config{Writers: []config.WriterDef{
		{Type: "test-nop", Enabled: true},
		{Type: "test-broken", Enabled: false},
	}}
	writers, err := CreateWriters(cfg)
	if err != nil {
		t.Fatalf("CreateWriters failed: %v", err)
	}
	if len(writers) != 1 || writers[0].Name() != "test-nop" {
		t.Errorf("Expected one nop writer, got %v", writers)
	}
}

func TestCreateWriters_Errors(t *testing.T) {
	if _, err := CreateWriters(&config.Config{Writers: []config.WriterDef{{Type: "nope", Enabled: true}}}); err == nil {
		t.Errorf("Expected an error for an unknown writer type")
	}
	if _, err := CreateWriters(&config.Config{Writers: []config.WriterDef{{Type: "test-broken", Enabled: true}}}); err == nil {
		t.Errorf("Expected the factory error to be returned")
	}
}

func TestRegisterWriter_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected a panic on duplicate registration")
		}
	}()
	RegisterWriter("test-nop", nil)
}
