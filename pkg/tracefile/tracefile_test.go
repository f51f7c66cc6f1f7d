package tracefile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	gzip "github.com/klauspost/pgzip"
)

const line = "r 0.5 2 3 tcp 1000 ------- 1 0.0 3.0 1 10\n"

func TestOpen_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tr")
	if err := os.WriteFile(path, []byte(line), 0644); err != nil {
		t.Fatalf("Failed to write trace: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open trace: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if string(data) != line {
		t.Errorf("Expected %q, got %q", line, data)
	}
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tr.gz")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	zw := gzip.NewWriter(out)
	if _, err := zw.Write([]byte(line)); err != nil {
		t.Fatalf("Failed to compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	out.Close()

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open trace: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if string(data) != line {
		t.Errorf("Expected %q, got %q", line, data)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "absent.tr")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
	if _, err := Open(dir); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("Expected ErrIsDirectory, got %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.tr.gz")
	if err := os.WriteFile(corrupt, []byte("definitely not gzip"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	_, err := Open(corrupt)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a non-absence error for corrupt gzip, got %v", err)
	}
}
