package tracefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	gzip "github.com/klauspost/pgzip"
)

// ErrIsDirectory is returned when a trace path names a directory.
var ErrIsDirectory = errors.New("trace path is a directory")

// IsGzip checks whether a file is a .gz file by looking at the extension.
func IsGzip(filename string) bool {
	return strings.HasSuffix(filename, ".gz")
}

// File is an open trace, decompressed on the fly when needed.
type File struct {
	f  *os.File
	gz *gzip.Reader
	r  io.Reader
}

// Open opens a trace file for streaming. Files ending in .gz are inflated
// with pgzip. An absent file returns an error matching os.ErrNotExist so
// callers can tell it apart from an unreadable one.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsGzip(path) {
		return &File{f: f, r: f}, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	return &File{f: f, gz: gz, r: gz}, nil
}

func (t *File) Read(p []byte) (int, error) {
	return t.r.Read(p)
}

// Close releases the decompressor and the underlying file.
func (t *File) Close() error {
	var gzErr error
	if t.gz != nil {
		gzErr = t.gz.Close()
	}
	if err := t.f.Close(); err != nil {
		return err
	}
	return gzErr
}
