package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// CSVWriter appends WindowStats rows to <dir>/telemetry.csv.
// A nil *CSVWriter is valid and discards everything (export disabled).
type CSVWriter struct {
	file          *os.File
	headerWritten bool
}

// NewCSVWriter creates the output directory and file. Returns nil, nil when
// dir is empty.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	return &CSVWriter{file: f}, nil
}

// Write appends one row; the header is written with the first row only.
func (w *CSVWriter) Write(stats WindowStats) error {
	if w == nil {
		return nil
	}
	records := []WindowStats{stats}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.file); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.file); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

func (w *CSVWriter) Close() error {
	if w == nil {
		return nil
	}
	return w.file.Close()
}

// ReadCSV loads previously exported rows, e.g. for offline analysis.
func ReadCSV(path string) ([]WindowStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rows []WindowStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}
