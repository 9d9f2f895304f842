package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/map-coverage/internal/analysis"
)

// CSVSink writes records as comma-separated rows. The header is taken from
// the first record written.
//
// CSVSink is not safe for concurrent use.
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
	header []string
}

// NewCSVSink returns a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// CreateCSV creates (or truncates) the file at path and returns a sink
// writing to it. The caller must Close the sink.
func CreateCSV(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	s := NewCSVSink(f)
	s.closer = f
	return s, nil
}

// Write appends records as rows and flushes. No row of the batch is
// written if any record's columns differ from the header.
func (s *CSVSink) Write(records []analysis.Record) error {
	if len(records) == 0 {
		return nil
	}

	header := s.header
	if header == nil {
		header = records[0].Columns()
	}
	for i := range records {
		if !sameColumns(header, records[i].Columns()) {
			return fmt.Errorf("record %s: %w", records[i].ID, ErrColumnMismatch)
		}
	}

	if s.header == nil {
		if err := s.w.Write(header); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
		s.header = header
	}
	for i := range records {
		if err := s.w.Write(records[i].Values()); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", records[i].ID, err)
		}
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes pending rows and closes the underlying file, if the sink
// owns one. Closing twice is a no-op.
func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
