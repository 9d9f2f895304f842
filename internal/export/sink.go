package export

import (
	"errors"

	"github.com/ironsheep/map-coverage/internal/analysis"
)

// Sink receives batches of records.
type Sink interface {
	Write(records []analysis.Record) error
}

// ErrColumnMismatch is returned when a record's columns differ from the
// columns the sink was started with.
var ErrColumnMismatch = errors.New("record columns differ from table header")

type multiSink []Sink

// Multi returns a Sink that writes every batch to each of sinks in order.
// All sinks are attempted; their errors are joined.
func Multi(sinks ...Sink) Sink {
	return multiSink(append([]Sink(nil), sinks...))
}

func (m multiSink) Write(records []analysis.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
