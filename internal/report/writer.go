package report

import (
	"io"

	"github.com/erik-esparza/rival-review/internal/trend"
)

// Writer defines the interface for report output.
// Implementations render a trend analysis in a specific format.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or buffers with
// the same API.
type Writer interface {
	// Write renders the analysis to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(analysis *trend.Analysis) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the analysis to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(analysis *trend.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(analysis)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
