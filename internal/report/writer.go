package report

import (
	"io"

	"github.com/nao1215/nnmdl/internal/model"
)

// Writer renders a category snapshot.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(category *model.Category) (int, error)
}

// MultiWriter writes the same report to several Writers, stopping at the
// first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
func (m *MultiWriter) Write(category *model.Category) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(category)
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

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
