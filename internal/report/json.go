package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/nnmdl/internal/model"
)

// JSONWriter outputs the snapshot wrapped with generation metadata.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	version string
	now     func() time.Time
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// WithVersion records the tool version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	Version     string          `json:"version,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	Category    *model.Category `json:"category"`
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(category *model.Category) (int, error) {
	doc := JSONReport{
		Version:     w.version,
		GeneratedAt: w.now().UTC(),
		Category:    category,
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
