package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/nnmdl/internal/model"
	"github.com/nao1215/nnmdl/internal/naming"
)

const (
	// LineFormat lays out the label, total and alive columns.
	LineFormat = "%-50s — %-18s — %-18s"

	// StatFormat renders a count with its size.
	StatFormat = "%5d (%s)"
)

// Lines returns the text report of category: a header followed by one line
// for the category and one for every forum in document order.
func Lines(category *model.Category) []string {
	lines := []string{
		fmt.Sprintf(LineFormat, "Форум", "Всего раздач", `"Живых" раздач`),
		line(category.Name, category.ID, 0, category.Stats),
	}
	category.Walk(func(f *model.Forum, depth int) {
		lines = append(lines, line(f.Name, f.ID, depth, f.Stats))
	})
	return lines
}

func line(name, id string, depth int, stats model.Stats) string {
	return fmt.Sprintf(LineFormat,
		Label(name, id, depth),
		fmt.Sprintf(StatFormat, stats.TotalCnt, stats.TotalSize),
		fmt.Sprintf(StatFormat, stats.AliveCnt, stats.AliveSize),
	)
}

// Label renders the tree label of a node. Labels wider than the column
// overflow it.
func Label(name, id string, depth int) string {
	return strings.Repeat(" |", depth) + "— " + name + " (" + id + ")"
}

// TextWriter renders the fixed-width text report.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the text report.
func (w *TextWriter) Write(category *model.Category) (int, error) {
	return io.WriteString(w.output, strings.Join(Lines(category), "\n")+"\n")
}

// StatsFileName returns the report file name of a category.
func StatsFileName(categoryID string) string {
	return "cat_" + naming.Normalize(categoryID) + "_stats.txt"
}

// SaveStats writes the text report to dir and echoes it to stdout when
// stdout is not nil. It returns the path of the written file.
func SaveStats(category *model.Category, dir string, stdout io.Writer) (string, error) {
	var sb strings.Builder
	if _, err := NewTextWriter(&sb).Write(category); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, StatsFileName(category.ID))
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}

	if stdout != nil {
		if _, err := io.WriteString(stdout, sb.String()); err != nil {
			return path, err
		}
	}
	return path, nil
}
