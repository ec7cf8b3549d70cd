package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/nnmdl/internal/model"
)

// MarkdownWriter outputs the statistics as a Markdown document with a
// forum table and a pie chart of alive against dead bytes.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(category *model.Category) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, category)
	w.writeForums(md, category)
	w.writeChart(md, category)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, category *model.Category) {
	md.H1(category.Name + " (" + category.ID + ")")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Topics", strconv.Itoa(category.TopicsCnt)},
			{"Downloadable", strconv.Itoa(category.TotalCnt) + " (" + category.TotalSize + ")"},
			{"Alive", strconv.Itoa(category.AliveCnt) + " (" + category.AliveSize + ")"},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeForums(md *markdown.Markdown, category *model.Category) {
	md.H2("Forums")
	md.PlainText("")

	var rows [][]string
	category.Walk(func(f *model.Forum, depth int) {
		rows = append(rows, []string{
			Label(f.Name, f.ID, depth),
			strconv.Itoa(f.TotalCnt),
			f.TotalSize,
			strconv.Itoa(f.AliveCnt),
			f.AliveSize,
		})
	})
	if len(rows) == 0 {
		md.Note("The category has no forums.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Форум", "Всего раздач", "Размер", `"Живых" раздач`, "Размер живых"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeChart(md *markdown.Markdown, category *model.Category) {
	if category.TotalBytes == 0 {
		return
	}
	dead := category.TotalBytes - category.AliveBytes

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Alive payload share"),
		piechart.WithShowData(true),
	)
	chart.LabelAndIntValue("Alive", uint64(category.AliveBytes)) //nolint:gosec // byte counts are never negative
	chart.LabelAndIntValue("Dead", uint64(dead))                 //nolint:gosec // alive bytes never exceed total bytes

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	if category.AliveBytes == 0 {
		md.Tip("No topic of this category has seeders.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by nnmdl*")
}
