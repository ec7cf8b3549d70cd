package report

import (
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"

	"github.com/nao1215/nnmdl/internal/database"
	"github.com/nao1215/nnmdl/internal/model"
)

// journalTime is the timestamp layout of journal tables.
const journalTime = "2006-01-02 15:04:05"

// WriteCrawlRuns renders the crawl history of a category as a Markdown table.
func WriteCrawlRuns(w io.Writer, categoryID string, runs []database.CrawlRun) error {
	md := markdown.NewMarkdown(w)
	md.H2("Crawl history of category " + categoryID)
	md.PlainText("")

	if len(runs) == 0 {
		md.Note("No crawl of this category has been recorded.")
		return md.Build()
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.Timestamp.In(time.Local).Format(journalTime),
			r.Name,
			strconv.Itoa(r.Forums),
			strconv.Itoa(r.Topics),
			strconv.Itoa(r.TotalCnt) + " (" + humanize.IBytes(uint64(max(r.TotalBytes, 0))) + ")",
			strconv.Itoa(r.AliveCnt) + " (" + humanize.IBytes(uint64(max(r.AliveBytes, 0))) + ")",
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Crawled", "Name", "Forums", "Topics", "Downloadable", "Alive"},
		Rows:   rows,
	})
	return md.Build()
}

// WriteDownloads renders the recent downloads of a user as a Markdown table.
func WriteDownloads(w io.Writer, user string, entries []model.DownloadEntry) error {
	md := markdown.NewMarkdown(w)
	md.H2("Downloads of " + user)
	md.PlainText("")

	if len(entries) == 0 {
		md.Note("No download has been recorded for this user.")
		return md.Build()
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.At.In(time.Local).Format(journalTime),
			e.TopicID,
			strconv.FormatInt(e.DownloadID, 10),
			e.Filename,
			humanize.IBytes(uint64(max(e.Bytes, 0))),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Downloaded", "Topic", "Download", "File", "Size"},
		Rows:   rows,
	})
	return md.Build()
}
