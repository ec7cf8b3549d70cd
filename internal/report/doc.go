// Package report renders category statistics.
//
// TextWriter produces the fixed-width table printed after every update and
// saved as cat_<id>_stats.txt. MarkdownWriter and JSONWriter render the same
// tree for sharing and for other tools. WriteCrawlRuns and WriteDownloads
// print journal rows as Markdown tables.
package report
