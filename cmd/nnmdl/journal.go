package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nao1215/nnmdl/internal/database"
	"github.com/nao1215/nnmdl/internal/report"
)

// defaultJournalLimit is the number of downloads listed by default.
const defaultJournalLimit = 20

// errJournalTarget is returned unless exactly one of a category id and
// --downloads is given.
var errJournalTarget = errors.New("specify either a category id or --downloads <user>")

// NewJournalCmd creates the journal command.
func NewJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal [category-id]",
		Short: "Show the crawl history of a category or the downloads of a user",
		Long: `Journal prints the audit log kept in journal.db as Markdown tables: every
completed crawl of a category, newest first, or the most recent torrent
files downloaded by an account.

The journal is informational. Download decisions always use the download
history, never the journal.

Examples:
  # Crawl history of category 14
  nnmdl journal 14

  # Last 50 downloads of alice
  nnmdl journal --downloads alice --limit 50`,
		Args: cobra.MaximumNArgs(1),
		RunE: runJournalCmd,
	}

	cmd.Flags().StringP("downloads", "d", "", "List recent downloads of this user")
	cmd.Flags().IntP("limit", "l", defaultJournalLimit, "Maximum number of downloads to list (0 lists all)")
	return cmd
}

func runJournalCmd(cmd *cobra.Command, args []string) error {
	user, err := cmd.Flags().GetString("downloads")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if (len(args) == 1) == (user != "") {
		return errJournalTarget
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	newLogger(cmd, cfg.Verbose)

	journal, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer journal.Close()

	ctx := cmd.Context()
	if user != "" {
		entries, err := journal.ListDownloads(ctx, user, limit)
		if err != nil {
			return err
		}
		return report.WriteDownloads(cmd.OutOrStdout(), user, entries)
	}

	runs, err := journal.ListCrawlRuns(ctx, args[0])
	if err != nil {
		return err
	}
	return report.WriteCrawlRuns(cmd.OutOrStdout(), args[0], runs)
}
