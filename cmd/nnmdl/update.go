package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/nnmdl/internal/crawler"
	"github.com/nao1215/nnmdl/internal/pipeline"
)

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <category-id>",
		Short: "Crawl a category and store its snapshot",
		Long: `Update logs in, walks the category with all nested forums and pages, and
replaces the stored snapshot of the category. The statistics are printed
and saved as cat_<id>_stats.txt in the work directory.

A crawl that finds neither the category name nor any forum leaves the
previous snapshot untouched.

Examples:
  # Crawl category 14 with the first configured account
  nnmdl update 14

  # Use the second account
  nnmdl update 14 -a 1`,
		Args: cobra.ExactArgs(1),
		RunE: runUpdateCmd,
	}

	cmd.Flags().IntP("account", "a", 0, "Index of the configured account to log in with")
	return cmd
}

func runUpdateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireConfig(cfg); err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Verbose)
	ctx := cmd.Context()

	snapshots, err := openHistory(cfg, snapshotsFile)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := a.sessions()
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoginStep(sessions),
		pipeline.NewCrawlStep(crawler.New(a.client,
			crawler.WithMaxDepth(cfg.MaxDepth),
			crawler.WithLogger(logger),
		)),
		pipeline.NewPersistStep(snapshots),
	)
	if journal := openJournal(cfg, logger); journal != nil {
		defer journal.Close()
		p.AddSteps(pipeline.NewJournalStep(journal, logger))
	}
	p.AddSteps(pipeline.NewReportStep(cfg.WorkDir, cmd.OutOrStdout()))

	job := &pipeline.Job{CategoryID: args[0], AccountIndex: cfg.AccountIndex}
	if err := p.Execute(ctx, job); err != nil {
		return err
	}
	logger.Info("category updated",
		"category", job.Category.ID,
		"topics", job.Category.TopicsCnt,
		"report", job.StatsPath,
	)
	return nil
}
