package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/nnmdl/internal/downloader"
	"github.com/nao1215/nnmdl/internal/pipeline"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <category-id> <forum-id>",
		Short: "Download the torrent files of a forum subtree",
		Long: `Download logs in and fetches the torrent file of every downloadable topic
below the forum, taken from the stored snapshot of the category. Files
already downloaded by the account are skipped, so an interrupted run can
simply be started again.

Passing the category id as forum id selects every forum of the category.

Examples:
  # Everything below forum 100 of category 14
  nnmdl download 14 100

  # Only gold and platinum topics of the whole category
  nnmdl download 14 14 --free-only

  # At most 10 topics from each forum, with the second account
  nnmdl download 14 100 --limit 10 -a 1`,
		Args: cobra.ExactArgs(2),
		RunE: runDownloadCmd,
	}

	cmd.Flags().IntP("account", "a", 0, "Index of the configured account to log in with")
	cmd.Flags().Bool("free-only", false, "Only download topics with a gold or platinum medal")
	cmd.Flags().IntP("limit", "l", 0, "Maximum number of topics taken from each forum (0 means no limit)")
	return cmd
}

func runDownloadCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireConfig(cfg); err != nil {
		return err
	}
	freeOnly, err := cmd.Flags().GetBool("free-only")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Verbose)
	ctx := cmd.Context()

	snapshots, err := openHistory(cfg, snapshotsFile)
	if err != nil {
		return err
	}
	downloads, err := openHistory(cfg, downloadsFile)
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

	opts := []downloader.ManagerOption{
		downloader.WithCheckpoint(cfg.Checkpoint),
		downloader.WithWait(a.client.Wait),
		downloader.WithProgress(cmd.ErrOrStderr()),
		downloader.WithLogger(logger),
	}
	if journal := openJournal(cfg, logger); journal != nil {
		defer journal.Close()
		opts = append(opts, downloader.WithJournal(journal))
	}
	manager := downloader.NewManager(downloads,
		downloader.NewTorrentFetcher(a.client, cfg.WorkDir, logger),
		opts...,
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoginStep(sessions),
		pipeline.NewLoadSnapshotStep(snapshots),
		pipeline.NewQueueStep(),
		pipeline.NewDownloadStep(manager),
	)

	job := &pipeline.Job{
		CategoryID:   args[0],
		ForumID:      args[1],
		AccountIndex: cfg.AccountIndex,
		FreeOnly:     freeOnly,
		Limit:        limit,
	}
	err = p.Execute(ctx, job)
	if err == nil || errors.Is(err, ctx.Err()) {
		r := job.Result
		fmt.Fprintf(cmd.OutOrStdout(), "queued %d, skipped %d, downloaded %d, failed %d\n",
			r.Queued, r.Skipped, r.Downloaded, r.Failed)
	}
	return err
}
