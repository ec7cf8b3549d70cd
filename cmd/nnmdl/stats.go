package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/nnmdl/internal/config"
	"github.com/nao1215/nnmdl/internal/pipeline"
	"github.com/nao1215/nnmdl/internal/report"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <category-id>",
		Short: "Print statistics of a stored category snapshot",
		Long: `Stats renders the snapshot stored by the last update of a category. It
does not contact the tracker. The text report is also written to
cat_<category-id>_stats.txt in the work directory.

Examples:
  # Fixed-width table as printed by update
  nnmdl stats 14

  # Markdown with a pie chart of alive against dead payload
  nnmdl stats 14 --markdown -o report/cat_14.md

  # JSON for other tools
  nnmdl stats 14 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runStatsCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if err := requireConfig(cfg); err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Verbose)

	snapshots, err := openHistory(cfg, snapshotsFile)
	if err != nil {
		return err
	}

	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(pipeline.NewLoadSnapshotStep(snapshots))
	if textReport(cfg) {
		// The text report is also saved as cat_<id>_stats.txt in the work dir.
		p.AddSteps(pipeline.NewReportStep(cfg.WorkDir, output))
	} else {
		p.AddSteps(pipeline.NewRenderStep(reportWriter(cfg, output)))
	}
	return p.Execute(cmd.Context(), &pipeline.Job{CategoryID: args[0]})
}

func textReport(cfg *config.Config) bool {
	return !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == ""
}

func reportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewTextWriter(output)
	}
}

// createReportFile creates or truncates path, creating parent directories.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
