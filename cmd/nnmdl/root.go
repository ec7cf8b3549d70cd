package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for nnmdl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nnmdl",
		Short: "Crawler and incremental torrent downloader for the nnmclub tracker",
		Long: `nnmdl walks a tracker category with all nested forums, stores the tree as
a snapshot and prints how many topics are downloadable and alive.

Downloads work on the stored snapshot: every torrent file fetched for an
account is remembered, so repeated runs only fetch what is new.

Accounts, mirror URL and proxy are read from .nnmdl (see "nnmdl init").`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.StringP("config", "c", "", "Configuration file path (default: .nnmdl in current or home directory)")
	flags.String("work-dir", "", "Directory for torrent files and text reports")
	flags.String("data-dir", "", "Directory for snapshots, download history and the journal")
	flags.String("proxy", "", "SOCKS5 proxy address (host:port)")
	flags.Bool("tor", false, "Route requests through an embedded Tor daemon")

	cmd.AddCommand(NewUpdateCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewJournalCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so that downloads save their progress before exiting.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
