package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nao1215/nnmdl/internal/config"
	"github.com/nao1215/nnmdl/internal/database"
	"github.com/nao1215/nnmdl/internal/history"
	"github.com/nao1215/nnmdl/internal/httpclient"
	"github.com/nao1215/nnmdl/internal/log"
	"github.com/nao1215/nnmdl/internal/session"
	"github.com/nao1215/nnmdl/internal/transport"
)

// History documents in the data directory.
const (
	snapshotsFile = "snapshots.json"
	downloadsFile = "downloads.json"
)

// loadConfig builds the configuration from defaults, the configuration file
// and the persistent flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicit path must exist; without one a missing file is fine.
	path := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case path != "":
		cf, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cf.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	for name, dst := range map[string]*string{
		"work-dir": &cfg.WorkDir,
		"data-dir": &cfg.DataDir,
		"proxy":    &cfg.ProxyAddress,
	} {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.UseTor && !flags.Changed("proxy") {
		cfg.ProxyAddress = ""
	}
	if flags.Lookup("account") != nil {
		if cfg.AccountIndex, err = flags.GetInt("account"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger creates the secure logger of a command and installs it as the
// slog default.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)
	return logger
}

// app holds the tracker connection of a network command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	tor    *transport.EmbeddedTor
	client *httpclient.Client
}

// newApp selects the transport and builds the tracker client. Close must
// be called to stop an embedded Tor daemon.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	httpClient, err := a.httpClient(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.client, err = httpclient.New(httpClient, cfg.BaseURL,
		httpclient.WithRetries(cfg.Retries),
		httpclient.WithRetryTimeout(cfg.RetryTimeout),
		httpclient.WithWaitTimeout(cfg.WaitTimeout),
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) httpClient(ctx context.Context) (*http.Client, error) {
	switch {
	case a.cfg.UseTor:
		a.tor = transport.NewEmbeddedTor(
			transport.WithStartupTimeout(a.cfg.TorStartupTimeout),
			transport.WithTorLogger(a.logger),
		)
		if err := a.tor.Start(ctx); err != nil {
			a.tor = nil
			return nil, err
		}
		proxy, err := a.tor.NewClient(a.cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return a.checkedProxy(ctx, proxy)
	case a.cfg.ProxyAddress != "":
		proxy, err := transport.NewClient(a.cfg.ProxyAddress, a.cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return a.checkedProxy(ctx, proxy)
	default:
		return transport.NewHTTPClient("", a.cfg.Timeout)
	}
}

func (a *app) checkedProxy(ctx context.Context, proxy *transport.Client) (*http.Client, error) {
	status := proxy.CheckConnection(ctx, a.cfg.BaseURL)
	if status != transport.ProxyStatusOK {
		return nil, fmt.Errorf("proxy check failed at %s: %w", proxy.ProxyAddress(), status.Err())
	}
	a.logger.Info("proxy verified", "proxy", proxy.ProxyAddress())
	return proxy.HTTPClient(), nil
}

// sessions returns a login manager over the configured accounts.
func (a *app) sessions() (*session.Manager, error) {
	enc, err := a.cfg.Encoding()
	if err != nil {
		return nil, err
	}
	accounts := make([]session.Account, len(a.cfg.Accounts))
	for i, acc := range a.cfg.Accounts {
		accounts[i] = session.Account{Username: acc.Username, Password: acc.Password}
	}
	return session.NewManager(a.client, accounts,
		session.WithEncoding(enc),
		session.WithLogger(a.logger),
	), nil
}

// Close stops the embedded Tor daemon, if any.
func (a *app) Close() {
	if a.tor == nil {
		return
	}
	if err := a.tor.Stop(); err != nil {
		a.logger.Error("failed to stop embedded Tor", "error", err)
	}
}

// openJournal opens the audit journal. The journal is informational, so a
// failure is logged and nil is returned.
func openJournal(cfg *config.Config, logger *slog.Logger) *database.Journal {
	journal, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("journal disabled", "dir", cfg.DataDir, "error", err)
		return nil
	}
	return journal
}

func openHistory(cfg *config.Config, name string) (*history.Store, error) {
	store, err := history.Open(cfg.DataDir, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return store, nil
}

// requireConfig validates cfg and wraps the error for the operator.
func requireConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	return nil
}
