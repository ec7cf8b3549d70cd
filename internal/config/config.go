package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "nnmdl"

	// DefaultBaseURL is the forum root of the tracker.
	DefaultBaseURL = "https://nnmclub.to/forum/"

	// DefaultCharset is the charset the tracker expects form values in.
	DefaultCharset = "windows-1251"

	// DefaultUserAgent mimics a desktop browser; the tracker serves reduced
	// pages to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 60 * time.Second

	// DefaultRetries is the number of attempts per request.
	DefaultRetries = 3

	// DefaultRetryTimeout is multiplied by the attempt number before a retry.
	DefaultRetryTimeout = 15 * time.Second

	// DefaultWaitTimeout is the pause between two distinct requests.
	DefaultWaitTimeout = 1 * time.Second

	// DefaultCheckpoint is the number of processed topics between history saves.
	DefaultCheckpoint = 50

	// DefaultMaxDepth bounds forum nesting below a category.
	DefaultMaxDepth = 4

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Account is a tracker login from the configuration file.
type Account struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config holds all configuration options for nnmdl. It is populated from
// defaults, the configuration file and CLI flags, in that order.
type Config struct {
	// BaseURL is the forum root every page path is resolved against.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Charset is the encoding of submitted forms.
	Charset string

	// Accounts are the tracker logins, selected by AccountIndex.
	Accounts []Account

	// AccountIndex selects the login used for the run.
	AccountIndex int

	// WorkDir receives torrent files and text reports.
	WorkDir string

	// DataDir holds the history documents and the journal.
	DataDir string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout is the bootstrap limit of the embedded Tor daemon.
	TorStartupTimeout time.Duration

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration

	// Retries is the number of attempts per request.
	Retries int

	// RetryTimeout is the backoff unit between attempts.
	RetryTimeout time.Duration

	// WaitTimeout is the politeness delay between requests.
	WaitTimeout time.Duration

	// Checkpoint is the number of processed topics between history saves.
	Checkpoint int

	// MaxDepth bounds forum nesting below a category.
	MaxDepth int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file, if any.
	ConfigFilePath string

	// JSONReport selects the JSON stats report.
	JSONReport bool

	// MarkdownReport selects the Markdown stats report.
	MarkdownReport bool

	// ReportFile redirects the stats report from stdout to a file.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         DefaultUserAgent,
		Charset:           DefaultCharset,
		WorkDir:           DefaultWorkDir(),
		DataDir:           XDGDataDir(),
		TorStartupTimeout: DefaultTorStartupTimeout,
		Timeout:           DefaultTimeout,
		Retries:           DefaultRetries,
		RetryTimeout:      DefaultRetryTimeout,
		WaitTimeout:       DefaultWaitTimeout,
		Checkpoint:        DefaultCheckpoint,
		MaxDepth:          DefaultMaxDepth,
	}
}

// XDGDataDir returns the XDG data directory for nnmdl.
// On Linux: ~/.local/share/nnmdl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for nnmdl.
// On Linux: ~/.config/nnmdl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultWorkDir returns the download directory for torrent files and reports.
// On Linux: ~/Downloads/nnmdl
func DefaultWorkDir() string {
	return filepath.Join(xdg.UserDirs.Download, AppName)
}

// Encoding resolves Charset.
func (c *Config) Encoding() (encoding.Encoding, error) {
	enc, err := htmlindex.Get(c.Charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, c.Charset)
	}
	return enc, nil
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Retries <= 0 {
		return ErrInvalidRetries
	}
	if c.RetryTimeout < 0 || c.WaitTimeout < 0 {
		return ErrInvalidDelay
	}
	if c.Checkpoint <= 0 {
		return ErrInvalidCheckpoint
	}
	if c.MaxDepth <= 0 {
		return ErrInvalidMaxDepth
	}
	if c.AccountIndex < 0 {
		return ErrInvalidAccount
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingTransports
	}
	if _, err := c.Encoding(); err != nil {
		return err
	}
	return nil
}
