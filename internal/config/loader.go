package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".nnmdl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .nnmdl configuration file.
type File struct {
	BaseURL   string    `yaml:"baseURL,omitempty"`
	UserAgent string    `yaml:"userAgent,omitempty"`
	Charset   string    `yaml:"charset,omitempty"`
	Proxy     string    `yaml:"proxy,omitempty"`
	WorkDir   string    `yaml:"workDir,omitempty"`
	DataDir   string    `yaml:"dataDir,omitempty"`
	Accounts  []Account `yaml:"accounts,omitempty"`

	// WaitTimeout and RetryTimeout accept Go durations such as "1500ms".
	WaitTimeout  time.Duration `yaml:"waitTimeout,omitempty"`
	RetryTimeout time.Duration `yaml:"retryTimeout,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every value set in the file into c.
func (cf *File) Apply(c *Config) {
	if cf.BaseURL != "" {
		c.BaseURL = cf.BaseURL
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if cf.Charset != "" {
		c.Charset = cf.Charset
	}
	if cf.Proxy != "" {
		c.ProxyAddress = cf.Proxy
	}
	if cf.WorkDir != "" {
		c.WorkDir = expandHome(cf.WorkDir)
	}
	if cf.DataDir != "" {
		c.DataDir = expandHome(cf.DataDir)
	}
	if cf.WaitTimeout > 0 {
		c.WaitTimeout = cf.WaitTimeout
	}
	if cf.RetryTimeout > 0 {
		c.RetryTimeout = cf.RetryTimeout
	}
	if len(cf.Accounts) > 0 {
		c.Accounts = append([]Account(nil), cf.Accounts...)
	}
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .nnmdl in the current directory
// 3. Look for .nnmdl in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
