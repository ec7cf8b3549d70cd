package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidBaseURL is returned when the tracker URL has no scheme or host.
	ErrInvalidBaseURL = errors.New("invalid base URL: scheme and host are required")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the number of attempts is not positive.
	ErrInvalidRetries = errors.New("invalid retries: must be positive")

	// ErrInvalidDelay is returned when the retry or wait delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidCheckpoint is returned when the checkpoint interval is not positive.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint: must be positive")

	// ErrInvalidMaxDepth is returned when the forum depth limit is not positive.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be positive")

	// ErrInvalidAccount is returned for a negative account index.
	ErrInvalidAccount = errors.New("invalid account index: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingTransports is returned when both --proxy and --tor are set.
	ErrConflictingTransports = errors.New("conflicting transports: --proxy and --tor cannot be used together")

	// ErrUnknownCharset is returned when the configured site charset is not known.
	ErrUnknownCharset = errors.New("unknown charset")
)
