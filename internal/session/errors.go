package session

import "errors"

var (
	// ErrAuthFailed is returned when the tracker did not accept the login.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrUnknownAccount is returned for an account index outside the configured list.
	ErrUnknownAccount = errors.New("unknown account")
)
