// Package session logs into the tracker with one of the configured accounts.
//
// A Manager moves through LoggedOut, LoggingIn and LoggedIn. Every Login
// installs a fresh cookie jar on the shared HTTP client, so a failed attempt
// never leaves stale cookies of a previous account behind. Failures always
// end in LoggedOut and are reported with ErrAuthFailed; the manager never
// tries another account on its own.
package session
