// Package transport builds the *http.Client that talks to the tracker.
//
// Requests go out directly, through a SOCKS5 proxy given as "host:port",
// or through a Tor daemon that EmbeddedTor starts with tornago. The
// returned clients carry no cookie jar; the session package installs a
// fresh one on every login.
package transport
