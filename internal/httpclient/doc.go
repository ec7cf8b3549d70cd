// Package httpclient is the HTTP layer used to talk to the tracker.
//
// Every call is described by an immutable Request. The client rebuilds the
// outgoing *http.Request on each attempt from a fixed set of base headers and
// the per-call Referer, so concurrent or nested callers never observe each
// other's headers. Transport errors and non-200 responses are retried a
// fixed number of times with a linear backoff; once the attempts are used up
// the call fails with ErrRetriesExhausted.
//
// Document decodes the response body into UTF-8 using the charset announced
// by the server before handing it to goquery, which matters for the
// windows-1251 pages served by the tracker.
package httpclient
