// Package database keeps the SQLite journal of nnmdl.
//
// The journal is an append-only audit log: one row per completed category
// crawl and one row per downloaded torrent. It answers "when did this
// category last change" and "what did this user fetch recently". The JSON
// history store stays the source of truth for snapshots and download
// lists; the journal is never consulted to decide whether to download.
//
// The database is a single file (journal.db) opened through
// modernc.org/sqlite, which needs no cgo.
package database
