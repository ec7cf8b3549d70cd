// Package main provides the entry point for the nnmdl CLI.
//
// nnmdl mirrors the category tree of the nnmclub tracker into local
// snapshots, prints per-forum statistics and downloads the torrent files of
// a forum subtree, skipping every file the account already fetched.
//
// Usage:
//
//	nnmdl update <category-id>
//	nnmdl download <category-id> <forum-id>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
