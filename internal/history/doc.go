// Package history provides the crash-safe JSON document store that holds
// every piece of state the tool keeps between runs: catalog snapshots and
// per-user download logs.
//
// A Store is one JSON file holding a two-level document:
// category -> key -> value. The whole document lives in memory and Save
// rewrites it completely. Saves go through a temporary file in the same
// directory that is renamed over the canonical path, so a crash at any
// point leaves either the previous or the new document on disk, never a
// truncated one.
//
// # Usage
//
//	store, err := history.Open(dataDir, "downloads.json")
//	ids, err := history.GetItem(store, "downloads", user, []int64{})
//	ids = append(ids, 42)
//	err = store.SetItem("downloads", user, ids)
//	err = store.Save()
package history
