// Package downloader selects topics from a category snapshot and fetches
// their torrent files without ever fetching the same payload twice for a
// user.
//
// Manager.ProcessQueue keeps the per-user list of downloaded ids in a
// history.Store. An id already present is skipped with no network call.
// Successful downloads are appended to the list, and the list is saved
// every CHECKPOINT processed topics and once more when the queue ends, so
// an interrupted run resumes where it stopped.
package downloader
