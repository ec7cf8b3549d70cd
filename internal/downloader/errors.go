package downloader

import "errors"

var (
	// ErrForumNotFound is returned when the requested forum is not in the snapshot.
	ErrForumNotFound = errors.New("forum not found")

	// ErrNoFilename is returned when a download response does not name its file.
	ErrNoFilename = errors.New("no filename in response")
)
