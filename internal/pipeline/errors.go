package pipeline

import "errors"

var (
	// ErrSnapshotNotFound is returned when no crawled tree of a category has
	// been persisted yet.
	ErrSnapshotNotFound = errors.New("no snapshot of category, run update first")

	// ErrNoCategory is returned by steps that need a tree when none was
	// crawled or loaded by an earlier step.
	ErrNoCategory = errors.New("no category in job")

	// ErrNotLoggedIn is returned by DownloadStep when no account is logged in.
	ErrNotLoggedIn = errors.New("not logged in")
)
