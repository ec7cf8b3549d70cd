package downloader

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nao1215/nnmdl/internal/history"
	"github.com/nao1215/nnmdl/internal/model"
)

// fakeFetcher records calls and fails for the configured ids.
type fakeFetcher struct {
	calls  []int64
	failed map[int64]bool
	hook   func(call int)
}

func (f *fakeFetcher) Fetch(_ context.Context, topic model.Topic) (*Download, error) {
	f.calls = append(f.calls, topic.DownloadID)
	if f.hook != nil {
		f.hook(len(f.calls))
	}
	if f.failed[topic.DownloadID] {
		return nil, errors.New("server error")
	}
	return &Download{Filename: topic.ID + ".torrent", Bytes: 10}, nil
}

type fakeJournal struct {
	entries []model.DownloadEntry
	err     error
}

func (j *fakeJournal) RecordDownload(_ context.Context, entry model.DownloadEntry) error {
	j.entries = append(j.entries, entry)
	return j.err
}

func noWait(ctx context.Context) error {
	return ctx.Err()
}

func queue(dlIDs ...int64) []model.Topic {
	topics := make([]model.Topic, 0, len(dlIDs))
	for _, id := range dlIDs {
		topics = append(topics, model.Topic{ID: "t", DownloadID: id})
	}
	return topics
}

func openStore(t *testing.T, dir string) *history.Store {
	t.Helper()
	store, err := history.Open(dir, "downloads.json")
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	return store
}

func persisted(t *testing.T, dir, user string) []int64 {
	t.Helper()
	got, err := history.GetItem(openStore(t, dir), Namespace, user, []int64{})
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	return got
}

func TestManagerProcessQueue(t *testing.T) {
	t.Parallel()

	t.Run("already downloaded id makes no network call", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := openStore(t, dir)
		if err := store.SetItem(Namespace, "alice", []int64{42}); err != nil {
			t.Fatal(err)
		}
		fetcher := &fakeFetcher{}
		m := NewManager(store, fetcher, WithWait(noWait))

		res, err := m.ProcessQueue(context.Background(), queue(42), Namespace, "alice")
		if err != nil {
			t.Fatalf("ProcessQueue() error = %v", err)
		}
		if len(fetcher.calls) != 0 {
			t.Errorf("fetcher called for %v", fetcher.calls)
		}
		if res != (Result{Queued: 1, Skipped: 1}) {
			t.Errorf("result = %+v", res)
		}
		if got := persisted(t, dir, "alice"); !slices.Equal(got, []int64{42}) {
			t.Errorf("persisted = %v, want [42]", got)
		}
	})

	t.Run("failures are not recorded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		fetcher := &fakeFetcher{failed: map[int64]bool{2: true}}
		journal := &fakeJournal{}
		m := NewManager(openStore(t, dir), fetcher, WithWait(noWait), WithJournal(journal))

		res, err := m.ProcessQueue(context.Background(), queue(1, 2, 3), Namespace, "alice")
		if err != nil {
			t.Fatalf("ProcessQueue() error = %v", err)
		}
		if res != (Result{Queued: 3, Downloaded: 2, Failed: 1}) {
			t.Errorf("result = %+v", res)
		}
		if got := persisted(t, dir, "alice"); !slices.Equal(got, []int64{1, 3}) {
			t.Errorf("persisted = %v, want [1 3]", got)
		}
		if len(journal.entries) != 2 || journal.entries[1].DownloadID != 3 || journal.entries[1].User != "alice" {
			t.Errorf("journal = %+v", journal.entries)
		}
	})

	t.Run("second run downloads nothing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first := &fakeFetcher{}
		if _, err := NewManager(openStore(t, dir), first, WithWait(noWait)).
			ProcessQueue(context.Background(), queue(1, 2), Namespace, "alice"); err != nil {
			t.Fatal(err)
		}

		second := &fakeFetcher{}
		res, err := NewManager(openStore(t, dir), second, WithWait(noWait)).
			ProcessQueue(context.Background(), queue(1, 2, 3), Namespace, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(second.calls, []int64{3}) {
			t.Errorf("second run fetched %v, want [3]", second.calls)
		}
		if res.Skipped != 2 || res.Downloaded != 1 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("users keep separate lists", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := openStore(t, dir)
		if err := store.SetItem(Namespace, "bob", []int64{1}); err != nil {
			t.Fatal(err)
		}
		fetcher := &fakeFetcher{}
		if _, err := NewManager(store, fetcher, WithWait(noWait)).
			ProcessQueue(context.Background(), queue(1), Namespace, "alice"); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(fetcher.calls, []int64{1}) {
			t.Errorf("alice fetched %v, want [1]", fetcher.calls)
		}
	})

	t.Run("checkpoint saves before the queue ends", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		var seenAtThirdCall []int64
		fetcher := &fakeFetcher{}
		fetcher.hook = func(call int) {
			if call == 3 {
				seenAtThirdCall = persisted(t, dir, "alice")
			}
		}
		m := NewManager(openStore(t, dir), fetcher, WithWait(noWait), WithCheckpoint(2))

		if _, err := m.ProcessQueue(context.Background(), queue(1, 2, 3), Namespace, "alice"); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(seenAtThirdCall, []int64{1, 2}) {
			t.Errorf("persisted at third call = %v, want [1 2]", seenAtThirdCall)
		}
		if got := persisted(t, dir, "alice"); !slices.Equal(got, []int64{1, 2, 3}) {
			t.Errorf("persisted = %v", got)
		}
	})

	t.Run("cancellation saves progress", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		fetcher := &fakeFetcher{}
		fetcher.hook = func(call int) {
			if call == 2 {
				cancel()
			}
		}
		m := NewManager(openStore(t, dir), fetcher, WithWait(noWait))

		res, err := m.ProcessQueue(ctx, queue(1, 2, 3), Namespace, "alice")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("ProcessQueue() error = %v, want context.Canceled", err)
		}
		if len(fetcher.calls) != 2 {
			t.Errorf("fetch calls = %v", fetcher.calls)
		}
		if got := persisted(t, dir, "alice"); !slices.Equal(got, []int64{1, 2}) {
			t.Errorf("persisted = %v, want [1 2]", got)
		}
		if res.Downloaded != 2 {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("journal errors are not fatal", func(t *testing.T) {
		t.Parallel()

		m := NewManager(openStore(t, t.TempDir()), &fakeFetcher{},
			WithWait(noWait), WithJournal(&fakeJournal{err: errors.New("disk full")}))
		res, err := m.ProcessQueue(context.Background(), queue(1), Namespace, "alice")
		if err != nil || res.Downloaded != 1 {
			t.Errorf("ProcessQueue() = %+v, %v", res, err)
		}
	})
}
