package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/nao1215/nnmdl/internal/history"
	"github.com/nao1215/nnmdl/internal/httpclient"
	"github.com/nao1215/nnmdl/internal/model"
)

const (
	// DefaultCheckpoint is the number of processed topics between history saves.
	DefaultCheckpoint = 50

	// Namespace is the history category holding per-user download lists.
	Namespace = "downloads"
)

// Journal receives an entry for every successful download.
type Journal interface {
	RecordDownload(ctx context.Context, entry model.DownloadEntry) error
}

// Result summarizes a ProcessQueue run.
type Result struct {
	Queued     int
	Skipped    int
	Downloaded int
	Failed     int
}

// Manager processes download queues against a history store.
type Manager struct {
	store      *history.Store
	fetcher    Fetcher
	journal    Journal
	checkpoint int
	wait       func(ctx context.Context) error
	progress   io.Writer
	logger     *slog.Logger
	now        func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithJournal records successful downloads in j.
func WithJournal(j Journal) ManagerOption {
	return func(m *Manager) {
		m.journal = j
	}
}

// WithCheckpoint sets how many processed topics trigger a history save.
func WithCheckpoint(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.checkpoint = n
		}
	}
}

// WithWait sets the pause applied after every successful download.
func WithWait(wait func(ctx context.Context) error) ManagerOption {
	return func(m *Manager) {
		if wait != nil {
			m.wait = wait
		}
	}
}

// WithProgress draws a progress bar on w.
func WithProgress(w io.Writer) ManagerOption {
	return func(m *Manager) {
		m.progress = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager that fetches with fetcher and persists
// progress in store.
func NewManager(store *history.Store, fetcher Fetcher, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		fetcher:    fetcher,
		checkpoint: DefaultCheckpoint,
		wait: func(ctx context.Context) error {
			return httpclient.Sleep(ctx, httpclient.DefaultWaitTimeout)
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProcessQueue downloads every topic whose download id is not yet listed
// under namespace/key. Fetch failures are logged and counted; history save
// failures stop the run. On cancellation the history is saved and the
// context error is returned.
func (m *Manager) ProcessQueue(ctx context.Context, topics []model.Topic, namespace, key string) (Result, error) {
	res := Result{Queued: len(topics)}

	ids, err := history.GetItem(m.store, namespace, key, []int64{})
	if err != nil {
		return res, fmt.Errorf("failed to load download list of %s: %w", key, err)
	}
	record := model.NewDownloadRecord(key, ids)

	bar := m.newBar(len(topics))
	var runErr error
	for i, topic := range topics {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if record.Contains(topic.DownloadID) {
			res.Skipped++
		} else if err := m.download(ctx, record, topic, namespace, &res); err != nil {
			runErr = err
			break
		}

		if bar != nil {
			_ = bar.Add(1)
		}
		if (i+1)%m.checkpoint == 0 {
			if err := m.save(); err != nil {
				return res, err
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := m.save(); err != nil {
		return res, err
	}
	m.logger.Info("download queue processed",
		"user", key,
		"queued", res.Queued,
		"skipped", res.Skipped,
		"downloaded", res.Downloaded,
		"failed", res.Failed,
	)
	return res, runErr
}

// download fetches one topic. Only errors that must stop the queue are returned.
func (m *Manager) download(ctx context.Context, record *model.DownloadRecord, topic model.Topic, namespace string, res *Result) error {
	d, err := m.fetcher.Fetch(ctx, topic)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Failed++
		m.logger.Warn("download failed", "topic", topic.ID, "download", topic.DownloadID, "error", err)
		return nil
	}

	record.Add(topic.DownloadID)
	if err := m.store.SetItem(namespace, record.User, record.IDs()); err != nil {
		return err
	}
	res.Downloaded++

	if m.journal != nil {
		entry := model.DownloadEntry{
			User:       record.User,
			DownloadID: topic.DownloadID,
			TopicID:    topic.ID,
			Filename:   d.Filename,
			Bytes:      d.Bytes,
			At:         m.now(),
		}
		if err := m.journal.RecordDownload(ctx, entry); err != nil {
			m.logger.Warn("failed to journal download", "download", topic.DownloadID, "error", err)
		}
	}
	return m.wait(ctx)
}

func (m *Manager) save() error {
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save download history: %w", err)
	}
	return nil
}

func (m *Manager) newBar(total int) *progressbar.ProgressBar {
	if m.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(m.progress),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetItsString("torrent"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
