package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/nnmdl/internal/downloader"
	"github.com/nao1215/nnmdl/internal/history"
	"github.com/nao1215/nnmdl/internal/model"
	"github.com/nao1215/nnmdl/internal/report"
)

// SnapshotNamespace is the history category holding crawled trees keyed by
// category id.
const SnapshotNamespace = "struct"

// Authenticator logs an account in.
type Authenticator interface {
	Login(ctx context.Context, idx int) error
	User() string
}

// CategoryCrawler builds the tree of a category.
type CategoryCrawler interface {
	Category(ctx context.Context, id string) (*model.Category, error)
}

// CrawlRecorder keeps an audit entry per crawl.
type CrawlRecorder interface {
	RecordCrawl(ctx context.Context, category *model.Category, at time.Time) (int64, error)
}

// QueueProcessor downloads a queue of topics for a user.
type QueueProcessor interface {
	ProcessQueue(ctx context.Context, topics []model.Topic, namespace, key string) (downloader.Result, error)
}

// LoginStep logs in with job.AccountIndex and sets job.User.
type LoginStep struct {
	auth Authenticator
}

// NewLoginStep creates a LoginStep.
func NewLoginStep(auth Authenticator) *LoginStep {
	return &LoginStep{auth: auth}
}

// Name returns the step name.
func (s *LoginStep) Name() string { return "login" }

// Do executes the step.
func (s *LoginStep) Do(ctx context.Context, job *Job) error {
	if err := s.auth.Login(ctx, job.AccountIndex); err != nil {
		return err
	}
	job.User = s.auth.User()
	return nil
}

// CrawlStep crawls job.CategoryID into job.Category.
type CrawlStep struct {
	crawler CategoryCrawler
	now     func() time.Time
}

// NewCrawlStep creates a CrawlStep.
func NewCrawlStep(crawler CategoryCrawler) *CrawlStep {
	return &CrawlStep{crawler: crawler, now: time.Now}
}

// Name returns the step name.
func (s *CrawlStep) Name() string { return "crawl" }

// Do executes the step.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	category, err := s.crawler.Category(ctx, job.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to crawl category %s: %w", job.CategoryID, err)
	}
	job.Category = category
	job.CrawledAt = s.now()
	return nil
}

// PersistStep stores job.Category as the snapshot of its category and
// saves the history document.
type PersistStep struct {
	store *history.Store
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(store *history.Store) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string { return "persist" }

// Do executes the step.
func (s *PersistStep) Do(_ context.Context, job *Job) error {
	if job.Category == nil {
		return ErrNoCategory
	}
	if err := s.store.SetItem(SnapshotNamespace, job.Category.ID, job.Category); err != nil {
		return err
	}
	return s.store.Save()
}

// JournalStep appends the crawl to the audit journal. Journal failures are
// logged and do not stop the pipeline.
type JournalStep struct {
	journal CrawlRecorder
	logger  *slog.Logger
}

// NewJournalStep creates a JournalStep.
func NewJournalStep(journal CrawlRecorder, logger *slog.Logger) *JournalStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalStep{journal: journal, logger: logger}
}

// Name returns the step name.
func (s *JournalStep) Name() string { return "journal" }

// Do executes the step.
func (s *JournalStep) Do(ctx context.Context, job *Job) error {
	if job.Category == nil {
		return ErrNoCategory
	}
	if _, err := s.journal.RecordCrawl(ctx, job.Category, job.CrawledAt); err != nil {
		s.logger.Warn("failed to record crawl", "category", job.Category.ID, "error", err)
	}
	return nil
}

// ReportStep writes the text report of job.Category to a directory and
// echoes it to stdout.
type ReportStep struct {
	dir    string
	stdout io.Writer
}

// NewReportStep creates a ReportStep. A nil stdout only writes the file.
func NewReportStep(dir string, stdout io.Writer) *ReportStep {
	return &ReportStep{dir: dir, stdout: stdout}
}

// Name returns the step name.
func (s *ReportStep) Name() string { return "report" }

// Do executes the step.
func (s *ReportStep) Do(_ context.Context, job *Job) error {
	if job.Category == nil {
		return ErrNoCategory
	}
	path, err := report.SaveStats(job.Category, s.dir, s.stdout)
	if err != nil {
		return err
	}
	job.StatsPath = path
	return nil
}

// RenderStep writes job.Category through a report.Writer.
type RenderStep struct {
	writer report.Writer
}

// NewRenderStep creates a RenderStep.
func NewRenderStep(writer report.Writer) *RenderStep {
	return &RenderStep{writer: writer}
}

// Name returns the step name.
func (s *RenderStep) Name() string { return "render" }

// Do executes the step.
func (s *RenderStep) Do(_ context.Context, job *Job) error {
	if job.Category == nil {
		return ErrNoCategory
	}
	if _, err := s.writer.Write(job.Category); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// LoadSnapshotStep loads the persisted tree of job.CategoryID.
type LoadSnapshotStep struct {
	store *history.Store
}

// NewLoadSnapshotStep creates a LoadSnapshotStep.
func NewLoadSnapshotStep(store *history.Store) *LoadSnapshotStep {
	return &LoadSnapshotStep{store: store}
}

// Name returns the step name.
func (s *LoadSnapshotStep) Name() string { return "load_snapshot" }

// Do executes the step.
func (s *LoadSnapshotStep) Do(_ context.Context, job *Job) error {
	if !s.store.HasItem(SnapshotNamespace, job.CategoryID) {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, job.CategoryID)
	}
	category, err := history.GetItem[*model.Category](s.store, SnapshotNamespace, job.CategoryID, nil)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, job.CategoryID)
	}
	category.Aggregate()
	job.Category = category
	return nil
}

// QueueStep builds job.Queue from job.Category.
type QueueStep struct{}

// NewQueueStep creates a QueueStep.
func NewQueueStep() *QueueStep {
	return &QueueStep{}
}

// Name returns the step name.
func (s *QueueStep) Name() string { return "queue" }

// Do executes the step.
func (s *QueueStep) Do(_ context.Context, job *Job) error {
	if job.Category == nil {
		return ErrNoCategory
	}
	topics, err := downloader.Flatten(job.Category, job.ForumID, job.Limit)
	if err != nil {
		return err
	}
	if job.FreeOnly {
		topics = downloader.FreeOnly(topics)
	}
	job.Queue = topics
	return nil
}

// DownloadStep processes job.Queue for job.User.
type DownloadStep struct {
	processor QueueProcessor
}

// NewDownloadStep creates a DownloadStep.
func NewDownloadStep(processor QueueProcessor) *DownloadStep {
	return &DownloadStep{processor: processor}
}

// Name returns the step name.
func (s *DownloadStep) Name() string { return "download" }

// Do executes the step.
func (s *DownloadStep) Do(ctx context.Context, job *Job) error {
	if job.User == "" {
		return ErrNotLoggedIn
	}
	res, err := s.processor.ProcessQueue(ctx, job.Queue, downloader.Namespace, job.User)
	job.Result = res
	return err
}
