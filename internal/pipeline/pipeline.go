package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/nnmdl/internal/downloader"
	"github.com/nao1215/nnmdl/internal/model"
)

// Job is the state shared by the steps of one run.
type Job struct {
	// CategoryID selects the category to crawl or to load.
	CategoryID string

	// ForumID selects the subtree to download. Equal to CategoryID it
	// selects the whole category.
	ForumID string

	// AccountIndex is the configured account to log in with.
	AccountIndex int

	// FreeOnly keeps only gold and platinum topics in the queue.
	FreeOnly bool

	// Limit caps the number of topics taken from each forum; 0 is unlimited.
	Limit int

	// User is the logged in account name, set by LoginStep.
	User string

	// Category is the crawled or loaded tree.
	Category *model.Category

	// CrawledAt is when CrawlStep finished.
	CrawledAt time.Time

	// Queue is the ordered list of topics to download.
	Queue []model.Topic

	// Result holds the download counters.
	Result downloader.Result

	// StatsPath is the text report written by ReportStep.
	StatsPath string

	// Steps lists the names of the completed steps.
	Steps []string
}

// Step is one stage of a pipeline.
type Step interface {
	// Do runs the step. A returned error stops the pipeline.
	Do(ctx context.Context, job *Job) error

	// Name returns the step name for logging.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step in sequence. Cancellation is checked before each
// step; the first step error is returned as is.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
			return err
		}

		p.logger.Debug("executing step", "step", step.Name(), "category", job.CategoryID)
		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "category", job.CategoryID, "error", err)
			return err
		}
		job.Steps = append(job.Steps, step.Name())
	}
	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
