package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/nao1215/nnmdl/internal/httpclient"
	"github.com/nao1215/nnmdl/internal/model"
)

const (
	// TopicsPerPage is the listing page size of the tracker.
	TopicsPerPage = 50

	// DefaultMaxDepth bounds forum nesting below a category.
	DefaultMaxDepth = 4

	categoryPage = "index.php"
	forumPage    = "viewforum.php"
)

// Crawler builds category snapshots.
type Crawler struct {
	client   *httpclient.Client
	parser   *Parser
	maxDepth int
	logger   *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets how deep nested forums are followed. Forums listed on
// the category page have depth 1.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Crawler on top of client.
func New(client *httpclient.Client, opts ...Option) *Crawler {
	c := &Crawler{
		client:   client,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = NewParser(c.logger)
	return c
}

// walk carries the state of one category crawl.
type walk struct {
	categoryID string
	visited    map[string]struct{}
}

// Category crawls category id and returns the aggregated tree.
func (c *Crawler) Category(ctx context.Context, id string) (*model.Category, error) {
	referer := categoryURL(id)
	doc, err := c.client.Document(ctx, httpclient.Get(categoryPage, url.Values{"c": {id}}, referer))
	if err != nil {
		return nil, fmt.Errorf("failed to load category %s: %w", id, err)
	}

	category := &model.Category{
		ID:     id,
		Name:   c.parser.CategoryName(doc, id),
		Forums: c.parser.CategoryForums(doc, id),
	}
	if category.Name == "" && len(category.Forums) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	c.logger.Info("category", "category", id, "name", category.Name, "forums", len(category.Forums))

	w := &walk{categoryID: id, visited: make(map[string]struct{})}
	for _, f := range category.Forums {
		w.visited[f.ID] = struct{}{}
	}
	for _, f := range category.Forums {
		if err := c.client.Wait(ctx); err != nil {
			return nil, err
		}
		if err := c.forum(ctx, w, f, 1, referer); err != nil {
			return nil, err
		}
	}

	category.Aggregate()
	c.logger.Info("category crawled",
		"category", id,
		"topics", category.TopicsCnt,
		"downloadable", category.TotalCnt,
		"alive", category.AliveCnt,
		"size", category.TotalSize,
	)
	return category, nil
}

// forum fills f with its topics and nested forums. Only context errors are
// returned; page failures are logged and leave the node partially filled.
func (c *Crawler) forum(ctx context.Context, w *walk, f *model.Forum, depth int, referer string) error {
	log := c.logger.With("category", w.categoryID, "forum", f.ID)

	doc, err := c.client.Document(ctx, forumRequest(f.ID, 0, referer))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("forum skipped", "page", 1, "error", err)
		return nil
	}

	children := c.parser.NestedForums(doc, f.ID)
	pages := pageCount(c.parser.PageCount(doc), f.DeclaredTopics)

	topics := newTopicSet()
	topics.add(c.parser.Topics(doc, f.ID))
	log.Debug("forum page", "page", 1, "pages", pages, "topics", topics.len())

	for page := 1; page < pages; page++ {
		if err := c.client.Wait(ctx); err != nil {
			return err
		}
		doc, err := c.client.Document(ctx, forumRequest(f.ID, page, referer))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("forum topics truncated", "page", page+1, "pages", pages, "error", err)
			break
		}
		topics.add(c.parser.Topics(doc, f.ID))
		log.Debug("forum page", "page", page+1, "pages", pages, "topics", topics.len())
	}
	f.Topics = topics.list
	log.Info("forum crawled", "name", f.Name, "topics", len(f.Topics), "forums", len(children))

	self := forumURL(f.ID)
	for _, child := range children {
		if _, ok := w.visited[child.ID]; ok {
			continue
		}
		if depth+1 > c.maxDepth {
			log.Warn("nested forum beyond max depth", "child", child.ID, "depth", depth+1)
			continue
		}
		w.visited[child.ID] = struct{}{}

		if err := c.client.Wait(ctx); err != nil {
			return err
		}
		if err := c.forum(ctx, w, child, depth+1, self); err != nil {
			return err
		}
		f.Forums = append(f.Forums, child)
	}
	return nil
}

// pageCount combines the pager with the declared topic count.
func pageCount(pager, declared int) int {
	pages := (declared + TopicsPerPage - 1) / TopicsPerPage
	return max(pages, pager, 1)
}

func forumRequest(id string, page int, referer string) httpclient.Request {
	params := url.Values{
		"f":     {id},
		"start": {strconv.Itoa(page * TopicsPerPage)},
	}
	return httpclient.Get(forumPage, params, referer)
}

func categoryURL(id string) string {
	return categoryPage + "?c=" + url.QueryEscape(id)
}

func forumURL(id string) string {
	return forumPage + "?f=" + url.QueryEscape(id)
}

// topicSet keeps the first occurrence of every topic id.
type topicSet struct {
	list []model.Topic
	seen map[string]struct{}
}

func newTopicSet() *topicSet {
	return &topicSet{list: []model.Topic{}, seen: make(map[string]struct{})}
}

func (s *topicSet) add(topics []model.Topic) {
	for _, t := range topics {
		if _, ok := s.seen[t.ID]; ok {
			continue
		}
		s.seen[t.ID] = struct{}{}
		s.list = append(s.list, t)
	}
}

func (s *topicSet) len() int {
	return len(s.list)
}
