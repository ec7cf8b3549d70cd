package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/nnmdl/internal/model"
)

// FileName is the journal file name inside the data directory.
const FileName = "journal.db"

// Journal is the SQLite audit log of crawls and downloads.
type Journal struct {
	db     *sql.DB
	dbPath string
}

// Options configures Journal behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the journal in dir.
func Open(dir string, opts Options) (*Journal, error) {
	dbPath := filepath.Join(dir, FileName)

	dsn := dbPath + "?mode=rwc"
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("journal not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check journal path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	} else if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	// Concurrent nnmdl processes wait for the writer instead of failing.
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := j.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id TEXT NOT NULL,
		name TEXT NOT NULL,
		forums INTEGER NOT NULL,
		topics INTEGER NOT NULL,
		total_cnt INTEGER NOT NULL,
		alive_cnt INTEGER NOT NULL,
		total_bytes INTEGER NOT NULL,
		alive_bytes INTEGER NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_crawl_runs_category ON crawl_runs(category_id);

	CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user TEXT NOT NULL,
		download_id INTEGER NOT NULL,
		topic_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_downloads_user ON downloads(user);
	`
	_, err := j.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlRun is a journal row for one completed category crawl.
type CrawlRun struct {
	ID         int64
	CategoryID string
	Name       string
	Forums     int
	Topics     int
	TotalCnt   int
	AliveCnt   int
	TotalBytes int64
	AliveBytes int64
	Timestamp  time.Time
}

// RecordCrawl appends a crawl run built from an aggregated category.
func (j *Journal) RecordCrawl(ctx context.Context, category *model.Category, at time.Time) (int64, error) {
	forums := 0
	category.Walk(func(*model.Forum, int) { forums++ })

	query := `
	INSERT INTO crawl_runs (category_id, name, forums, topics, total_cnt, alive_cnt, total_bytes, alive_bytes, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := j.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		forums,
		category.TopicsCnt,
		category.TotalCnt,
		category.AliveCnt,
		category.TotalBytes,
		category.AliveBytes,
		formatTimestamp(at),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record crawl of %s: %w", category.ID, err)
	}
	return result.LastInsertId()
}

// ListCrawlRuns returns the crawl runs of a category, newest first.
func (j *Journal) ListCrawlRuns(ctx context.Context, categoryID string) ([]CrawlRun, error) {
	query := `
	SELECT id, category_id, name, forums, topics, total_cnt, alive_cnt, total_bytes, alive_bytes, timestamp
	FROM crawl_runs
	WHERE category_id = ?
	ORDER BY timestamp DESC, id DESC
	`
	rows, err := j.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl runs: %w", err)
	}
	defer rows.Close()

	var runs []CrawlRun
	for rows.Next() {
		var run CrawlRun
		var timestamp string
		if err := rows.Scan(&run.ID, &run.CategoryID, &run.Name, &run.Forums, &run.Topics,
			&run.TotalCnt, &run.AliveCnt, &run.TotalBytes, &run.AliveBytes, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}
		run.Timestamp = parseTimestamp(timestamp)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordDownload appends a downloaded torrent.
func (j *Journal) RecordDownload(ctx context.Context, entry model.DownloadEntry) error {
	query := `
	INSERT INTO downloads (user, download_id, topic_id, filename, bytes, timestamp)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		entry.User,
		entry.DownloadID,
		entry.TopicID,
		entry.Filename,
		entry.Bytes,
		formatTimestamp(entry.At),
	)
	if err != nil {
		return fmt.Errorf("failed to record download %d: %w", entry.DownloadID, err)
	}
	return nil
}

// ListDownloads returns the most recent downloads of user, newest first.
// A limit of zero or less returns every row.
func (j *Journal) ListDownloads(ctx context.Context, user string, limit int) ([]model.DownloadEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as no limit
	}
	query := `
	SELECT user, download_id, topic_id, filename, bytes, timestamp
	FROM downloads
	WHERE user = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`
	rows, err := j.db.QueryContext(ctx, query, user, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var entries []model.DownloadEntry
	for rows.Next() {
		var entry model.DownloadEntry
		var timestamp string
		if err := rows.Scan(&entry.User, &entry.DownloadID, &entry.TopicID,
			&entry.Filename, &entry.Bytes, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		entry.At = parseTimestamp(timestamp)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// timestampLayout sorts lexically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats accepted when reading rows.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
