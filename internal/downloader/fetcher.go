package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/encoding/charmap"

	"github.com/nao1215/nnmdl/internal/httpclient"
	"github.com/nao1215/nnmdl/internal/model"
	"github.com/nao1215/nnmdl/internal/naming"
)

const (
	downloadPage = "download.php"
	topicPage    = "viewtopic.php"
)

// rawFilename matches filenames that mime.ParseMediaType rejects, such as
// unescaped 8-bit names.
var rawFilename = regexp.MustCompile(`filename="([^"]*)"`)

// Download describes a saved payload.
type Download struct {
	Filename string
	Path     string
	Bytes    int64
}

// Fetcher downloads the payload of a topic.
type Fetcher interface {
	Fetch(ctx context.Context, topic model.Topic) (*Download, error)
}

// TorrentFetcher saves .torrent files of topics into a directory.
type TorrentFetcher struct {
	client *httpclient.Client
	dir    string
	logger *slog.Logger
}

// NewTorrentFetcher creates a TorrentFetcher writing into dir.
func NewTorrentFetcher(client *httpclient.Client, dir string, logger *slog.Logger) *TorrentFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TorrentFetcher{client: client, dir: dir, logger: logger}
}

// Fetch downloads the torrent of topic.
func (f *TorrentFetcher) Fetch(ctx context.Context, topic model.Topic) (*Download, error) {
	req := httpclient.Get(downloadPage,
		url.Values{"id": {strconv.FormatInt(topic.DownloadID, 10)}},
		topicPage+"?t="+url.QueryEscape(topic.ID),
	)
	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	name, err := Filename(resp.Header.Get("Content-Disposition"))
	if err != nil {
		return nil, fmt.Errorf("download %d: %w", topic.DownloadID, err)
	}

	path, n, err := SaveStream(resp.Body, f.dir, name)
	if err != nil {
		return nil, fmt.Errorf("download %d: %w", topic.DownloadID, err)
	}
	f.logger.Info("downloaded",
		"topic", topic.ID,
		"download", topic.DownloadID,
		"file", filepath.Base(path),
		"size", humanize.IBytes(uint64(n)), //nolint:gosec // n is a byte count
	)
	return &Download{Filename: filepath.Base(path), Path: path, Bytes: n}, nil
}

// Filename extracts the file name from a Content-Disposition header. Names
// that are not valid UTF-8 are decoded as windows-1251.
func Filename(disposition string) (string, error) {
	if disposition == "" {
		return "", ErrNoFilename
	}

	var name string
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		name = params["filename"]
	}
	if name == "" || strings.ContainsRune(name, utf8.RuneError) {
		if m := rawFilename.FindStringSubmatch(disposition); m != nil {
			name = m[1]
		}
	}
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrNoFilename, disposition)
	}

	if !utf8.ValidString(name) {
		decoded, err := charmap.Windows1251.NewDecoder().String(name)
		if err != nil {
			return "", fmt.Errorf("failed to decode filename: %w", err)
		}
		name = decoded
	}
	return name, nil
}

// SaveStream writes r into dir under the normalized form of name and
// returns the final path and the number of bytes written. A partial file is
// removed when the copy fails.
func SaveStream(r io.Reader, dir, name string) (string, int64, error) {
	name = filepath.Base(naming.Normalize(name))
	if name == "" || name == "." {
		return "", 0, fmt.Errorf("%w: empty name", ErrNoFilename)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path) //nolint:gosec // path is built from a normalized base name
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := io.Copy(file, r)
	if err == nil {
		err = file.Close()
	} else {
		_ = file.Close()
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, n, nil
}
