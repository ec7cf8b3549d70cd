package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/nnmdl/internal/database"
	"github.com/nao1215/nnmdl/internal/model"
)

func TestJournalCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "accounts: []\n")

	journal, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	category := &model.Category{ID: "14", Name: "Video", Forums: []*model.Forum{{
		ID: "100", Topics: []model.Topic{{ID: "1", DownloadID: 11, Alive: true, Bytes: 2048}},
	}}}
	category.Aggregate()
	ctx := context.Background()
	if _, err := journal.RecordCrawl(ctx, category, time.Now()); err != nil {
		t.Fatal(err)
	}
	entry := model.DownloadEntry{User: "alice", DownloadID: 11, TopicID: "1", Filename: "one.torrent", Bytes: 2048}
	if err := journal.RecordDownload(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if err := journal.Close(); err != nil {
		t.Fatal(err)
	}
	base := []string{"-c", cfgPath, "--data-dir", dir}

	t.Run("crawl history", func(t *testing.T) {
		t.Parallel()

		out, _, err := run(t, append([]string{"journal", "14"}, base...)...)
		if err != nil {
			t.Fatalf("journal error = %v", err)
		}
		if !strings.Contains(out, "Crawl history of category 14") || !strings.Contains(out, "Video") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("downloads of user", func(t *testing.T) {
		t.Parallel()

		out, _, err := run(t, append([]string{"journal", "--downloads", "alice"}, base...)...)
		if err != nil {
			t.Fatalf("journal error = %v", err)
		}
		if !strings.Contains(out, "one.torrent") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("needs exactly one target", func(t *testing.T) {
		t.Parallel()

		for _, args := range [][]string{
			{"journal"},
			{"journal", "14", "--downloads", "alice"},
		} {
			if _, _, err := run(t, append(args, base...)...); !errors.Is(err, errJournalTarget) {
				t.Errorf("%v: expected errJournalTarget, got %v", args, err)
			}
		}
	})
}
