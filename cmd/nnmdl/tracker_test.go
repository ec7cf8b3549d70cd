package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/nnmdl/internal/history"
	"github.com/nao1215/nnmdl/internal/pipeline"
)

const trackerLoginForm = `<html><body><form action="login.php" method="post">
<input type="hidden" name="redirect" value="index.php">
<input type="hidden" name="code" value="58a1fbe1">
<input type="submit" name="login" value="Вход">
</form></body></html>`

// fakeTracker serves one category with one forum of two downloadable topics.
type fakeTracker struct {
	mu        sync.Mutex
	downloads map[string]int
}

func newFakeTracker(t *testing.T) (*fakeTracker, *httptest.Server) {
	t.Helper()

	tracker := &fakeTracker{downloads: map[string]int{}}
	srv := httptest.NewServer(tracker)
	t.Cleanup(srv.Close)
	return tracker, srv
}

func (f *fakeTracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	q := r.URL.Query()
	switch {
	case r.URL.Path == "/forum/login.php" && r.Method == http.MethodGet:
		fmt.Fprint(w, trackerLoginForm)
	case r.URL.Path == "/forum/login.php" && r.Method == http.MethodPost:
		_ = r.ParseForm()
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret" {
			fmt.Fprint(w, `<html><body><a class="mainmenu" href="login.php">Вход</a></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><a class="mainmenu" href="login.php?logout=true">Выход [ alice ]</a></body></html>`)
	case r.URL.Path == "/forum/index.php" && q.Get("c") == "14":
		fmt.Fprint(w, `<html><body><table>
<tr onclick="CFIG_slideCat('14', false);"><td>Video</td></tr>
<tr><td class="row1"><h3 class="forumlink"><a href="viewforum.php?f=100">Films</a></h3></td><td class="row2">2</td></tr>
</table></body></html>`)
	case r.URL.Path == "/forum/index.php":
		fmt.Fprint(w, `<html><body><table></table></body></html>`)
	case r.URL.Path == "/forum/viewforum.php" && q.Get("f") == "100":
		fmt.Fprint(w, `<html><body><table>`+trackerTopic("1", 11, 3)+trackerTopic("2", 12, 0)+`</table></body></html>`)
	case r.URL.Path == "/forum/download.php":
		id := q.Get("id")
		f.mu.Lock()
		f.downloads[id]++
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/x-bittorrent")
		w.Header().Set("Content-Disposition", `attachment; filename="t`+id+`.torrent"`)
		fmt.Fprint(w, "d8:announce0:e")
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeTracker) downloadCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads[id]
}

func trackerTopic(id string, dl, seeds int) string {
	return fmt.Sprintf(`<tr><td class="row1"><span class="tDL">[DL]</span><h2 class="topictitle"><a href="viewtopic.php?t=%s">Topic %s</a></h2></td>`+
		`<td class="row2"><span class="seedmed">%d</span><a href="download.php?id=%d">1 kB</a></td></tr>`, id, id, seeds, dl)
}

// trackerConfig writes a configuration pointing at srv and returns the
// global flags for it.
func trackerConfig(t *testing.T, srv *httptest.Server, password string) (flags []string, workDir, dataDir string) {
	t.Helper()

	dir := t.TempDir()
	workDir = filepath.Join(dir, "work")
	dataDir = filepath.Join(dir, "data")
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`baseURL: "%s/forum/"
waitTimeout: 1ms
retryTimeout: 1ms
accounts:
  - username: alice
    password: %q
`, srv.URL, password))
	return []string{"-c", cfgPath, "--work-dir", workDir, "--data-dir", dataDir}, workDir, dataDir
}

func TestUpdateAndDownload(t *testing.T) {
	t.Parallel()

	tracker, srv := newFakeTracker(t)
	flags, workDir, dataDir := trackerConfig(t, srv, "secret")

	out, _, err := run(t, append([]string{"update", "14"}, flags...)...)
	if err != nil {
		t.Fatalf("update error = %v", err)
	}
	if !strings.Contains(out, " |— Films (100)") {
		t.Errorf("update did not print the report:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(workDir, "cat_14_stats.txt")); err != nil {
		t.Errorf("stats file not written: %v", err)
	}
	snapshots, err := history.Open(dataDir, snapshotsFile)
	if err != nil {
		t.Fatal(err)
	}
	if !snapshots.HasItem(pipeline.SnapshotNamespace, "14") {
		t.Fatal("snapshot not persisted")
	}

	out, _, err = run(t, append([]string{"download", "14", "100"}, flags...)...)
	if err != nil {
		t.Fatalf("download error = %v", err)
	}
	if !strings.Contains(out, "queued 2, skipped 0, downloaded 2, failed 0") {
		t.Errorf("unexpected summary: %s", out)
	}
	for _, name := range []string{"t11.torrent", "t12.torrent"} {
		if _, err := os.Stat(filepath.Join(workDir, name)); err != nil {
			t.Errorf("%s not saved: %v", name, err)
		}
	}

	out, _, err = run(t, append([]string{"download", "14", "14"}, flags...)...)
	if err != nil {
		t.Fatalf("second download error = %v", err)
	}
	if !strings.Contains(out, "queued 2, skipped 2, downloaded 0, failed 0") {
		t.Errorf("second run must skip everything: %s", out)
	}
	if tracker.downloadCount("11") != 1 || tracker.downloadCount("12") != 1 {
		t.Errorf("payloads fetched %d and %d times, want once each", tracker.downloadCount("11"), tracker.downloadCount("12"))
	}

	out, _, err = run(t, append([]string{"journal", "--downloads", "alice"}, flags...)...)
	if err != nil {
		t.Fatalf("journal error = %v", err)
	}
	if !strings.Contains(out, "t11.torrent") {
		t.Errorf("journal misses download:\n%s", out)
	}
}

func TestUpdate_FailedLoginKeepsSnapshot(t *testing.T) {
	t.Parallel()

	_, srv := newFakeTracker(t)
	flags, _, dataDir := trackerConfig(t, srv, "wrong")

	_, _, err := run(t, append([]string{"update", "14"}, flags...)...)
	if err == nil || !strings.Contains(err.Error(), "alice") {
		t.Fatalf("expected login failure naming the account, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, snapshotsFile)); err == nil {
		t.Error("a failed login must not write a snapshot")
	}
}

func TestUpdate_UnknownCategory(t *testing.T) {
	t.Parallel()

	_, srv := newFakeTracker(t)
	flags, _, _ := trackerConfig(t, srv, "secret")

	if _, _, err := run(t, append([]string{"update", "99"}, flags...)...); err == nil {
		t.Fatal("expected error for empty category page")
	}
}
