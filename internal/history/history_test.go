package history

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty document", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "data")
		s, err := Open(dir, "history.json")
		if err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		if len(s.Category("anything")) != 0 {
			t.Error("expected empty category")
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected directory to be created: %v", err)
		}
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "history.json"), []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(dir, "history.json"); err == nil {
			t.Fatal("expected error for corrupt history")
		}
	})
}

func TestGetItem(t *testing.T) {
	t.Parallel()

	t.Run("inserts default when absent", func(t *testing.T) {
		t.Parallel()

		s, err := Open(t.TempDir(), "history.json")
		if err != nil {
			t.Fatal(err)
		}

		got, err := GetItem(s, "downloads", "alice", []int64{7})
		if err != nil {
			t.Fatalf("GetItem() error: %v", err)
		}
		if !reflect.DeepEqual(got, []int64{7}) {
			t.Errorf("GetItem() = %v, want [7]", got)
		}
		if !s.HasItem("downloads", "alice") {
			t.Error("expected default to be stored")
		}
	})

	t.Run("returns existing value", func(t *testing.T) {
		t.Parallel()

		s, err := Open(t.TempDir(), "history.json")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SetItem("downloads", "bob", []int64{1, 2, 3}); err != nil {
			t.Fatal(err)
		}

		got, err := GetItem(s, "downloads", "bob", []int64{})
		if err != nil {
			t.Fatalf("GetItem() error: %v", err)
		}
		if !reflect.DeepEqual(got, []int64{1, 2, 3}) {
			t.Errorf("GetItem() = %v", got)
		}
	})

	t.Run("type mismatch is an error", func(t *testing.T) {
		t.Parallel()

		s, err := Open(t.TempDir(), "history.json")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SetItem("downloads", "carol", "not a list"); err != nil {
			t.Fatal(err)
		}
		if _, err := GetItem(s, "downloads", "carol", []int64{}); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("first save creates the file and reloads", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, "history.json")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SetItem("struct", "101", map[string]string{"name": "Видео"}); err != nil {
			t.Fatal(err)
		}
		if err := s.Save(); err != nil {
			t.Fatalf("Save() error: %v", err)
		}

		reloaded, err := Open(dir, "history.json")
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		got, err := GetItem(reloaded, "struct", "101", map[string]string{})
		if err != nil {
			t.Fatal(err)
		}
		if got["name"] != "Видео" {
			t.Errorf("reloaded value = %v", got)
		}
		assertNoTemporaries(t, dir)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, "history.json")
		if err != nil {
			t.Fatal(err)
		}
		for _, ids := range [][]int64{{1}, {1, 2}} {
			if err := s.SetItem("downloads", "alice", ids); err != nil {
				t.Fatal(err)
			}
			if err := s.Save(); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
		}

		reloaded, err := Open(dir, "history.json")
		if err != nil {
			t.Fatal(err)
		}
		got, err := GetItem(reloaded, "downloads", "alice", []int64{})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []int64{1, 2}) {
			t.Errorf("reloaded = %v", got)
		}
	})

	t.Run("crash before rename keeps previous document", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, "history.json")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SetItem("downloads", "alice", []int64{42}); err != nil {
			t.Fatal(err)
		}
		if err := s.Save(); err != nil {
			t.Fatal(err)
		}
		before, err := os.ReadFile(s.Path())
		if err != nil {
			t.Fatal(err)
		}

		errCrash := errors.New("simulated crash")
		s.rename = func(string, string) error { return errCrash }
		if err := s.SetItem("downloads", "alice", []int64{42, 43}); err != nil {
			t.Fatal(err)
		}

		err = s.Save()
		if !errors.Is(err, errCrash) {
			t.Fatalf("Save() error = %v, want simulated crash", err)
		}

		after, err := os.ReadFile(s.Path())
		if err != nil {
			t.Fatalf("canonical file missing after failed save: %v", err)
		}
		if string(after) != string(before) {
			t.Errorf("canonical file changed: %s -> %s", before, after)
		}
		assertNoTemporaries(t, dir)
	})

	t.Run("unwritable directory is an error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		s, err := Open(dir, "history.json")
		if err != nil {
			t.Fatal(err)
		}
		s.dir = filepath.Join(dir, "does-not-exist")
		if err := s.Save(); err == nil {
			t.Error("expected error when temporary file cannot be created")
		}
	})
}

func assertNoTemporaries(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "tmp_*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}
