package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/nnmdl/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()
	output := cmd.Flags().Lookup("output")
	if output == nil || output.Shorthand != "o" || output.DefValue != config.DefaultConfigFile {
		t.Errorf("unexpected output flag %+v", output)
	}
	force := cmd.Flags().Lookup("force")
	if force == nil || force.Shorthand != "f" || force.DefValue != "false" {
		t.Errorf("unexpected force flag %+v", force)
	}
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes a loadable template", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		out, _, err := run(t, "init", "-o", path)
		if err != nil {
			t.Fatalf("init error = %v", err)
		}
		if !strings.Contains(out, path) {
			t.Errorf("output does not name the file: %s", out)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("config not written: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}

		cf, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		if len(cf.Accounts) != 1 || cf.Accounts[0].Username == "" {
			t.Errorf("template accounts = %+v", cf.Accounts)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".nnmdl")
		if err := os.WriteFile(path, []byte("accounts: []\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, _, err := run(t, "init", "-o", path); err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected already exists error, got %v", err)
		}

		if _, _, err := run(t, "init", "-o", path, "-f"); err != nil {
			t.Fatalf("forced init error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "nnmdl configuration file") {
			t.Error("file was not overwritten with the template")
		}
	})
}
