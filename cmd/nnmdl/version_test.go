package main

import (
	"strings"
	"testing"
)

func TestVersionGetters(t *testing.T) {
	t.Parallel()

	for name, got := range map[string]string{
		"version": getVersion(),
		"commit":  getCommit(),
		"date":    getDate(),
	} {
		if got == "" {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"nnmdl version ", "commit:", "built:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}
