package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	var buf bytes.Buffer
	if err := run([]string{"-dir", dir, "-hosts", " localhost , ,10.0.0.1"}, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"ca.crt", "server.crt", "server.key"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	if !strings.Contains(buf.String(), "server.key") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRun_NoHosts(t *testing.T) {
	var buf bytes.Buffer
	if err := run([]string{"-dir", t.TempDir(), "-hosts", ","}, &buf); err == nil {
		t.Error("expected an error for an empty host list")
	}
}

func TestRun_BadFlag(t *testing.T) {
	var buf bytes.Buffer
	if err := run([]string{"-bogus"}, &buf); err == nil {
		t.Error("expected a flag error")
	}
}
