package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"PORT", "VIDFETCH_CONFIG", "VIDFETCH_TEMP_DIR", "VIDFETCH_LOG_LEVEL", "VIDFETCH_PROFILE"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "vidfetch ") {
		t.Fatalf("output = %q", out)
	}
}

func TestSweepCommand(t *testing.T) {
	base := t.TempDir()
	stale := filepath.Join(base, uuid.New().String())
	if err := os.Mkdir(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	fresh := filepath.Join(base, uuid.New().String())
	if err := os.Mkdir(fresh, 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "sweep", "--temp-dir", base, "--log-level", "error")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "Removed 1 stale workspace(s)") {
		t.Fatalf("output = %q", out)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale workspace survived: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh workspace removed: %v", err)
	}
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := runCLI(t, "sweep", "--config", filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigFileIsUsed(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "jobs")
	path := filepath.Join(dir, "vidfetch.toml")
	content := "temp_dir = " + `"` + filepath.ToSlash(base) + `"` + "\nlog_level = \"error\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "sweep", "--config", path)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "Removed 0 stale workspace(s)") {
		t.Fatalf("output = %q", out)
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		t.Fatalf("temp dir from config not created: %v", err)
	}
}

func TestInfoRequiresURL(t *testing.T) {
	if _, err := runCLI(t, "info"); err == nil {
		t.Fatal("expected argument error")
	}
}
