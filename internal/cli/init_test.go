package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conti/internal/config"
)

func TestSetupLoggerWritesToFile(t *testing.T) {
	var stdout bytes.Buffer
	path := filepath.Join(t.TempDir(), "conti.log")

	logger, closeLog, err := SetupLogger(&stdout, "debug", path, "tui")
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello", "k", "v")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "hello") || !strings.Contains(string(b), "component=tui") {
		t.Fatalf("unexpected log file contents: %q", b)
	}
	if stdout.Len() != 0 {
		t.Fatalf("nothing should reach the terminal, got %q", stdout.String())
	}
}

func TestSetupLoggerLevel(t *testing.T) {
	var out bytes.Buffer
	logger, _, err := SetupLogger(&out, "warn", "", "worker")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(out.String(), "quiet") || !strings.Contains(out.String(), "loud") {
		t.Fatalf("level not applied: %q", out.String())
	}

	if _, _, err := SetupLogger(&out, "info", "/non/existent/dir/x.log", "app"); err == nil {
		t.Fatal("expected error for an unwritable log file")
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "bogus")
	if _, err := LoadAndValidateConfig(nil); err == nil {
		t.Fatal("expected validation error")
	}

	t.Setenv("DATA_BACKEND", "memory")
	cfg, err := LoadAndValidateConfig(func(c *config.Config) error { return nil })
	if err != nil || cfg.DataBackend != "memory" {
		t.Fatalf("unexpected result %+v, %v", cfg, err)
	}
}
