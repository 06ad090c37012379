package internal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specsmith/specsmith/internal"
	"github.com/specsmith/specsmith/testutil"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	cfg, err := internal.LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config should not be an error: %v", err)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should default")
	}
	if cfg.Models.Default != "gpt-4o-mini" {
		t.Errorf("default model = %q", cfg.Models.Default)
	}
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "config.yaml")

	content := `data_dir: /tmp/specsmith-test
provider:
  api_key: test-key
  base_url: https://example.com/v1
models:
  default: gpt-4o
  strong: o3
reject_abandoned_writes: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DataDir != "/tmp/specsmith-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Provider.APIKey != "test-key" || cfg.Provider.BaseURL != "https://example.com/v1" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Models.Default != "gpt-4o" || cfg.Models.Strong != "o3" {
		t.Errorf("models = %+v", cfg.Models)
	}
	if !cfg.RejectAbandonedWrites {
		t.Error("RejectAbandonedWrites should be set")
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{ unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := internal.LoadConfig(path); err == nil {
		t.Error("malformed config should be an error")
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := &internal.Config{DataDir: "/data/specsmith"}
	if got := cfg.DatabasePath(); got != filepath.Join("/data/specsmith", "specsmith.db") {
		t.Errorf("DatabasePath = %q", got)
	}
	if got := cfg.CacheDir(); got != filepath.Join("/data/specsmith", "cache") {
		t.Errorf("CacheDir = %q", got)
	}
}

func TestLoadConfig_EnvKeyFallback(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	t.Setenv("SPECSMITH_API_KEY", "env-key")

	cfg, err := internal.LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.Provider.APIKey)
	}
}
