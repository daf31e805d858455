package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadDefault(t *testing.T) {
	cfg := Load("/nonexistent/path")
	opts := cfg.FormatOptions()
	if opts.TabSize != 2 || opts.UseTabs || !opts.InsertFinalNewline {
		t.Errorf("unexpected default format options %+v", opts)
	}
	if cfg.EffectiveMaxWorkers() != runtime.NumCPU() {
		t.Errorf("expected %d workers, got %d", runtime.NumCPU(), cfg.EffectiveMaxWorkers())
	}
	if !cfg.EffectiveWatch() {
		t.Error("expected watch enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
format:
  tab_size: 4
  use_tabs: true
  insert_final_newline: false
index:
  exclude_paths:
    - generated
  max_workers: 3
  schedule: "@every 10m"
watch:
  enabled: false
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Load(dir)
	opts := cfg.FormatOptions()
	if opts.TabSize != 4 || !opts.UseTabs || opts.InsertFinalNewline {
		t.Errorf("unexpected format options %+v", opts)
	}
	if cfg.EffectiveMaxWorkers() != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.EffectiveMaxWorkers())
	}
	if len(cfg.Index.ExcludePaths) != 1 || cfg.Index.ExcludePaths[0] != "generated" {
		t.Errorf("unexpected exclude paths %v", cfg.Index.ExcludePaths)
	}
	if cfg.Index.Schedule != "@every 10m" {
		t.Errorf("unexpected schedule %q", cfg.Index.Schedule)
	}
	if cfg.EffectiveWatch() {
		t.Error("expected watch disabled")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("format: [tab_size: yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Load(dir)
	if cfg.FormatOptions().TabSize != 2 {
		t.Errorf("expected default on invalid yaml, got %d", cfg.FormatOptions().TabSize)
	}
}
