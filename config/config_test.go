package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generator.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", cfg.Generator.Model)
	}
	if cfg.Generator.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.Generator.MaxRetries)
	}
	if cfg.Generator.RetryDelaySeconds != 2 {
		t.Errorf("expected RetryDelaySeconds=2, got %d", cfg.Generator.RetryDelaySeconds)
	}
	if cfg.Cache.DirName != ".doctree" {
		t.Errorf("expected cache dir .doctree, got %s", cfg.Cache.DirName)
	}
	if cfg.Document.Name != "README.md" {
		t.Errorf("expected document README.md, got %s", cfg.Document.Name)
	}
	if cfg.Document.KeywordMinMatches != 2 {
		t.Errorf("expected KeywordMinMatches=2, got %d", cfg.Document.KeywordMinMatches)
	}
	if len(cfg.Scan.Includes) == 0 || len(cfg.Scan.Excludes) == 0 {
		t.Error("expected non-empty default scan patterns")
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/doctree.yaml")
	if err != nil {
		t.Errorf("expected defaults for a missing file, got error %v", err)
	}
	if cfg == nil || cfg.Generator.Model == "" {
		t.Error("expected default config, got nil or empty")
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "doctree.yaml")

	content := `
generator:
  model: llama3
  base_url: http://localhost:11434/v1
document:
  name: ARCHITECTURE.md
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Generator.Model != "llama3" {
		t.Errorf("expected model llama3, got %s", cfg.Generator.Model)
	}
	if cfg.Generator.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("expected local base URL, got %s", cfg.Generator.BaseURL)
	}
	if cfg.Document.Name != "ARCHITECTURE.md" {
		t.Errorf("expected document ARCHITECTURE.md, got %s", cfg.Document.Name)
	}
	// Untouched sections keep their defaults.
	if cfg.Cache.DirName != ".doctree" {
		t.Errorf("expected default cache dir, got %s", cfg.Cache.DirName)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Generator.Model != "gpt-4o-mini" {
		t.Error("expected defaults when no config file exists")
	}

	content := "generator:\n  model: custom\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "doctree.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err = LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Generator.Model != "custom" {
		t.Errorf("expected model custom, got %s", cfg.Generator.Model)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "doctree.yaml")

	cfg := DefaultConfig()
	cfg.Generator.Model = "saved-model"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Generator.Model != "saved-model" {
		t.Errorf("expected saved-model, got %s", loaded.Generator.Model)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}

	cfg.Generator.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty base URL")
	}

	cfg.Generator.BaseURL = "localhost:11434"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-HTTP base URL")
	}

	cfg = DefaultConfig()
	cfg.Generator.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestUpdateGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	gitignore := filepath.Join(tmpDir, ".gitignore")

	// Creates the file when absent.
	if err := cfg.UpdateGitignore(tmpDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(gitignore)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != ".doctree/\n" {
		t.Errorf("expected '.doctree/\\n', got %q", string(data))
	}

	// Idempotent on repeat.
	if err := cfg.UpdateGitignore(tmpDir); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(gitignore)
	if strings.Count(string(data), ".doctree/") != 1 {
		t.Errorf("expected a single entry, got %q", string(data))
	}

	// Appends to existing content without clobbering it.
	if err := os.WriteFile(gitignore, []byte("node_modules/"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.UpdateGitignore(tmpDir); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(gitignore)
	if string(data) != "node_modules/\n.doctree/\n" {
		t.Errorf("expected appended entry, got %q", string(data))
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.CacheDir("/proj"); got != filepath.Join("/proj", ".doctree") {
		t.Errorf("unexpected cache dir %s", got)
	}
	if got := cfg.CacheDBPath("/proj"); got != filepath.Join("/proj", ".doctree", "cache.db") {
		t.Errorf("unexpected cache db path %s", got)
	}
	if got := cfg.DocumentPath("/proj"); got != filepath.Join("/proj", "README.md") {
		t.Errorf("unexpected document path %s", got)
	}
}
