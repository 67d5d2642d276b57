package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Scan.Includes) != 1 || cfg.Scan.Includes[0] != "**/*.epub" {
		t.Errorf("expected default include **/*.epub, got %v", cfg.Scan.Includes)
	}
	if cfg.Scan.ReadWorkers != 4 {
		t.Errorf("expected ReadWorkers=4, got %d", cfg.Scan.ReadWorkers)
	}
	if cfg.Scan.BatchSize != 8 {
		t.Errorf("expected scan BatchSize=8, got %d", cfg.Scan.BatchSize)
	}
	if cfg.Import.BatchSize != 1000 {
		t.Errorf("expected import BatchSize=1000, got %d", cfg.Import.BatchSize)
	}
	if cfg.Search.Limit != 50 {
		t.Errorf("expected Limit=50, got %d", cfg.Search.Limit)
	}
	if cfg.Search.CacheSize != 100 {
		t.Errorf("expected CacheSize=100, got %d", cfg.Search.CacheSize)
	}
	if cfg.CacheTTL() != 5*time.Minute {
		t.Errorf("expected CacheTTL=5m, got %v", cfg.CacheTTL())
	}
	if cfg.Library.Dir != "" {
		t.Errorf("expected empty library dir, got %s", cfg.Library.Dir)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/folio.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Search.Limit != 50 {
		t.Errorf("expected default Limit=50, got %d", cfg.Search.Limit)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "folio.yaml")

	content := `
scan:
  includes:
    - "books/**/*.epub"
  read_workers: 8
search:
  limit: 20
library:
  dir: /srv/folio
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Scan.Includes) != 1 || cfg.Scan.Includes[0] != "books/**/*.epub" {
		t.Errorf("expected overridden includes, got %v", cfg.Scan.Includes)
	}
	if cfg.Scan.ReadWorkers != 8 {
		t.Errorf("expected ReadWorkers=8, got %d", cfg.Scan.ReadWorkers)
	}
	if cfg.Search.Limit != 20 {
		t.Errorf("expected Limit=20, got %d", cfg.Search.Limit)
	}
	if cfg.Library.Dir != "/srv/folio" {
		t.Errorf("expected Dir=/srv/folio, got %s", cfg.Library.Dir)
	}
	// Unset sections keep their defaults.
	if cfg.Scan.BatchSize != 8 {
		t.Errorf("expected default scan BatchSize=8, got %d", cfg.Scan.BatchSize)
	}
	if cfg.Import.BatchSize != 1000 {
		t.Errorf("expected default import BatchSize=1000, got %d", cfg.Import.BatchSize)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "folio.yaml")

	content := `
search:
  limit: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.Limit != 5 {
		t.Errorf("expected Limit=5, got %d", cfg.Search.Limit)
	}
}

func TestDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Library.Dir = "/srv/folio"

	dir, err := cfg.DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/srv/folio" {
		t.Errorf("expected /srv/folio, got %s", dir)
	}

	cfg.Library.Dir = ""
	dir, err = cfg.DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != ".folio" {
		t.Errorf("expected default dir under home, got %s", dir)
	}
}

func TestDataPaths(t *testing.T) {
	if path := LibraryDBPath("/data"); path != filepath.Join("/data", "library.db") {
		t.Errorf("unexpected library db path %s", path)
	}
	if path := CatalogPath("/data"); path != filepath.Join("/data", "catalog.bleve") {
		t.Errorf("unexpected catalog path %s", path)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "folio.yaml")

	cfg := DefaultConfig()
	cfg.Search.Limit = 7
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Search.Limit != 7 {
		t.Errorf("expected Limit=7 after reload, got %d", loaded.Search.Limit)
	}
}
