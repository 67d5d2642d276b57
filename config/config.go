package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for folio.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Import  ImportConfig  `yaml:"import"`
	Search  SearchConfig  `yaml:"search"`
	Library LibraryConfig `yaml:"library"`
}

// ScanConfig holds epub ingestion configuration.
type ScanConfig struct {
	Includes    []string `yaml:"includes"`
	Excludes    []string `yaml:"excludes"`
	ReadWorkers int      `yaml:"read_workers"`
	BatchSize   int      `yaml:"batch_size"`
}

// ImportConfig holds archive import configuration.
type ImportConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// SearchConfig holds story search configuration.
type SearchConfig struct {
	Limit           int `yaml:"limit"`
	CacheSize       int `yaml:"cache_size"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// LibraryConfig holds data location configuration.
type LibraryConfig struct {
	Dir string `yaml:"dir"` // overrides the default ~/.folio
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Includes:    []string{"**/*.epub"},
			Excludes:    []string{},
			ReadWorkers: 4,
			BatchSize:   8,
		},
		Import: ImportConfig{
			BatchSize: 1000,
		},
		Search: SearchConfig{
			Limit:           50,
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for folio.yaml,
// then for the shared config in the data directory).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "folio.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	if home, err := os.UserHomeDir(); err == nil {
		path = filepath.Join(home, ".folio", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir returns the directory holding the library database and the
// search catalog.
func (c *Config) DataDir() (string, error) {
	if c.Library.Dir != "" {
		return c.Library.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".folio"), nil
}

// CacheTTL returns the search cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLSeconds) * time.Second
}

// LibraryDBPath returns the path to the library database.
func LibraryDBPath(dataDir string) string {
	return filepath.Join(dataDir, "library.db")
}

// CatalogPath returns the path to the story search index.
func CatalogPath(dataDir string) string {
	return filepath.Join(dataDir, "catalog.bleve")
}

// EnsureDataDir ensures the data directory exists.
func EnsureDataDir(dataDir string) error {
	return os.MkdirAll(dataDir, 0755)
}
