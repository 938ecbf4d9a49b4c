// Package config loads Memory-Nexus configuration: a TOML file with
// overridable defaults, plus two recognized environment-variable
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level programmatic configuration struct.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Ingest IngestConfig `toml:"ingest"`
	Search SearchConfig `toml:"search"`
}

// StoreConfig configures the embedded SQL store.
type StoreConfig struct {
	Path                string `toml:"path"`
	QuickIntegrityCheck bool   `toml:"quick_integrity_check"`
}

// IngestConfig configures session discovery.
type IngestConfig struct {
	SessionRoot string `toml:"session_root"`
}

// SearchConfig configures default query-layer behavior.
type SearchConfig struct {
	CaseSensitive bool `toml:"case_sensitive"`
	SnippetTokens int  `toml:"snippet_tokens"`
	DefaultLimit  int  `toml:"default_limit"`
}

// defaultStorePath and defaultSessionRoot are the documented defaults.
const (
	defaultStorePath   = "~/.memory-nexus/memory.db"
	defaultSessionRoot = "~/.claude/projects"
)

// New returns a Config populated with documented defaults.
func New() *Config {
	return &Config{
		Store: StoreConfig{
			Path:                defaultStorePath,
			QuickIntegrityCheck: true,
		},
		Ingest: IngestConfig{
			SessionRoot: defaultSessionRoot,
		},
		Search: SearchConfig{
			CaseSensitive: false,
			SnippetTokens: 32,
			DefaultLimit:  20,
		},
	}
}

// LoadFile loads configuration from a TOML file, overlaying it on New()'s
// defaults. A missing file is not an error — New() is returned unchanged.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// envStorePath and envSessionRoot are the recognized environment-variable
// overrides.
const (
	envStorePath   = "MEMORY_NEXUS_STORE_PATH"
	envSessionRoot = "MEMORY_NEXUS_SESSION_ROOT"
)

// OverlayEnv applies MEMORY_NEXUS_STORE_PATH / MEMORY_NEXUS_SESSION_ROOT on
// top of cfg when set, returning cfg for chaining.
func (c *Config) OverlayEnv() *Config {
	if v := os.Getenv(envStorePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(envSessionRoot); v != "" {
		c.Ingest.SessionRoot = v
	}
	return c
}

// ExpandPaths resolves a leading "~" in both path-like fields to the
// current user's home directory.
func (c *Config) ExpandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}
	c.Store.Path = expandHome(c.Store.Path, home)
	c.Ingest.SessionRoot = expandHome(c.Ingest.SessionRoot, home)
	return nil
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) >= 2 && path[:2] == "~/" {
		return filepath.Join(home, path[2:])
	}
	return path
}
