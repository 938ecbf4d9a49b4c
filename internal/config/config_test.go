package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Store.Path != defaultStorePath {
		t.Errorf("got %q", cfg.Store.Path)
	}
	if cfg.Ingest.SessionRoot != defaultSessionRoot {
		t.Errorf("got %q", cfg.Ingest.SessionRoot)
	}
	if cfg.Search.DefaultLimit != 20 || cfg.Search.SnippetTokens != 32 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
}

func TestLoadFile_MissingIsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Path != defaultStorePath {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFile_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory-nexus.toml")
	content := `
[store]
path = "/tmp/custom.db"
quick_integrity_check = false

[search]
default_limit = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Path != "/tmp/custom.db" {
		t.Errorf("got %q", cfg.Store.Path)
	}
	if cfg.Store.QuickIntegrityCheck {
		t.Error("expected quick_integrity_check=false to be honored")
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Ingest.SessionRoot != defaultSessionRoot {
		t.Errorf("expected unset field to keep default, got %q", cfg.Ingest.SessionRoot)
	}
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv(envStorePath, "/env/store.db")
	t.Setenv(envSessionRoot, "/env/sessions")

	cfg := New().OverlayEnv()
	if cfg.Store.Path != "/env/store.db" {
		t.Errorf("got %q", cfg.Store.Path)
	}
	if cfg.Ingest.SessionRoot != "/env/sessions" {
		t.Errorf("got %q", cfg.Ingest.SessionRoot)
	}
}

func TestExpandPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	cfg := New()
	if err := cfg.ExpandPaths(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.IsAbs(cfg.Store.Path) == false {
		t.Errorf("expected expanded absolute path, got %q", cfg.Store.Path)
	}
	_ = home
}
