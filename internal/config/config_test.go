// ABOUTME: Tests for moody configuration management.
// ABOUTME: Covers load, save, env overrides, backend selection, and path expansion.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// isolate points config and env lookups at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MOODY_BACKEND", "")
	t.Setenv("MOODY_DATA_DIR", "")
	t.Setenv("MOODY_OWNER", "")
	return dir
}

func TestGetBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{"", "sqlite"},
		{"sqlite", "sqlite"},
		{"badger", "badger"},
		{"Badger", "badger"},
	}
	for _, tt := range tests {
		cfg := &Config{Backend: tt.backend}
		if got := cfg.GetBackend(); got != tt.want {
			t.Errorf("GetBackend(%q) = %q, want %q", tt.backend, got, tt.want)
		}
	}
}

func TestGetDataDirDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetDataDir(); got == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/moody-data"}
	got := cfg.GetDataDir()
	want := filepath.Join(home, "moody-data")
	if got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestGetOwner(t *testing.T) {
	t.Setenv("USER", "harper")
	if got := (&Config{}).GetOwner(); got != "harper" {
		t.Errorf("GetOwner() = %q, want $USER", got)
	}
	if got := (&Config{Owner: "alice"}).GetOwner(); got != "alice" {
		t.Errorf("GetOwner() = %q, want configured owner", got)
	}
	t.Setenv("USER", "")
	if got := (&Config{}).GetOwner(); got != "local" {
		t.Errorf("GetOwner() = %q, want local", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/moody", filepath.Join(home, "data/moody")},
		{"data/moody", "data/moody"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Backend != "" || cfg.DataDir != "" || cfg.Owner != "" {
		t.Errorf("Expected empty config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)

	cfg := &Config{Backend: "badger", DataDir: "/tmp/moody-data", Owner: "alice"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)

	if err := (&Config{Backend: "sqlite", Owner: "alice"}).Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	t.Setenv("MOODY_BACKEND", "badger")
	t.Setenv("MOODY_DATA_DIR", "/srv/moody")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Backend != "badger" {
		t.Errorf("Backend = %q, want env override", cfg.Backend)
	}
	if cfg.DataDir != "/srv/moody" {
		t.Errorf("DataDir = %q, want env override", cfg.DataDir)
	}
	if cfg.Owner != "alice" {
		t.Errorf("Owner = %q, want file value", cfg.Owner)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := isolate(t)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "nonexistent"))

	if err := (&Config{Backend: "sqlite"}).Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nonexistent", "moody")); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := isolate(t)

	configDir := filepath.Join(dir, "moody")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	dir := isolate(t)

	want := filepath.Join(dir, "moody", "config.json")
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorage(t *testing.T) {
	tests := []struct {
		backend string
		path    string
	}{
		{"", "moody.db"},
		{"sqlite", "moody.db"},
		{"badger", "kv"},
	}
	for _, tt := range tests {
		dir := t.TempDir()
		cfg := &Config{Backend: tt.backend, DataDir: dir}

		repo, err := cfg.OpenStorage()
		if err != nil {
			t.Fatalf("OpenStorage(%q) failed: %v", tt.backend, err)
		}
		if _, err := os.Stat(filepath.Join(dir, tt.path)); os.IsNotExist(err) {
			t.Errorf("Expected %s to be created for %q", tt.path, tt.backend)
		}
		if got := cfg.StoragePath(); got != filepath.Join(dir, tt.path) {
			t.Errorf("StoragePath() = %q", got)
		}
		if err := repo.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}
}

func TestOpenStorageInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "invalid", DataDir: t.TempDir()}
	if _, err := cfg.OpenStorage(); err == nil {
		t.Error("Expected error for invalid backend")
	}
}

func TestConfigJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Config{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected empty JSON object, got %s", string(data))
	}
}
