// ABOUTME: Moody configuration management with backend selection.
// ABOUTME: Reads a JSON file and MOODY_* environment overrides through viper.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/harperreed/moody/internal/storage"
)

const (
	// BackendSQLite stores data in a single SQLite file.
	BackendSQLite = "sqlite"
	// BackendBadger stores data in a Badger key-value directory.
	BackendBadger = "badger"

	defaultOwner = "local"
)

// Config stores moody tool configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "badger".
	Backend string `json:"backend,omitempty" mapstructure:"backend"`

	// DataDir is the root directory for data storage.
	// SQLite puts moody.db here. Badger puts its files under kv/.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/moody.
	DataDir string `json:"data_dir,omitempty" mapstructure:"data_dir"`

	// Owner scopes every read and write. Defaults to $USER, then "local".
	Owner string `json:"owner,omitempty" mapstructure:"owner"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return strings.ToLower(c.Backend)
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetOwner returns the configured owner, falling back to the login name.
func (c *Config) GetOwner() string {
	if c.Owner != "" {
		return c.Owner
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return defaultOwner
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// StoragePath returns where the configured backend keeps its data.
func (c *Config) StoragePath() string {
	if c.GetBackend() == BackendBadger {
		return filepath.Join(c.GetDataDir(), "kv")
	}
	return filepath.Join(c.GetDataDir(), "moody.db")
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage(opts ...storage.Option) (storage.Repository, error) {
	return OpenBackend(c.GetBackend(), c.GetDataDir(), opts...)
}

// OpenBackend opens the named backend rooted at dataDir.
func OpenBackend(backend, dataDir string, opts ...storage.Option) (storage.Repository, error) {
	switch backend {
	case BackendSQLite:
		return storage.Open(filepath.Join(dataDir, "moody.db"), opts...)
	case BackendBadger:
		return storage.OpenKV(filepath.Join(dataDir, "kv"), opts...)
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "moody", "config.json")
}

// Load reads config from disk, then applies MOODY_BACKEND, MOODY_DATA_DIR
// and MOODY_OWNER. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("backend", "")
	v.SetDefault("data_dir", "")
	v.SetDefault("owner", "")

	v.SetConfigFile(GetConfigPath())
	v.SetConfigType("json")
	v.SetEnvPrefix("moody")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
