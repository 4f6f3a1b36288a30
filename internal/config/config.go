package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	APIBind string `toml:"api_bind"`
}

// Indexer contains configuration for the indexer gateway.
type Indexer struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Categories []int  `toml:"categories"`
	Timeout    int    `toml:"timeout"`
}

// DownloadClient contains configuration for the download client adapter.
type DownloadClient struct {
	BaseURL         string `toml:"base_url"`
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	DefaultCategory string `toml:"default_category"`
	SavePath        string `toml:"save_path"`
	Timeout         int    `toml:"timeout"`
	DryRun          bool   `toml:"dry_run"`
}

// Metadata contains configuration for the game metadata provider.
type Metadata struct {
	BaseURL  string `toml:"base_url"`
	ClientID string `toml:"client_id"`
	APIKey   string `toml:"api_key"`
	Timeout  int    `toml:"timeout"`
}

// Steam contains configuration for importing installed Steam games during scans.
type Steam struct {
	Enabled bool   `toml:"enabled"`
	Root    string `toml:"root"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	ReconcileInterval   int `toml:"reconcile_interval"`
	UpdateCheckInterval int `toml:"update_check_interval"`
}

// Updates contains update detection configuration.
type Updates struct {
	DefaultPolicy string `toml:"default_policy"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	Grabs              bool   `toml:"grabs"`
	Downloads          bool   `toml:"downloads"`
	Updates            bool   `toml:"updates"`
	Errors             bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Ludo.
//
// Configuration sections by subsystem:
//   - Paths: data directory and API bind address
//   - Indexer: release search gateway connection
//   - DownloadClient: transfer client connection and dry-run mode
//   - Metadata: game metadata provider connection
//   - Steam: installed Steam game import
//   - Workflow: reconcile and update-check intervals
//   - Updates: detection defaults
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths          Paths          `toml:"paths"`
	Indexer        Indexer        `toml:"indexer"`
	DownloadClient DownloadClient `toml:"download_client"`
	Metadata       Metadata       `toml:"metadata"`
	Steam          Steam          `toml:"steam"`
	Workflow       Workflow       `toml:"workflow"`
	Updates        Updates        `toml:"updates"`
	Notifications  Notifications  `toml:"notifications"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ludo/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The boolean reports whether an
// existing file was read (false means defaults were used).
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the embedded sample configuration to path, creating parent
// directories as needed. Existing files are never overwritten.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Paths.DataDir == "" {
		return errors.New("data_dir is not configured")
	}
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// DatabasePath returns the location of the SQLite database inside the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "ludo.db")
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Steam.Root != "" {
		if c.Steam.Root, err = expandPath(c.Steam.Root); err != nil {
			return err
		}
	}
	c.Indexer.BaseURL = strings.TrimRight(strings.TrimSpace(c.Indexer.BaseURL), "/")
	c.DownloadClient.BaseURL = strings.TrimRight(strings.TrimSpace(c.DownloadClient.BaseURL), "/")
	c.Metadata.BaseURL = strings.TrimRight(strings.TrimSpace(c.Metadata.BaseURL), "/")
	c.Updates.DefaultPolicy = strings.ToLower(strings.TrimSpace(c.Updates.DefaultPolicy))
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
