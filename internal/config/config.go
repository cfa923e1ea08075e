// Package config provides configuration management for coursemirror.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\coursemirror\config
//   - Unix: ~/.config/coursemirror/config
//
// INI format:
//
//	[server]
//	base_url = https://courses.example.edu/api
//	access_token = <token>
//
//	[sync]
//	root_dir = /home/user/Courses
//	preserve_modified = true
//	refresh_threshold_seconds = 0
//	workers = 0
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	no_proxy =
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/ini.v1"
)

// ServerConfig holds the course-server connection settings.
type ServerConfig struct {
	// BaseURL is the REST API root, without trailing slash.
	BaseURL string `ini:"base_url"`

	// AccessToken is the bearer token obtained by the credential flow.
	// It is cleared when the server reports it invalid.
	AccessToken string `ini:"access_token"`
}

// SyncConfig holds the local mirror settings.
type SyncConfig struct {
	// RootDir is the local directory the tree is materialized into.
	RootDir string `ini:"root_dir"`

	// PreserveModified renames a superseded local file to a versioned
	// backup name instead of overwriting it.
	PreserveModified bool `ini:"preserve_modified"`

	// RefreshThresholdSeconds skips the incremental refresh of a course
	// whose cursor is younger than this. 0 refreshes every eligible course.
	RefreshThresholdSeconds int64 `ini:"refresh_threshold_seconds"`

	// Workers is the worker pool size. 0 means available parallelism.
	Workers int `ini:"workers"`
}

// ProxyConfig holds outbound proxy settings. The password is never written
// to disk; it is supplied per run via flag or environment.
type ProxyConfig struct {
	Mode     string `ini:"mode"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	NoProxy  string `ini:"no_proxy"`
	Password string `ini:"-"`
}

// Config is the whole persisted configuration.
type Config struct {
	Server ServerConfig
	Sync   SyncConfig
	Proxy  ProxyConfig
}

// Validation errors
var (
	ErrMissingBaseURL = errors.New("server base_url is required")
	ErrMissingToken   = errors.New("server access_token is required (run the credential flow first)")
	ErrMissingRootDir = errors.New("sync root_dir is required")
)

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Sync: SyncConfig{
			PreserveModified: true,
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
	}
}

// DefaultDir returns the coursemirror configuration directory.
func DefaultDir() (string, error) {
	var base string
	if runtime.GOOS == "windows" {
		base = os.Getenv("USERPROFILE")
		if base == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = home
	}
	return filepath.Join(base, ".config", "coursemirror"), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config"), nil
}

// DefaultSnapshotPath returns the default tree snapshot path, next to the
// config file.
func DefaultSnapshotPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "documents.json"), nil
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := New()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := file.Section("server").MapTo(&cfg.Server); err != nil {
		return nil, fmt.Errorf("invalid [server] section: %w", err)
	}
	if err := file.Section("sync").MapTo(&cfg.Sync); err != nil {
		return nil, fmt.Errorf("invalid [sync] section: %w", err)
	}
	if err := file.Section("proxy").MapTo(&cfg.Proxy); err != nil {
		return nil, fmt.Errorf("invalid [proxy] section: %w", err)
	}

	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := ini.Empty()
	if err := file.Section("server").ReflectFrom(&c.Server); err != nil {
		return fmt.Errorf("failed to encode [server] section: %w", err)
	}
	if err := file.Section("sync").ReflectFrom(&c.Sync); err != nil {
		return fmt.Errorf("failed to encode [sync] section: %w", err)
	}
	if err := file.Section("proxy").ReflectFrom(&c.Proxy); err != nil {
		return fmt.Errorf("failed to encode [proxy] section: %w", err)
	}

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config %s: %w", path, err)
	}
	// The token lives in this file.
	return os.Chmod(path, 0o600)
}

// Validate checks that a sync run can proceed with this config.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Server.AccessToken == "" {
		return ErrMissingToken
	}
	if c.Sync.RootDir == "" {
		return ErrMissingRootDir
	}
	return nil
}
