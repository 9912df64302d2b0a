package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the config file.
const (
	EnvAPIURL   = "LDX_API_URL"
	EnvToken    = "LDX_TOKEN"
	EnvDatabase = "LDX_DATABASE"
	EnvLogLevel = "LDX_LOG_LEVEL"
	EnvConfig   = "LDX_CONFIG"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API           APIConfig          `toml:"api"`
	Auth          AuthConfig         `toml:"auth"`
	Database      DatabaseConfig     `toml:"database"`
	Collection    CollectionConfig   `toml:"collection"`
	Scanner       ScannerConfig      `toml:"scanner"`
	Server        ServerConfig       `toml:"server"`
	Notifications NotificationConfig `toml:"notifications"`
	Log           LogConfig          `toml:"log"`
}

// APIConfig points the client at the LDDB backend.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// AuthConfig holds an optional preset access token.
type AuthConfig struct {
	Token string `toml:"token"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CollectionConfig contains listing defaults.
type CollectionConfig struct {
	PageSize  int     `toml:"page_size"`
	SortBy    string  `toml:"sort_by"`
	SortOrder string  `toml:"sort_order"`
	Filter    string  `toml:"filter"`
	BulkRate  float64 `toml:"bulk_rate"`
}

// ScannerConfig configures the decoding engine and the camera constraints handed to it.
type ScannerConfig struct {
	Engine              string   `toml:"engine"`
	Device              string   `toml:"device"`
	FramesDir           string   `toml:"frames_dir"`
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	LookupDelayMS       int      `toml:"lookup_delay_ms"`
	Readers             []string `toml:"readers"`
	Width               int      `toml:"width"`
	Height              int      `toml:"height"`
	FacingMode          string   `toml:"facing_mode"`
	Workers             int      `toml:"workers"`
	Frequency           int      `toml:"frequency"`
	Locate              bool     `toml:"locate"`
	OverlayPath         string   `toml:"overlay_path"`
}

// LookupDelay returns the pause between an accepted detection and the lookup.
func (s ScannerConfig) LookupDelay() time.Duration {
	return time.Duration(s.LookupDelayMS) * time.Millisecond
}

// ServerConfig contains HTTP server settings for the remote scan endpoint.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// NotificationConfig controls transient notifications.
type NotificationConfig struct {
	TTLMS int `toml:"ttl_ms"`
}

// TTL returns how long a notification stays visible.
func (n NotificationConfig) TTL() time.Duration {
	return time.Duration(n.TTLMS) * time.Millisecond
}

// LogConfig sets the log level and the TUI log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.Collection.PageSize < 1 || c.Collection.PageSize > 100 {
		return fmt.Errorf("%w: collection.page_size must be between 1 and 100", ErrInvalidConfig)
	}
	if c.Scanner.ConfidenceThreshold < 0 || c.Scanner.ConfidenceThreshold > 100 {
		return fmt.Errorf("%w: scanner.confidence_threshold must be between 0 and 100", ErrInvalidConfig)
	}
	if c.Scanner.LookupDelayMS < 0 {
		return fmt.Errorf("%w: scanner.lookup_delay_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadEnv reads a .env file when present and applies LDX_* overrides to the config.
func (c *Config) LoadEnv(files ...string) {
	_ = godotenv.Load(files...)

	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Auth.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabase)); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// ResolveConfig loads path when it exists, otherwise the defaults, then applies env overrides.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}
	config.LoadEnv()
	return config, nil
}
