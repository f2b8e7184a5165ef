package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config contains the program configuration
type Config struct {
	Endpoint               string `yaml:"endpoint"`
	Port                   int    `yaml:"port"`
	Verbose                bool   `yaml:"verbose"`
	RequestTimeoutSeconds  int    `yaml:"request_timeout_seconds"`
	UpstreamTimeoutSeconds int    `yaml:"upstream_timeout_seconds"`
	CopyRevertMillis       int    `yaml:"copy_revert_ms"`
	SessionIdleMinutes     int    `yaml:"session_idle_minutes"`
	ParallelJobs           int    `yaml:"parallel_jobs"`
	RedisURL               string `yaml:"redis_url"`
	CachePath              string `yaml:"cache_path"`
	SentryDSN              string `yaml:"sentry_dsn"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:               "http://localhost:8080",
		Port:                   8080,
		RequestTimeoutSeconds:  10,
		UpstreamTimeoutSeconds: 8,
		CopyRevertMillis:       2000,
		SessionIdleMinutes:     30,
		ParallelJobs:           4,
	}
}

// RequestTimeout is the client-side timeout for one lyrics request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// UpstreamTimeout bounds each call the server makes to the lyric provider.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// CopyRevertDelay is how long the copy control keeps its "copied" look.
func (c Config) CopyRevertDelay() time.Duration {
	return time.Duration(c.CopyRevertMillis) * time.Millisecond
}

// SessionIdle is how long a browser session may stay silent before it is closed.
func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.CachePath = ExpandHome(cfg.CachePath)

	return cfg, nil
}

// Load reads the config file and then applies environment overrides,
// including any variables found in a .env file in the working directory.
func Load(path string) (Config, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return cfg, err
	}
	_ = godotenv.Load()
	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyEnv overrides fields from the process environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("LYRICS_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("LYRICS_CACHE_PATH"); v != "" {
		cfg.CachePath = ExpandHome(v)
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.SentryDSN = v
	}
	if os.Getenv("LYRICS_VERBOSE") == "true" {
		cfg.Verbose = true
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./lyricfetch.yaml",
		"./lyricfetch.yml",
		filepath.Join(home, ".config", "lyricfetch", "config.yaml"),
		filepath.Join(home, ".config", "lyricfetch", "config.yml"),
		filepath.Join(home, ".lyricfetch.yaml"),
		filepath.Join(home, ".lyricfetch.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "lyricfetch", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "lyricfetch", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an http:// or https:// URL, got %q", c.Endpoint)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be at least 1, got %d", c.RequestTimeoutSeconds)
	}
	if c.UpstreamTimeoutSeconds < 1 {
		return fmt.Errorf("upstream_timeout_seconds must be at least 1, got %d", c.UpstreamTimeoutSeconds)
	}
	if c.CopyRevertMillis < 1 {
		return fmt.Errorf("copy_revert_ms must be positive, got %d", c.CopyRevertMillis)
	}
	if c.SessionIdleMinutes < 1 {
		return fmt.Errorf("session_idle_minutes must be at least 1, got %d", c.SessionIdleMinutes)
	}

	if c.ParallelJobs < 1 || c.ParallelJobs > 10 {
		return fmt.Errorf("parallel_jobs must be between 1 and 10, got %d", c.ParallelJobs)
	}

	if c.RedisURL != "" && c.CachePath != "" {
		return fmt.Errorf("redis_url and cache_path are mutually exclusive")
	}

	return nil
}
