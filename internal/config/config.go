package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

const envPrefix = "MOVIEDECK"

// Config holds all application configuration
type Config struct {
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Discover DiscoverConfig `mapstructure:"discover"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TMDBConfig holds API access settings
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Language     string `mapstructure:"language"`
	Region       string `mapstructure:"region"` // default region when the filter has none
}

// CacheConfig holds image cache settings
type CacheConfig struct {
	Dir             string        `mapstructure:"dir"`
	MemoryEntries   int           `mapstructure:"memory_entries"`
	MemoryBytes     int64         `mapstructure:"memory_bytes"`
	MissingCooldown time.Duration `mapstructure:"missing_cooldown"`
}

// DiscoverConfig holds discover deck settings
type DiscoverConfig struct {
	Threshold    int           `mapstructure:"threshold"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Language:     "en-US",
		},
		Cache: CacheConfig{
			Dir:             defaultCachePath(),
			MemoryEntries:   200,
			MemoryBytes:     64 << 20,
			MissingCooldown: 5 * time.Minute,
		},
		Discover: DiscoverConfig{
			Threshold:    10,
			FetchTimeout: 20 * time.Second,
		},
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviedeck", "moviedeck.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "moviedeck", "moviedeck.log")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviedeck")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "moviedeck")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "moviedeck", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "moviedeck", "cache")
	}
}

// newViper registers every key with its default so env overrides apply
// even when the config file omits them.
func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("tmdb.api_key", defaults.TMDB.APIKey)
	v.SetDefault("tmdb.base_url", defaults.TMDB.BaseURL)
	v.SetDefault("tmdb.image_base_url", defaults.TMDB.ImageBaseURL)
	v.SetDefault("tmdb.language", defaults.TMDB.Language)
	v.SetDefault("tmdb.region", defaults.TMDB.Region)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("cache.memory_entries", defaults.Cache.MemoryEntries)
	v.SetDefault("cache.memory_bytes", defaults.Cache.MemoryBytes)
	v.SetDefault("cache.missing_cooldown", defaults.Cache.MissingCooldown)
	v.SetDefault("discover.threshold", defaults.Discover.Threshold)
	v.SetDefault("discover.fetch_timeout", defaults.Discover.FetchTimeout)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Environment variable overrides (MOVIEDECK_TMDB_API_KEY, ...)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from dir (the default config dir when empty)
// and the environment. A missing file is not an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := DefaultConfig()
	v := newViper(cfg)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// The conventional TMDB variable works too
	if cfg.TMDB.APIKey == "" {
		cfg.TMDB.APIKey = strings.TrimSpace(os.Getenv("TMDB_API_KEY"))
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	return cfg, cfg.Validate()
}

// Save writes cfg to dir/config.yaml (the default config dir when empty)
func Save(cfg *Config, dir string) error {
	if dir == "" {
		dir = DefaultConfigDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("tmdb.api_key", cfg.TMDB.APIKey)
	v.Set("tmdb.base_url", cfg.TMDB.BaseURL)
	v.Set("tmdb.image_base_url", cfg.TMDB.ImageBaseURL)
	v.Set("tmdb.language", cfg.TMDB.Language)
	v.Set("tmdb.region", cfg.TMDB.Region)

	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.memory_entries", cfg.Cache.MemoryEntries)
	v.Set("cache.memory_bytes", cfg.Cache.MemoryBytes)
	v.Set("cache.missing_cooldown", cfg.Cache.MissingCooldown.String())

	v.Set("discover.threshold", cfg.Discover.Threshold)
	v.Set("discover.fetch_timeout", cfg.Discover.FetchTimeout.String())

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.Set("logging.max_backups", cfg.Logging.MaxBackups)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// The file holds the API key
	if err := os.Chmod(configFile, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	switch {
	case c.Cache.MemoryEntries < 0:
		return errors.New("cache.memory_entries must not be negative")
	case c.Cache.MemoryBytes < 0:
		return errors.New("cache.memory_bytes must not be negative")
	case c.Discover.Threshold < 1:
		return errors.New("discover.threshold must be at least 1")
	case c.Discover.FetchTimeout <= 0:
		return errors.New("discover.fetch_timeout must be positive")
	}
	if _, err := language.Parse(c.TMDB.Language); err != nil {
		return fmt.Errorf("tmdb.language %q is not a language tag: %w", c.TMDB.Language, err)
	}
	if c.TMDB.Region != "" {
		if _, err := language.ParseRegion(strings.ToUpper(c.TMDB.Region)); err != nil {
			return fmt.Errorf("tmdb.region %q is not a region code: %w", c.TMDB.Region, err)
		}
	}
	return nil
}

// IsConfigured returns true if the TMDB API key is set
func (c *Config) IsConfigured() bool {
	return strings.TrimSpace(c.TMDB.APIKey) != ""
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
