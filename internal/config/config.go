package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Installation modes
const (
	ModeUpdate       = "update"
	ModeFreshInstall = "fresh_install"
)

// Config represents the entire launcher configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" yaml:"app"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// AppConfig describes the managed installation and its release feed
type AppConfig struct {
	CurrentVersion   string   `mapstructure:"current_version" yaml:"current_version"`
	GithubRepo       string   `mapstructure:"github_repo" yaml:"github_repo"`
	UpdateCheckURL   string   `mapstructure:"update_check_url" yaml:"update_check_url"`
	InstallationPath string   `mapstructure:"installation_path" yaml:"installation_path"`
	ExeName          string   `mapstructure:"exe_name" yaml:"exe_name"`
	PreserveFolders  []string `mapstructure:"preserve_folders" yaml:"preserve_folders"`
	InstallationMode string   `mapstructure:"installation_mode" yaml:"installation_mode"`
	AutoCheck        bool     `mapstructure:"auto_check" yaml:"auto_check"`
	LastCheck        string   `mapstructure:"last_check" yaml:"last_check"`
}

// CacheConfig contains download cache settings
type CacheConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	IndexPath string `mapstructure:"index_path" yaml:"index_path"`
}

// DownloadConfig contains transfer and retry settings
type DownloadConfig struct {
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	BackoffBase    string `mapstructure:"backoff_base" yaml:"backoff_base"`
	BackoffMax     string `mapstructure:"backoff_max" yaml:"backoff_max"`
	ChunkTimeout   string `mapstructure:"chunk_timeout" yaml:"chunk_timeout"`
	MinFreeSpaceMB int    `mapstructure:"min_free_space_mb" yaml:"min_free_space_mb"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load loads configuration from the specified file path.
// A missing file is not an error: defaults are written out and returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg := defaultConfig(v)
		if err := Save(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.UpdateCheckURL == "" && cfg.App.GithubRepo != "" {
		cfg.App.UpdateCheckURL = fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", cfg.App.GithubRepo)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration back to disk.
func Save(cfg *Config, configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.current_version", "0.0.0")
	v.SetDefault("app.installation_mode", ModeUpdate)
	v.SetDefault("app.auto_check", true)
	v.SetDefault("app.preserve_folders", []string{})
	v.SetDefault("cache.dir", "update_cache")
	v.SetDefault("cache.index_path", "")
	v.SetDefault("download.max_retries", 5)
	v.SetDefault("download.backoff_base", "1s")
	v.SetDefault("download.backoff_max", "30s")
	v.SetDefault("download.chunk_timeout", "30s")
	v.SetDefault("download.min_free_space_mb", 100)
	v.SetDefault("download.user_agent", defaultUserAgent)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func defaultConfig(v *viper.Viper) *Config {
	var cfg Config
	// Defaults are all valid, so Unmarshal over an empty file cannot fail.
	_ = v.Unmarshal(&cfg)
	cfg.App.LastCheck = time.Now().UTC().Format(time.RFC3339)
	return &cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.InstallationMode {
	case ModeUpdate, ModeFreshInstall:
	default:
		return fmt.Errorf("invalid app.installation_mode: %s", c.App.InstallationMode)
	}

	if c.Download.MaxRetries < 0 {
		return fmt.Errorf("download.max_retries must not be negative")
	}
	if _, err := time.ParseDuration(c.Download.BackoffBase); err != nil {
		return fmt.Errorf("invalid download.backoff_base: %w", err)
	}
	if _, err := time.ParseDuration(c.Download.BackoffMax); err != nil {
		return fmt.Errorf("invalid download.backoff_max: %w", err)
	}
	if _, err := time.ParseDuration(c.Download.ChunkTimeout); err != nil {
		return fmt.Errorf("invalid download.chunk_timeout: %w", err)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetBackoffBase returns the retry backoff base as time.Duration
func (c *DownloadConfig) GetBackoffBase() time.Duration {
	d, _ := time.ParseDuration(c.BackoffBase)
	if d == 0 {
		return time.Second
	}
	return d
}

// GetBackoffMax returns the retry backoff cap as time.Duration
func (c *DownloadConfig) GetBackoffMax() time.Duration {
	d, _ := time.ParseDuration(c.BackoffMax)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetChunkTimeout returns the per-chunk read timeout as time.Duration
func (c *DownloadConfig) GetChunkTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ChunkTimeout)
	if d < 30*time.Second {
		return 30 * time.Second
	}
	return d
}

// GetMinFreeSpace returns the free space floor in bytes
func (c *DownloadConfig) GetMinFreeSpace() int64 {
	if c.MinFreeSpaceMB <= 0 {
		return 100 * 1024 * 1024
	}
	return int64(c.MinFreeSpaceMB) * 1024 * 1024
}

// ValidateInstallationPath checks that path is usable for the given mode.
// In update mode the target executable must already be present.
func ValidateInstallationPath(path, exeName, mode string) error {
	if path == "" {
		return fmt.Errorf("installation path is not configured")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("installation directory not found: %s", path)
		}
		return fmt.Errorf("failed to inspect installation path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid installation path, not a directory: %s", path)
	}

	// Probe write permissions with a throwaway file.
	probe := filepath.Join(path, ".write_test")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("cannot write to installation directory: %w", err)
	}
	f.Close()
	os.Remove(probe)

	if mode == ModeUpdate && exeName != "" {
		exePath := filepath.Join(path, exeName)
		if _, err := os.Stat(exePath); os.IsNotExist(err) {
			return fmt.Errorf("no such file in installation directory: %s", exeName)
		}
	}

	return nil
}
