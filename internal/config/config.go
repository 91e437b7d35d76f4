// Package config loads vidfetch settings from defaults, an optional TOML
// file, and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "vidfetch.toml"

// Profiles lists the accepted transcoding profile names.
var Profiles = []string{"merge", "convert", "reencode", "mobile"}

// Config holds all application configuration.
type Config struct {
	Listen  string `toml:"listen"`
	TempDir string `toml:"temp_dir"`

	YtDlpPath      string `toml:"ytdlp_path"`
	FFmpegLocation string `toml:"ffmpeg_location"`
	Profile        string `toml:"profile"`

	InfoTimeoutSeconds           int `toml:"info_timeout_seconds"`
	SocketTimeoutSeconds         int `toml:"socket_timeout_seconds"`
	DownloadTimeoutSeconds       int `toml:"download_timeout_seconds"`
	DownloadSocketTimeoutSeconds int `toml:"download_socket_timeout_seconds"`
	Retries                      int `toml:"retries"`

	ThumbnailTimeoutSeconds int    `toml:"thumbnail_timeout_seconds"`
	UserAgent               string `toml:"user_agent"`
	ProxyThumbnails         bool   `toml:"proxy_thumbnails"`
	OGThumbnailFallback     bool   `toml:"og_thumbnail_fallback"`

	ChunkSize int `toml:"chunk_size"`

	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`

	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
	SweepMaxAgeSeconds   int `toml:"sweep_max_age_seconds"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:                       ":5000",
		TempDir:                      "temp_downloads",
		Profile:                      "convert",
		InfoTimeoutSeconds:           60,
		SocketTimeoutSeconds:         15,
		DownloadTimeoutSeconds:       30 * 60,
		DownloadSocketTimeoutSeconds: 20,
		Retries:                      3,
		ThumbnailTimeoutSeconds:      10,
		UserAgent:                    "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0",
		ChunkSize:                    8 * 1024,
		RateLimit:                    2,
		RateBurst:                    10,
		SweepIntervalSeconds:         10 * 60,
		SweepMaxAgeSeconds:           6 * 60 * 60,
		LogLevel:                     "info",
		LogFormat:                    "auto",
	}
}

// Load reads the config file at path (or the default locations when path is
// empty), applies environment overrides and validates the result. A missing
// default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("VIDFETCH_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. PORT is honoured for
// platforms that assign the listen port.
func (c *Config) ApplyEnv() error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("PORT must be numeric, got %q", port)
		}
		c.Listen = ":" + port
	}
	overrides := map[string]*string{
		"VIDFETCH_LISTEN":     &c.Listen,
		"VIDFETCH_TEMP_DIR":   &c.TempDir,
		"VIDFETCH_YTDLP":      &c.YtDlpPath,
		"VIDFETCH_FFMPEG":     &c.FFmpegLocation,
		"VIDFETCH_PROFILE":    &c.Profile,
		"VIDFETCH_LOG_LEVEL":  &c.LogLevel,
		"VIDFETCH_LOG_FORMAT": &c.LogFormat,
	}
	for key, field := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*field = v
		}
	}
	return nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("listen address cannot be empty")
	}
	if strings.TrimSpace(c.TempDir) == "" {
		return errors.New("temp_dir cannot be empty")
	}
	// Profile names are matched case-insensitively downstream.
	c.Profile = strings.ToLower(strings.TrimSpace(c.Profile))
	if !validProfile(c.Profile) {
		return fmt.Errorf("unsupported profile %q (valid: %s)", c.Profile, strings.Join(Profiles, ", "))
	}
	positive := map[string]int{
		"info_timeout_seconds":            c.InfoTimeoutSeconds,
		"socket_timeout_seconds":          c.SocketTimeoutSeconds,
		"download_timeout_seconds":        c.DownloadTimeoutSeconds,
		"download_socket_timeout_seconds": c.DownloadSocketTimeoutSeconds,
		"thumbnail_timeout_seconds":       c.ThumbnailTimeoutSeconds,
		"chunk_size":                      c.ChunkSize,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, v)
		}
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", c.Retries)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 when rate_limit is set, got %d", c.RateBurst)
	}
	if c.SweepIntervalSeconds < 0 || c.SweepMaxAgeSeconds < 0 {
		return errors.New("sweep settings cannot be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("unsupported log_format %q (valid: auto, text, json)", c.LogFormat)
	}
	return nil
}

func validProfile(name string) bool {
	for _, p := range Profiles {
		if p == name {
			return true
		}
	}
	return false
}

// TempDirAbs resolves the temp directory to an absolute path.
func (c *Config) TempDirAbs() (string, error) {
	return filepath.Abs(c.TempDir)
}

// InfoTimeout is the deadline for one metadata extraction.
func (c *Config) InfoTimeout() time.Duration {
	return time.Duration(c.InfoTimeoutSeconds) * time.Second
}

// DownloadTimeout is the deadline for one download and conversion.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// ThumbnailTimeout is the deadline for one thumbnail fetch.
func (c *Config) ThumbnailTimeout() time.Duration {
	return time.Duration(c.ThumbnailTimeoutSeconds) * time.Second
}

// SweepInterval is the janitor period; zero disables periodic sweeps.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// SweepMaxAge is the age after which an unlocked workspace is orphaned.
func (c *Config) SweepMaxAge() time.Duration {
	return time.Duration(c.SweepMaxAgeSeconds) * time.Second
}
