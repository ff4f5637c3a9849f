package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Telegram struct {
		Token          string `yaml:"-"`
		PollTimeoutSec int    `yaml:"poll_timeout_sec"`
	} `yaml:"telegram"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Whisper struct {
		Python  string `yaml:"python"`
		Threads int    `yaml:"threads"`
	} `yaml:"whisper"`

	FFmpeg struct {
		Bin string `yaml:"bin"`
	} `yaml:"ffmpeg"`

	Storage struct {
		TempDir string `yaml:"temp_dir"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxVideoSizeMB    int `yaml:"max_video_size_mb"`
		InlineCharLimit   int `yaml:"inline_char_limit"`
		JobTimeoutMinutes int `yaml:"job_timeout_minutes"`
	} `yaml:"limits"`
}

// Load reads the YAML config file, applies environment overrides, and
// validates the result. The bot token is only ever read from the
// environment, never from the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Storage.TempDir = envString("BOT_TEMP_DIR", cfg.Storage.TempDir)
	cfg.Server.Host = envString("BOT_SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = envInt("BOT_SERVER_PORT", cfg.Server.Port)
	cfg.Limits.MaxVideoSizeMB = envInt("BOT_MAX_VIDEO_SIZE_MB", cfg.Limits.MaxVideoSizeMB)
	cfg.Limits.JobTimeoutMinutes = envInt("BOT_JOB_TIMEOUT_MINUTES", cfg.Limits.JobTimeoutMinutes)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Telegram.PollTimeoutSec = 30
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8090
	cfg.Whisper.Python = "python"
	cfg.Whisper.Threads = 4
	cfg.FFmpeg.Bin = "ffmpeg"
	cfg.Storage.TempDir = "temp"
	cfg.Cleanup.IntervalMinutes = 30
	cfg.Cleanup.MaxAgeHours = 6
	cfg.Limits.MaxVideoSizeMB = 50
	cfg.Limits.InlineCharLimit = 4096
	cfg.Limits.JobTimeoutMinutes = 0
	return cfg
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Limits.MaxVideoSizeMB <= 0 {
		return fmt.Errorf("limits.max_video_size_mb must be positive, got %d", c.Limits.MaxVideoSizeMB)
	}
	if c.Limits.InlineCharLimit <= 0 {
		return fmt.Errorf("limits.inline_char_limit must be positive, got %d", c.Limits.InlineCharLimit)
	}
	if c.Storage.TempDir == "" {
		return fmt.Errorf("storage.temp_dir is required")
	}
	return nil
}

// MaxVideoBytes returns the size ceiling in bytes.
func (c *Config) MaxVideoBytes() int64 {
	return int64(c.Limits.MaxVideoSizeMB) * 1024 * 1024
}

// JobTimeout returns the optional wall-clock ceiling per job, zero when disabled.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Limits.JobTimeoutMinutes) * time.Minute
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
