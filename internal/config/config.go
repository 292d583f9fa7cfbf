package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Google struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"google"`

	Storage struct {
		Backend   string `yaml:"backend"` // gcs or local
		Bucket    string `yaml:"bucket"`
		LocalDir  string `yaml:"local_dir"`
		PublicURL string `yaml:"public_url"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Recognition struct {
		Language            string `yaml:"language"`
		TimeoutSeconds      int    `yaml:"timeout_seconds"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	} `yaml:"recognition"`

	Workers struct {
		Count     int `yaml:"count"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"workers"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

// Default returns the configuration used for any value a file leaves unset
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.Host = "0.0.0.0"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Storage.Backend = "gcs"
	cfg.Storage.Bucket = "Awesome Bucket"
	cfg.Storage.LocalDir = "data/blobs"
	cfg.Storage.Database = "data/transcripts.db"
	cfg.Recognition.Language = "en-US"
	cfg.Recognition.TimeoutSeconds = 90
	cfg.Recognition.PollIntervalSeconds = 2
	cfg.Workers.Count = 2
	cfg.Workers.QueueSize = 100
	cfg.Cleanup.IntervalMinutes = 60
	cfg.Cleanup.MaxAgeHours = 24
	cfg.GoogleDrive.CredentialsFile = "config/drive_credentials.json"
	cfg.GoogleDrive.TokenFile = "config/drive_token.json"
	cfg.GoogleDrive.FolderName = "Transcripts"
	cfg.Limits.MaxFileSizeMB = 100
	return cfg
}

// Load reads .env (if present), the YAML file at path (if present) on top of
// the defaults, then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BUCKET_NAME"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: invalid value %q", v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("RECOGNITION_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RECOGNITION_TIMEOUT_SECONDS: invalid value %q", v)
		}
		c.Recognition.TimeoutSeconds = secs
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case "gcs":
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("storage.bucket is required for the gcs backend")
		}
	case "local":
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.local_dir is required for the local backend")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range %d", c.Server.Port)
	}
	if c.Recognition.TimeoutSeconds <= 0 {
		return errors.New("recognition.timeout_seconds must be positive")
	}
	if c.Recognition.PollIntervalSeconds <= 0 {
		return errors.New("recognition.poll_interval_seconds must be positive")
	}
	if c.Workers.Count <= 0 {
		return errors.New("workers.count must be positive")
	}
	if c.Limits.MaxFileSizeMB <= 0 {
		return errors.New("limits.max_file_size_mb must be positive")
	}
	return nil
}

// RecognitionTimeout returns the per-request recognition wait budget
func (c *Config) RecognitionTimeout() time.Duration {
	return time.Duration(c.Recognition.TimeoutSeconds) * time.Second
}

// PollInterval returns how often pending operations are polled
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Recognition.PollIntervalSeconds) * time.Second
}

// MaxFileSize returns the upload limit in bytes
func (c *Config) MaxFileSize() int {
	return c.Limits.MaxFileSizeMB * 1024 * 1024
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
