package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config describes the application level configuration loaded from json.
type Config struct {
	XMLDBDir string      `json:"xmldb_dir"`
	Workers  int         `json:"workers"`
	Thumb    ThumbConfig `json:"thumb"`
	S3       S3Config    `json:"s3"`
}

// ThumbConfig holds the options for thumbnail fetching and caching.
type ThumbConfig struct {
	BaseURL  string `json:"base_url"`
	CacheDir string `json:"cache_dir"`
	DBPath   string `json:"db_path"`
}

// S3Config holds the options for accessing the object store used by the
// mirror command.
type S3Config struct {
	Host            string `json:"host"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token"`
	ForcePathStyle  bool   `json:"force_path_style"`
}

// Default returns the configuration used when no config file exists: index
// the sibling xmldb directory with one worker per CPU.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. If none of the paths contain a
// readable config, an error is returned.
func LoadFirst(paths ...string) (*Config, error) {
	var lastErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("config not found in paths: %v", paths)
	}
	return nil, lastErr
}

// Load reads configuration from a single json file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.XMLDBDir == "" {
		c.XMLDBDir = "xmldb"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Thumb.BaseURL == "" {
		c.Thumb.BaseURL = "https://raw.githubusercontent.com/libretro-thumbnails"
	}
	if c.Thumb.CacheDir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			c.Thumb.CacheDir = filepath.Join(base, "romdex", "thumbs")
		} else {
			c.Thumb.CacheDir = "thumbs"
		}
	}
}

// ValidateS3 checks the fields required by commands that talk to the object
// store.
func (c *Config) ValidateS3() error {
	if c.S3.Host == "" {
		return errors.New("config.s3.host must be set")
	}
	if c.S3.Bucket == "" {
		return errors.New("config.s3.bucket must be set")
	}
	return nil
}

var defaultConfig = Default()

// SetDefault assigns the process wide configuration.
func SetDefault(cfg *Config) {
	if cfg != nil {
		defaultConfig = cfg
	}
}

// Get returns the process wide configuration.
func Get() *Config {
	return defaultConfig
}
