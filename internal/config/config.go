// Package config loads spacesync settings from defaults, an optional YAML
// file and SPACESYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"spacesync/internal/application"
)

const (
	EnvPrefix         = "SPACESYNC"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 5
	DefaultLogLevel   = "info"
)

// Config holds the resolved settings for one invocation
type Config struct {
	BaseURL    string
	Email      string
	APIToken   string
	WorkDir    string
	Timeout    time.Duration
	MaxRetries int
	LogLevel   string
	LogFile    string

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/spacesync/config.yaml
func DefaultConfigFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "spacesync", "config.yaml")
}

// Load resolves the configuration. An explicit configFile must exist;
// the default file is optional.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", "")
	v.SetDefault("email", "")
	v.SetDefault("api_token", "")
	v.SetDefault("work_dir", ".")
	v.SetDefault("timeout_seconds", int(DefaultTimeout/time.Second))
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")

	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			switch {
			case explicit:
				return nil, &application.ConfigError{Key: "config", Reason: fmt.Sprintf("cannot read %s: %v", configFile, err)}
			case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
				configFile = ""
			default:
				return nil, &application.ConfigError{Key: "config", Reason: fmt.Sprintf("cannot read %s: %v", configFile, err)}
			}
		}
	}

	timeout := v.GetInt("timeout_seconds")
	if timeout <= 0 {
		return nil, &application.ConfigError{Key: "timeout_seconds", Reason: "must be positive"}
	}
	retries := v.GetInt("max_retries")
	if retries < 0 {
		return nil, &application.ConfigError{Key: "max_retries", Reason: "must not be negative"}
	}

	return &Config{
		BaseURL:    strings.TrimRight(v.GetString("base_url"), "/"),
		Email:      v.GetString("email"),
		APIToken:   v.GetString("api_token"),
		WorkDir:    v.GetString("work_dir"),
		Timeout:    time.Duration(timeout) * time.Second,
		MaxRetries: retries,
		LogLevel:   v.GetString("log_level"),
		LogFile:    v.GetString("log_file"),
		ConfigFile: configFile,
	}, nil
}

// Validate checks that the remote is configured
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &application.ConfigError{Key: "base_url", Reason: "not set (SPACESYNC_BASE_URL)"}
	}
	if !strings.HasPrefix(c.BaseURL, "https://") && !strings.HasPrefix(c.BaseURL, "http://") {
		return &application.ConfigError{Key: "base_url", Reason: "must be an http(s) URL"}
	}
	if c.Email == "" {
		return &application.ConfigError{Key: "email", Reason: "not set (SPACESYNC_EMAIL)"}
	}
	if c.APIToken == "" {
		return &application.ConfigError{Key: "api_token", Reason: "not set (SPACESYNC_API_TOKEN)"}
	}
	return nil
}
