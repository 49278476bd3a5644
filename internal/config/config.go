// Package config provides Viper-based configuration for the dashboard server and CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ECFRDASH_HTTP_ADDR.
const EnvPrefix = "ECFRDASH"

type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	DefaultTitle string        `mapstructure:"default_title"`
	HTTP         HTTPConfig    `mapstructure:"http"`
	Fetch        FetchConfig   `mapstructure:"fetch"`
	Journal      JournalConfig `mapstructure:"journal"`
	Log          LogConfig     `mapstructure:"log"`
}

// HTTPConfig configures the dashboard API listener.
type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// FetchConfig configures outbound eCFR requests.
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// JournalConfig configures the sqlite aggregate journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads, in increasing precedence: defaults, the config file
// (.ecfrdash.yaml in . or $HOME/.config/ecfrdash unless cfgFile is given),
// a .env file, and ECFRDASH_* environment variables.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".ecfrdash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ecfrdash")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by earlier deployments.
	_ = v.BindEnv("base_url", EnvPrefix+"_BASE_URL", "ECFR_BASE_URL")
	_ = v.BindEnv("http.addr", EnvPrefix+"_HTTP_ADDR", "ADDR")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://www.ecfr.gov")
	v.SetDefault("default_title", "1")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_header_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("fetch.timeout", 120*time.Second)
	v.SetDefault("fetch.rate_per_second", 5.0)
	v.SetDefault("fetch.burst", 4)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "./data/journal.sqlite")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: must be an absolute http(s) URL", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if strings.TrimSpace(c.DefaultTitle) == "" {
		return errors.New("default_title must not be empty")
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("invalid fetch.timeout %s: must be positive", c.Fetch.Timeout)
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("invalid fetch.rate_per_second %v: must not be negative", c.Fetch.RatePerSecond)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.path is required when the journal is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format: %s (must be json or console)", c.Log.Format)
	}
	return nil
}
