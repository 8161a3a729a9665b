// Package config loads application configuration from environment variables
// (prefix TAB) merged over an optional YAML file, then validates the result.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Upload   UploadConfig   `yaml:"upload" envconfig:"UPLOAD"`
	Session  SessionConfig  `yaml:"session" envconfig:"SESSION"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains CORS and rate limiting configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout stderr file"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/tabcli.log"`
}

// UploadConfig constrains dataset uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"10485760" validate:"min=1"`
	MaxRows  int   `yaml:"max_rows" envconfig:"MAX_ROWS" default:"100000" validate:"min=1"`
}

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl" envconfig:"TTL" default:"1h"`
	MaxSessions int           `yaml:"max_sessions" envconfig:"MAX_SESSIONS" default:"100" validate:"min=1"`
}

// Load builds the configuration: defaults and environment first, then the
// YAML file named by TAB_CONFIG_FILE (default config.yaml) when it exists,
// with environment values winning, then validation.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("TAB", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	configFile := os.Getenv("TAB_CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, flags, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config from file: %w", err)
		}
		merged := mergeConfigs(*fileCfg, flags, cfg)
		cfg = merged
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// fileFlags records which boolean settings the YAML file set explicitly.
// A decoded false is indistinguishable from an absent key, so these are
// probed separately with pointer fields.
type fileFlags struct {
	EnableCORS       *bool
	RateLimitEnabled *bool
}

func loadFromFile(path string) (*Config, fileFlags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileFlags{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fileFlags{}, err
	}

	var probe struct {
		Security struct {
			EnableCORS *bool `yaml:"enable_cors"`
			RateLimit  struct {
				Enabled *bool `yaml:"enabled"`
			} `yaml:"rate_limit"`
		} `yaml:"security"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fileFlags{}, err
	}
	flags := fileFlags{
		EnableCORS:       probe.Security.EnableCORS,
		RateLimitEnabled: probe.Security.RateLimit.Enabled,
	}
	return &cfg, flags, nil
}

// mergeConfigs overlays env values onto file values. Env values that differ
// from the envconfig defaults take precedence; everything else keeps the
// file's setting when the file set one.
func mergeConfigs(file Config, flags fileFlags, env Config) Config {
	var defaults Config
	// Defaults cannot fail to parse from an empty environment.
	_ = envconfig.Process("TAB_MERGE_DEFAULTS_SENTINEL", &defaults)

	merged := file
	if env.Server.Port != defaults.Server.Port {
		merged.Server.Port = env.Server.Port
	} else if merged.Server.Port == 0 {
		merged.Server.Port = defaults.Server.Port
	}
	overlayDuration(&merged.Server.ReadTimeout, env.Server.ReadTimeout, defaults.Server.ReadTimeout)
	overlayDuration(&merged.Server.WriteTimeout, env.Server.WriteTimeout, defaults.Server.WriteTimeout)
	overlayDuration(&merged.Server.IdleTimeout, env.Server.IdleTimeout, defaults.Server.IdleTimeout)
	overlayDuration(&merged.Server.ShutdownTimeout, env.Server.ShutdownTimeout, defaults.Server.ShutdownTimeout)
	overlayDuration(&merged.Server.RequestTimeout, env.Server.RequestTimeout, defaults.Server.RequestTimeout)

	if len(merged.Security.AllowedOrigins) == 0 {
		merged.Security.AllowedOrigins = env.Security.AllowedOrigins
	}
	merged.Security.EnableCORS = env.Security.EnableCORS
	if flags.EnableCORS != nil && env.Security.EnableCORS == defaults.Security.EnableCORS {
		merged.Security.EnableCORS = *flags.EnableCORS
	}
	merged.Security.RateLimit.Enabled = env.Security.RateLimit.Enabled
	if flags.RateLimitEnabled != nil && env.Security.RateLimit.Enabled == defaults.Security.RateLimit.Enabled {
		merged.Security.RateLimit.Enabled = *flags.RateLimitEnabled
	}
	if env.Security.RateLimit.RPS != defaults.Security.RateLimit.RPS || merged.Security.RateLimit.RPS == 0 {
		merged.Security.RateLimit.RPS = env.Security.RateLimit.RPS
	}
	if env.Security.RateLimit.Burst != defaults.Security.RateLimit.Burst || merged.Security.RateLimit.Burst == 0 {
		merged.Security.RateLimit.Burst = env.Security.RateLimit.Burst
	}

	overlayString(&merged.Logging.Level, env.Logging.Level, defaults.Logging.Level)
	overlayString(&merged.Logging.Format, env.Logging.Format, defaults.Logging.Format)
	overlayString(&merged.Logging.Output, env.Logging.Output, defaults.Logging.Output)
	overlayString(&merged.Logging.FilePath, env.Logging.FilePath, defaults.Logging.FilePath)

	if env.Upload.MaxBytes != defaults.Upload.MaxBytes || merged.Upload.MaxBytes == 0 {
		merged.Upload.MaxBytes = env.Upload.MaxBytes
	}
	if env.Upload.MaxRows != defaults.Upload.MaxRows || merged.Upload.MaxRows == 0 {
		merged.Upload.MaxRows = env.Upload.MaxRows
	}
	if env.Session.TTL != defaults.Session.TTL || merged.Session.TTL == 0 {
		merged.Session.TTL = env.Session.TTL
	}
	if env.Session.MaxSessions != defaults.Session.MaxSessions || merged.Session.MaxSessions == 0 {
		merged.Session.MaxSessions = env.Session.MaxSessions
	}
	return merged
}

func overlayDuration(dst *time.Duration, env, def time.Duration) {
	if env != def || *dst == 0 {
		*dst = env
	}
}

func overlayString(dst *string, env, def string) {
	if !strings.EqualFold(env, def) || *dst == "" {
		*dst = env
	}
}

// Validate checks the configuration with validator/v10 struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when logging.output is file")
	}
	return nil
}

// Address returns the listen address derived from the server port.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
