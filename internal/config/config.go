// Package config loads client settings from .env, environment and TOML.
//
// Precedence (lowest to highest): defaults < config file < environment.
// Environment variables use the FLIXCLOUD_ prefix with dots replaced by
// underscores, e.g. FLIXCLOUD_INPUT_URL for input.url.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"flixcloud/internal/core/domain"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FLIXCLOUD"

// FileConfig locates one media file.
type FileConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Config is the full client configuration.
type Config struct {
	APIKey   string `mapstructure:"api_key"`
	RecipeID string `mapstructure:"recipe_id"`

	Input     FileConfig `mapstructure:"input"`
	Output    FileConfig `mapstructure:"output"`
	Watermark FileConfig `mapstructure:"watermark"`

	// TimeoutSeconds bounds connection establishment; 0 means none.
	TimeoutSeconds int    `mapstructure:"timeout"`
	Certificate    string `mapstructure:"certificate"`
	CertificateDir string `mapstructure:"certificate_dir"`
	Insecure       bool   `mapstructure:"insecure"`

	Endpoint string `mapstructure:"endpoint"`
	Listen   string `mapstructure:"listen"`
	Archive  string `mapstructure:"archive_dir"`

	Log LogConfig `mapstructure:"log"`
}

var keys = []string{
	"api_key", "recipe_id",
	"input.url", "input.user", "input.password",
	"output.url", "output.user", "output.password",
	"watermark.url", "watermark.user", "watermark.password",
	"timeout", "certificate", "certificate_dir", "insecure",
	"endpoint", "listen", "archive_dir",
	"log.level", "log.json",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", domain.DefaultEndpoint)
	v.SetDefault("timeout", 0)
	v.SetDefault("insecure", false)
	v.SetDefault("listen", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// NewViper returns a viper instance with defaults and environment binding.
// .env in the working directory is loaded first when present.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	SetDefaults(v)
	return v
}

// Load reads configuration. configPath is optional; when set the file must exist.
func Load(configPath string) (*Config, error) {
	return LoadFile(NewViper(), configPath)
}

// LoadFile merges the TOML file at configPath, if any, into v and decodes
// the result. Values already bound on v, such as flags, keep their precedence.
func LoadFile(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper decodes configuration from an existing viper instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// TransportOptions returns the HTTP settings for job submission.
func (c *Config) TransportOptions() domain.TransportOptions {
	timeout := time.Duration(0)
	if c.TimeoutSeconds > 0 {
		timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	return domain.TransportOptions{
		Timeout:  timeout,
		CAFile:   c.Certificate,
		CADir:    c.CertificateDir,
		Insecure: c.Insecure,
	}
}

// JobRequest builds a request from the configuration. File references are
// only set when their url is given; the recipe id is coerced from text.
func (c *Config) JobRequest() *domain.JobRequest {
	req := domain.NewJobRequest(strings.TrimSpace(c.APIKey), domain.ParseRecipeID(c.RecipeID))
	if c.Input.URL != "" {
		req.SetInput(c.Input.URL, c.Input.User, c.Input.Password)
	}
	if c.Output.URL != "" {
		req.SetOutput(c.Output.URL, c.Output.User, c.Output.Password)
	}
	if c.Watermark.URL != "" {
		req.SetWatermark(c.Watermark.URL, c.Watermark.User, c.Watermark.Password)
	}
	req.Transport = c.TransportOptions()
	return req
}
