package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config represents the main application configuration
type Config struct {
	// Metadata provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration. One of APIKey (v3) or
// AccessToken (v4 read token) is required.
type TMDbConfig struct {
	APIKey      string        `yaml:"api_key" validate:"required_without=AccessToken"`
	AccessToken string        `yaml:"access_token" validate:"required_without=APIKey"`
	BaseURL     string        `yaml:"base_url,omitempty" validate:"omitempty,http_url"`
	Language    string        `yaml:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	Timeout     time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token" validate:"required"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=json text"`
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("CINEBROWSE_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("CINEBROWSE_TMDB_ACCESS_TOKEN"); v != "" {
		c.TMDb.AccessToken = v
	}
	if v := os.Getenv("CINEBROWSE_TMDB_LANGUAGE"); v != "" {
		c.TMDb.Language = v
	}

	if v := os.Getenv("CINEBROWSE_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("CINEBROWSE_TELEGRAM_ALLOWED_USER_IDS"); v != "" && c.Telegram != nil {
		ids, err := parseUserIDs(v)
		if err != nil {
			return fmt.Errorf("CINEBROWSE_TELEGRAM_ALLOWED_USER_IDS: %w", err)
		}
		c.Telegram.AllowedUserIDs = ids
	}

	if v := os.Getenv("CINEBROWSE_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("CINEBROWSE_LOG_FORMAT"); v != "" {
		c.App.LogFormat = v
	}
	return nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fieldErrors(err)
	}

	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "json"
	}
	return nil
}

// yamlPaths maps struct namespaces to the keys users write in YAML.
var yamlPaths = map[string]string{
	"Config.TMDb.APIKey":       "tmdb.api_key",
	"Config.TMDb.AccessToken":  "tmdb.access_token",
	"Config.TMDb.BaseURL":      "tmdb.base_url",
	"Config.TMDb.Language":     "tmdb.language",
	"Config.TMDb.Timeout":      "tmdb.timeout",
	"Config.Telegram.BotToken": "telegram.bot_token",
	"Config.App.LogLevel":      "app.log_level",
	"Config.App.LogFormat":     "app.log_format",
}

// fieldErrors turns validator output into one readable error per field.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make([]error, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		msg := describe(fe)
		if seen[msg] {
			continue
		}
		seen[msg] = true
		out = append(out, errors.New(msg))
	}
	return errors.Join(out...)
}

func describe(fe validator.FieldError) string {
	key, ok := yamlPaths[fe.Namespace()]
	if !ok {
		key = fe.Namespace()
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_without":
		return "one of tmdb.api_key or tmdb.access_token is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "http_url":
		return key + " must be an http(s) URL"
	case "bcp47_language_tag":
		return fmt.Sprintf("%s must be a language tag like en-US, got %q", key, fe.Value())
	case "gte":
		return key + " must not be negative"
	default:
		return fmt.Sprintf("%s failed %q validation", key, fe.Tag())
	}
}
