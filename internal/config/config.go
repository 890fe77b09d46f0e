package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// durationSeconds parses "10s", "5m" or a bare number of seconds.
type durationSeconds time.Duration

// SetValue implements cleanenv.Setter.
func (d *durationSeconds) SetValue(data string) error {
	v, err := parseDuration(data)
	if err != nil {
		return err
	}
	*d = durationSeconds(v)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

func (d durationSeconds) Duration() time.Duration { return time.Duration(d) }

type Config struct {
	API    APIConfig
	Log    LogConfig
	Notify NotifyConfig
	Auth   AuthConfig
}

type APIConfig struct {
	URL     string          `env:"HOMEDASH_API_URL" env-default:"http://localhost:3000"`
	Env     string          `env:"HOMEDASH_ENV" env-default:"production"`
	Timeout durationSeconds `env:"HOMEDASH_TIMEOUT" env-default:"30s"`
	// WebURL is the browser client opened by `homedash open`.
	WebURL string `env:"HOMEDASH_WEB_URL" env-default:"http://localhost:5173"`
}

type LogConfig struct {
	Level string `env:"HOMEDASH_LOG_LEVEL" env-default:"info"`
	// File receives TUI logs. Empty discards them.
	File string `env:"HOMEDASH_LOG_FILE" env-default:""`
}

type NotifyConfig struct {
	Enabled   bool   `env:"HOMEDASH_NOTIFICATIONS" env-default:"false"`
	TokenFile string `env:"HOMEDASH_PUSH_TOKEN_FILE" env-default:""`
}

// AuthConfig holds credentials for the non-interactive subcommands.
type AuthConfig struct {
	Username string `env:"HOMEDASH_USERNAME" env-default:""`
	Password string `env:"HOMEDASH_PASSWORD" env-default:""`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	if err := checkURL(cfg.API.URL); err != nil {
		return Config{}, fmt.Errorf("HOMEDASH_API_URL: %w", err)
	}
	switch cfg.API.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return Config{}, fmt.Errorf("HOMEDASH_ENV must be %s or %s, got %q", EnvDevelopment, EnvProduction, cfg.API.Env)
	}
	if cfg.API.Timeout.Duration() <= 0 {
		return Config{}, fmt.Errorf("HOMEDASH_TIMEOUT must be positive")
	}
	return cfg, nil
}

// IncludeCredentials reports whether the session cookie is sent. Development
// servers run without it.
func (c Config) IncludeCredentials() bool {
	return c.API.Env != EnvDevelopment
}

// HasCredentials reports whether both username and password are set.
func (c Config) HasCredentials() bool {
	return c.Auth.Username != "" && c.Auth.Password != ""
}

func checkURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
