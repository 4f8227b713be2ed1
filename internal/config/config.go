// Package config loads the service configuration from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	OIDC    OIDCConfig    `toml:"oidc"`
	Logging LoggingConfig `toml:"logging"`
	Catalog CatalogConfig `toml:"catalog"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr   string `toml:"addr"`
	WebDir string `toml:"web_dir"`
}

// StorageDriver selects the repository implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"
	StoragePostgres StorageDriver = "postgres"
)

// StorageConfig selects and configures persistence.
type StorageConfig struct {
	Driver      StorageDriver `toml:"driver"`
	DatabaseURL string        `toml:"database_url"`
}

// AuthConfig controls local sessions.
type AuthConfig struct {
	// Disabled runs every request as a single local user.
	Disabled   bool   `toml:"disabled"`
	SessionTTL string `toml:"session_ttl"`
}

// TTL returns the parsed session lifetime. Validate guarantees it parses.
func (a AuthConfig) TTL() time.Duration {
	d, _ := time.ParseDuration(a.SessionTTL)
	return d
}

// OIDCConfig configures single sign-on. It is enabled when Issuer is set.
type OIDCConfig struct {
	Issuer       string `toml:"issuer"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// Enabled reports whether SSO is configured.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != ""
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level  LogLevel `toml:"level"`
	Format string   `toml:"format"`
}

// CatalogConfig points at an optional recipe seed file.
type CatalogConfig struct {
	SeedFile string `toml:"seed_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080", WebDir: "web"},
		Storage: StorageConfig{Driver: StorageMemory},
		Auth:    AuthConfig{SessionTTL: "24h"},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: "json"},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server: addr is required"))
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage: database_url is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: invalid driver: %s", c.Storage.Driver))
	}

	if d, err := time.ParseDuration(c.Auth.SessionTTL); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("auth: invalid session_ttl: %q", c.Auth.SessionTTL))
	}

	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, errors.New("oidc: client_id and redirect_url are required when issuer is set"))
	}

	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		errs = append(errs, fmt.Errorf("logging: invalid level: %s", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Errorf("logging: invalid format: %s", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// NewLogger builds the structured logger described by the logging section.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch LogLevel(strings.ToLower(string(l.Level))) {
	case LogLevelDebug:
		level = slog.LevelDebug
	case LogLevelWarn:
		level = slog.LevelWarn
	case LogLevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
