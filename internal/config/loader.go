package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFileName is looked up in the working directory when no
// explicit path is given.
const DefaultConfigFileName = "mealplanner.toml"

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load builds the configuration from, in increasing precedence: defaults,
// the TOML file at path (or ./mealplanner.toml when path is empty and the
// file exists), and environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" && fileExists(DefaultConfigFileName) {
		path = DefaultConfigFileName
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Addr = env("ADDR", cfg.Server.Addr)
	cfg.Server.WebDir = env("WEB_DIR", cfg.Server.WebDir)

	// A bare DATABASE_URL selects postgres, as the service always has.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Storage.DatabaseURL = url
		cfg.Storage.Driver = StoragePostgres
	}
	cfg.Storage.Driver = StorageDriver(env("STORAGE", string(cfg.Storage.Driver)))

	if v := os.Getenv("AUTH_DISABLED"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTH_DISABLED: %w", err)
		}
		cfg.Auth.Disabled = disabled
	}
	cfg.Auth.SessionTTL = env("SESSION_TTL", cfg.Auth.SessionTTL)

	cfg.OIDC.Issuer = env("OIDC_ISSUER", cfg.OIDC.Issuer)
	cfg.OIDC.ClientID = env("OIDC_CLIENT_ID", cfg.OIDC.ClientID)
	cfg.OIDC.ClientSecret = env("OIDC_CLIENT_SECRET", cfg.OIDC.ClientSecret)
	cfg.OIDC.RedirectURL = env("OIDC_REDIRECT_URL", cfg.OIDC.RedirectURL)

	cfg.Logging.Level = LogLevel(env("LOG_LEVEL", string(cfg.Logging.Level)))
	cfg.Logging.Format = env("LOG_FORMAT", cfg.Logging.Format)

	cfg.Catalog.SeedFile = env("CATALOG_SEED", cfg.Catalog.SeedFile)
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
