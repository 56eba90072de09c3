// Package config resolves runtime settings for the sync engine. Precedence,
// lowest to highest: built-in defaults, a YAML config file, environment
// variables (a .env file in the working directory is folded into the
// environment first).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	// RemoteBaseURL is the document store root; collections live under it
	// as <url>/Recipes/db.json and <url>/<uid>/ShoppingList/db.json.
	RemoteBaseURL string `yaml:"remote_base_url"`
	// AuthBaseURL is the identity endpoint root.
	AuthBaseURL string `yaml:"auth_base_url"`
	// APIKey is appended to auth requests as the key query parameter.
	APIKey string `yaml:"api_key"`
	// SessionDBPath is the SQLite file holding the persisted session blob.
	SessionDBPath string `yaml:"session_db_path"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration. The remote URLs still need
// to be pointed at a real backend before anything can sync.
func Default() Config {
	return Config{
		AuthBaseURL:   "https://identitytoolkit.googleapis.com/v1",
		SessionDBPath: "pantry-session.db",
		LogLevel:      "info",
	}
}

// Load resolves configuration. path names a YAML file and may be empty, in
// which case only defaults and the environment apply. A missing .env file
// is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{"PANTRY_REMOTE_BASE_URL", &cfg.RemoteBaseURL},
		{"PANTRY_AUTH_BASE_URL", &cfg.AuthBaseURL},
		{"PANTRY_API_KEY", &cfg.APIKey},
		{"PANTRY_SESSION_DB_PATH", &cfg.SessionDBPath},
		{"PANTRY_LOG_LEVEL", &cfg.LogLevel},
	} {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.RemoteBaseURL == "" {
		return fmt.Errorf("remote_base_url is required (set PANTRY_REMOTE_BASE_URL)")
	}
	if c.AuthBaseURL == "" {
		return fmt.Errorf("auth_base_url is required (set PANTRY_AUTH_BASE_URL)")
	}
	if c.SessionDBPath == "" {
		return fmt.Errorf("session_db_path is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name onto slog's scale.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
}
