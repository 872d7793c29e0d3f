package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
)

// Config is the full process configuration, read once in main and passed
// down explicitly.
type Config struct {
	FrontendUrl string `env:"FRONTEND_URL" env-default:"http://localhost:3000"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	// Persistence selects the repository backend: postgres or inmem.
	Persistence string `env:"UKHSC_PERSISTENCE" env-default:"postgres"`

	AppConfig       app.AppConfig
	DatabaseConfig  DatabaseConfig
	RedisConfig     RedisConfig
	JWTConfig       JWTConfig
	GoogleConfig    GoogleConfig
	RateLimitConfig RateLimitConfig
	SMTPConfig      SMTPConfig
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load() (Config, error) {
	LoadEnvFile()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values cleanenv cannot check on its own.
func (c Config) Validate() error {
	if _, err := c.JWTConfig.ParseAccessTokenExpiry(); err != nil {
		return fmt.Errorf("invalid ACCESS_TOKEN_EXPIRY: %w", err)
	}
	if _, err := c.JWTConfig.ParseRefreshTokenExpiry(); err != nil {
		return fmt.Errorf("invalid REFRESH_TOKEN_EXPIRY: %w", err)
	}
	if _, err := c.JWTConfig.ParseOnboardingTokenExpiry(); err != nil {
		return fmt.Errorf("invalid ONBOARDING_TOKEN_EXPIRY: %w", err)
	}
	if _, err := c.GoogleConfig.ParseStateTTL(); err != nil {
		return fmt.Errorf("invalid OAUTH_STATE_TTL: %w", err)
	}
	if _, err := c.RateLimitConfig.ParseAuthWindow(); err != nil {
		return fmt.Errorf("invalid RATELIMIT_AUTH_WINDOW: %w", err)
	}
	if _, err := c.RateLimitConfig.ParseTrustedProxies(); err != nil {
		return fmt.Errorf("invalid RATELIMIT_TRUSTED_PROXIES: %w", err)
	}
	switch c.Persistence {
	case "postgres", "postgresql", "inmem", "memory":
	default:
		return fmt.Errorf("unsupported UKHSC_PERSISTENCE: %q", c.Persistence)
	}
	if c.RateLimitConfig.AuthRequests <= 0 {
		return fmt.Errorf("RATELIMIT_AUTH_REQUESTS must be positive, got %d", c.RateLimitConfig.AuthRequests)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadEnvFile loads environment variables from a .env file next to the
// executable or in the working directory, if one exists.
// Only sets variables that are not already set in the environment.
func LoadEnvFile() {
	execPath, err := os.Executable()
	if err != nil {
		slog.Error("Failed to get executable path", "error", err)
		return
	}
	envFile := filepath.Join(filepath.Dir(execPath), ".env")

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		cwd, err := os.Getwd()
		if err != nil {
			slog.Error("Failed to get current working directory", "error", err)
			return
		}
		envFile = filepath.Join(cwd, ".env")
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found", "path", envFile)
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		slog.Error("Failed to load .env file", "error", err, "path", envFile)
		return
	}
	slog.Info("Configuration loaded from .env file", "path", envFile)
}
