package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds the service settings read from the environment.
type Config struct {
	ListenAddr      string        `validate:"required"`
	DatabaseURL     string        // empty selects the file cache
	CacheDir        string        `validate:"required"`
	CacheTTL        time.Duration `validate:"gt=0"`
	ProviderURL     string        `validate:"omitempty,url"`
	ProviderTimeout time.Duration `validate:"gt=0"`
	LabelMapPath    string
	LogLevel        string `validate:"omitempty,oneof=debug info warn error"`
}

// LoadEnv reads .env files into the process environment. A missing file is not
// an error; it is reported through the returned bool so callers can log it.
func LoadEnv(files ...string) (loaded bool) {
	return godotenv.Load(files...) == nil
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		CacheDir:     getenv("CACHE_DIR", ".cache/fundamentals"),
		ProviderURL:  os.Getenv("PROVIDER_URL"),
		LabelMapPath: os.Getenv("LABEL_MAP_PATH"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.CacheTTL, err = time.ParseDuration(getenv("CACHE_TTL", "1h")); err != nil {
		return Config{}, errors.Wrap(err, "CACHE_TTL")
	}
	if cfg.ProviderTimeout, err = time.ParseDuration(getenv("PROVIDER_TIMEOUT", "15s")); err != nil {
		return Config{}, errors.Wrap(err, "PROVIDER_TIMEOUT")
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
