package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup
type Config struct {
	APIKey   string        `env:"FLICKR_API_KEY"      envDefault:"6f102c62f41998d151e5a1b48713cf13"`
	Endpoint string        `env:"FLICKR_ENDPOINT"     envDefault:"https://api.flickr.com/services/rest/"`
	Timeout  time.Duration `env:"FLICKR_TIMEOUT"      envDefault:"30s"`
	DBPath   string        `env:"PHOTOFEED_DB"        envDefault:"photofeed.db"`
	LogFile  string        `env:"PHOTOFEED_LOG_FILE"`
	LogLevel string        `env:"PHOTOFEED_LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and then the environment
func Load() (Config, error) {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("FLICKR_API_KEY must not be empty")
	}
	return cfg, nil
}
