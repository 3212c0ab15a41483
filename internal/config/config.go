package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port           string   `env:"PORT" envDefault:"4000"`
	Provider       string   `env:"PROVIDER" envDefault:"sleeper"`
	Sports         []string `env:"SPORTS" envDefault:"nfl" envSeparator:","`
	AdminToken     string   `env:"ADMIN_TOKEN"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"text"`

	Sleeper SleeperConfig
	Cache   CacheConfig
	Metrics MetricsConfig
}

// Load reads configuration from environment variables with sensible defaults.
// Values that parse but are out of range fall back to their defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Sports = cleanList(c.Sports, strings.ToLower)
	if len(c.Sports) == 0 {
		c.Sports = []string{defaultSport}
	}
	c.AllowedOrigins = cleanList(c.AllowedOrigins, nil)
	c.Sleeper.normalize()
	c.Cache.normalize()
}

// DefaultSport is the first configured partition.
func (c Config) DefaultSport() string {
	if len(c.Sports) == 0 {
		return defaultSport
	}
	return c.Sports[0]
}

func cleanList(items []string, transform func(string) string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if transform != nil {
			item = transform(item)
		}
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
