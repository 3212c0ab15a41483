package config

import (
	"strings"
	"time"
)

// SleeperConfig controls how we talk to the Sleeper API.
type SleeperConfig struct {
	BaseURL string        `env:"SLEEPER_BASE_URL" envDefault:"https://api.sleeper.app/v1"`
	Timeout time.Duration `env:"SLEEPER_TIMEOUT" envDefault:"30s"`
}

func (c *SleeperConfig) normalize() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	if c.BaseURL == "" {
		c.BaseURL = defaultSleeperBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultSleeperTimeout
	}
}
