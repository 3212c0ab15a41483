package config

import (
	"strings"
	"time"
)

// CacheConfig controls both player dictionary cache tiers.
type CacheConfig struct {
	TTL time.Duration `env:"PLAYER_CACHE_TTL" envDefault:"24h"`

	SessionBackend    string `env:"SESSION_CACHE_BACKEND" envDefault:"memory"`
	SessionQuotaBytes int64  `env:"SESSION_CACHE_QUOTA_BYTES" envDefault:"5242880"`
	SessionDir        string `env:"SESSION_CACHE_DIR"`

	DurableBackend string `env:"DURABLE_CACHE_BACKEND" envDefault:"sqlite"`
	DurablePath    string `env:"DURABLE_CACHE_PATH" envDefault:"data/players.db"`
	DurableDSN     string `env:"DURABLE_CACHE_DSN"`
}

func (c *CacheConfig) normalize() {
	if c.TTL <= 0 {
		c.TTL = defaultCacheTTL
	}
	if c.SessionQuotaBytes <= 0 {
		c.SessionQuotaBytes = defaultSessionQuotaBytes
	}
	switch c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend)); c.SessionBackend {
	case SessionBackendMemory, SessionBackendDir:
	default:
		c.SessionBackend = SessionBackendMemory
	}
	c.DurableBackend = strings.ToLower(strings.TrimSpace(c.DurableBackend))
	if c.DurableBackend == "" {
		c.DurableBackend = DurableBackendSQLite
	}
	if strings.TrimSpace(c.DurablePath) == "" {
		c.DurablePath = defaultDurablePath
	}
}
