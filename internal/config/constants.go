package config

import "time"

const (
	defaultSport = "nfl"

	defaultSleeperBaseURL = "https://api.sleeper.app/v1"
	// The full NFL dictionary is several megabytes; leave room for slow links.
	defaultSleeperTimeout = 30 * time.Second

	defaultCacheTTL          = 24 * time.Hour
	defaultSessionQuotaBytes = 5 << 20
	defaultDurablePath       = "data/players.db"
)

// Session tier storage strategies.
const (
	SessionBackendMemory = "memory"
	SessionBackendDir    = "dir"
)

// Durable tier backends.
const (
	DurableBackendSQLite   = "sqlite"
	DurableBackendPostgres = "postgres"
	DurableBackendNone     = "none"
)
